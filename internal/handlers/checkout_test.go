package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idef_back_end/internal/checkout"
	"idef_back_end/internal/gateway"
	"idef_back_end/internal/handlers"
	"idef_back_end/internal/models"
	"idef_back_end/internal/routes"
	"idef_back_end/internal/store"
)

type fakeGateway struct {
	mu       sync.Mutex
	statuses map[string]string
	created  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]string)}
}

func (f *fakeGateway) CreateIntent(_ context.Context, amountCents int64, currency, description string, metadata map[string]string) (*gateway.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	id := fmt.Sprintf("pi_%d", f.created)
	f.statuses[id] = "requires_payment_method"
	return &gateway.Intent{ID: id, ClientSecret: id + "_secret", Status: f.statuses[id]}, nil
}

func (f *fakeGateway) RetrieveIntent(_ context.Context, intentID string) (*gateway.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[intentID]
	if !ok {
		return nil, fmt.Errorf("intent inconnu: %s", intentID)
	}
	return &gateway.Intent{ID: intentID, Status: status}, nil
}

func (f *fakeGateway) setStatus(intentID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[intentID] = status
}

func intPtr(v int) *int { return &v }

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryCatalog, *fakeGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := store.NewMemoryCatalog()
	orders := store.NewMemoryOrders()
	gw := newFakeGateway()

	now := time.Now().UTC()
	catalog.Put(models.Product{
		ID:         "P1",
		Name:       "Diplomado Criminal Profiling 2025",
		Slug:       "diplomado-criminal-profiling-2025",
		PriceCents: 1000,
		Currency:   "USD",
		Category:   "Diplomado",
		IsActive:   true,
		Stock:      intPtr(5),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	catalog.Put(models.Product{
		ID:         "P2",
		Name:       "Curso archivé",
		Slug:       "curso-archive",
		PriceCents: 2000,
		Currency:   "USD",
		Category:   "Curso",
		IsActive:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	})

	svc := checkout.NewService(catalog, orders, gw, 0, "usd")

	r := gin.New()
	routes.RegisterRoutes(r, handlers.New(svc, catalog))
	return r, catalog, gw
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	if len(w.Body.Bytes()) > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func checkoutBody() map[string]any {
	return map[string]any{
		"customer_name":  "Carlos Mendoza",
		"customer_email": "carlos@example.com",
		"items": []map[string]any{
			// le prix envoyé par le client est délibérément faux: il doit
			// être ignoré au profit du prix catalogue
			{"product_id": "P1", "quantity": 2, "price": 0.01},
		},
	}
}

func TestCreatePaymentIntentEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodPost, "/api/checkout/create-payment-intent", checkoutBody())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pi_1_secret", body["client_secret"])
	assert.NotEmpty(t, body["order_id"])
	assert.Equal(t, 20.0, body["amount"], "le montant vient du catalogue, pas du client")
}

func TestCreatePaymentIntentRejectsBadInput(t *testing.T) {
	r, _, _ := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"email manquant", map[string]any{
			"customer_name": "Carlos Mendoza",
			"items":         []map[string]any{{"product_id": "P1", "quantity": 1}},
		}, http.StatusBadRequest},
		{"produit inconnu", map[string]any{
			"customer_name":  "Carlos Mendoza",
			"customer_email": "carlos@example.com",
			"items":          []map[string]any{{"product_id": "inconnu", "quantity": 1}},
		}, http.StatusNotFound},
		{"produit inactif", map[string]any{
			"customer_name":  "Carlos Mendoza",
			"customer_email": "carlos@example.com",
			"items":          []map[string]any{{"product_id": "P2", "quantity": 1}},
		}, http.StatusBadRequest},
		{"stock insuffisant", map[string]any{
			"customer_name":  "Carlos Mendoza",
			"customer_email": "carlos@example.com",
			"items":          []map[string]any{{"product_id": "P1", "quantity": 99}},
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, r, http.MethodPost, "/api/checkout/create-payment-intent", tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestConfirmPaymentEndpoint(t *testing.T) {
	r, catalog, gw := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodPost, "/api/checkout/create-payment-intent", checkoutBody())
	require.Equal(t, http.StatusOK, w.Code)
	orderID := body["order_id"].(string)

	// paiement pas encore abouti
	w, body = doJSON(t, r, http.MethodPost,
		"/api/checkout/confirm-payment/"+orderID+"?payment_intent_id=pi_1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["success"])

	// mauvais intent
	w, _ = doJSON(t, r, http.MethodPost,
		"/api/checkout/confirm-payment/"+orderID+"?payment_intent_id=pi_autre", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// paiement abouti côté passerelle
	gw.setStatus("pi_1", gateway.StatusSucceeded)
	w, body = doJSON(t, r, http.MethodPost,
		"/api/checkout/confirm-payment/"+orderID+"?payment_intent_id=pi_1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, orderID, body["order_id"])

	// la page de succès relit la commande
	w, body = doJSON(t, r, http.MethodGet, "/api/checkout/order/"+orderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", body["status"])

	p, err := catalog.FindByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, *p.Stock)

	// rejouer la confirmation ne décrémente pas une deuxième fois
	w, _ = doJSON(t, r, http.MethodPost,
		"/api/checkout/confirm-payment/"+orderID+"?payment_intent_id=pi_1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p, err = catalog.FindByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, *p.Stock)
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost,
		"/api/checkout/confirm-payment/absente?payment_intent_id=pi_1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStripeWebhookConfirmsOrder(t *testing.T) {
	r, catalog, gw := newTestRouter(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	w, body := doJSON(t, r, http.MethodPost, "/api/checkout/create-payment-intent", checkoutBody())
	require.Equal(t, http.StatusOK, w.Code)
	orderID := body["order_id"].(string)

	gw.setStatus("pi_1", gateway.StatusSucceeded)

	event := map[string]any{
		"type": "payment_intent.succeeded",
		"data": map[string]any{
			"object": map[string]any{
				"id":       "pi_1",
				"metadata": map[string]string{"order_id": orderID},
			},
		},
	}
	w, _ = doJSON(t, r, http.MethodPost, "/api/webhook/stripe", event)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, r, http.MethodGet, "/api/checkout/order/"+orderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", body["status"])

	p, err := catalog.FindByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, *p.Stock)

	// relivraison du même événement: sans effet de bord
	w, _ = doJSON(t, r, http.MethodPost, "/api/webhook/stripe", event)
	require.Equal(t, http.StatusOK, w.Code)
	p, err = catalog.FindByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, *p.Stock)
}

func TestStripeWebhookAcknowledgesTerminalMismatch(t *testing.T) {
	r, _, _ := newTestRouter(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	w, body := doJSON(t, r, http.MethodPost, "/api/checkout/create-payment-intent", checkoutBody())
	require.Equal(t, http.StatusOK, w.Code)
	orderID := body["order_id"].(string)

	// événement portant le mauvais intent pour cette commande: relivrer ne
	// pourra jamais aboutir, on acquitte au lieu de provoquer des retries
	event := map[string]any{
		"type": "payment_intent.succeeded",
		"data": map[string]any{
			"object": map[string]any{
				"id":       "pi_autre",
				"metadata": map[string]string{"order_id": orderID},
			},
		},
	}
	w, _ = doJSON(t, r, http.MethodPost, "/api/webhook/stripe", event)
	assert.Equal(t, http.StatusOK, w.Code)

	// la commande reste pending, rien n'a été réglé
	w, body = doJSON(t, r, http.MethodGet, "/api/checkout/order/"+orderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", body["status"])
}

func TestStripeWebhookIgnoresOtherEvents(t *testing.T) {
	r, _, _ := newTestRouter(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	event := map[string]any{"type": "payment_intent.created", "data": map[string]any{"object": map[string]any{"id": "pi_1"}}}
	w, _ := doJSON(t, r, http.MethodPost, "/api/webhook/stripe", event)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListProductsEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var products []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1, "seuls les produits actifs sont listés par défaut")
	assert.Equal(t, "P1", products[0]["id"])

	// is_active=false inclut les produits archivés
	req = httptest.NewRequest(http.MethodGet, "/api/products?is_active=false", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, 2)
}

func TestGetProductBySlug(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodGet, "/api/products/slug/diplomado-criminal-profiling-2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "P1", body["id"])

	w, _ = doJSON(t, r, http.MethodGet, "/api/products/slug/absent", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
