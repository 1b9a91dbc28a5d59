package checkout

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"idef_back_end/internal/gateway"
	"idef_back_end/internal/models"
	"idef_back_end/internal/store"
)

// CartLine est une ligne de panier telle que soumise par le client. Seuls
// l'id produit et la quantité font foi: tout prix envoyé par le client est
// ignoré, le chiffrage vient exclusivement du catalogue.
type CartLine struct {
	ProductID string
	Quantity  int
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type CheckoutResult struct {
	OrderID      string
	ClientSecret string
	AmountCents  int64
	Currency     string
}

type ConfirmResult struct {
	Success              bool
	Message              string
	OrderID              string
	GatewayStatus        string
	ReconciliationNeeded bool
}

// Service orchestre le parcours checkout → paiement hors-bande →
// confirmation. Chaque requête est une unité de travail indépendante:
// aucun verrou n'est tenu pendant que le client paie.
type Service struct {
	catalog  store.CatalogStore
	orders   store.OrderStore
	gateway  gateway.Gateway
	taxBps   int64
	currency string
}

func NewService(catalog store.CatalogStore, orders store.OrderStore, gw gateway.Gateway, taxRateBps int64, currency string) *Service {
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		catalog:  catalog,
		orders:   orders,
		gateway:  gw,
		taxBps:   taxRateBps,
		currency: currency,
	}
}

// Checkout valide le panier contre le catalogue, fige le chiffrage,
// enregistre la commande pending et ouvre le payment intent correspondant.
func (s *Service) Checkout(ctx context.Context, customer Customer, lines []CartLine) (*CheckoutResult, error) {
	items, err := s.validateItems(ctx, lines)
	if err != nil {
		return nil, err
	}

	pricing := ComputePricing(items, s.taxBps)

	order, err := s.createOrder(ctx, customer, items, pricing)
	if err != nil {
		return nil, err
	}

	intent, err := s.openIntent(ctx, order)
	if err != nil {
		return nil, err
	}

	log.Printf("💳 Checkout créé: commande %s, intent %s (%d %s) pour %s",
		order.ID, intent.ID, order.TotalCents, order.Currency, order.CustomerEmail)

	return &CheckoutResult{
		OrderID:      order.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  order.TotalCents,
		Currency:     order.Currency,
	}, nil
}

// validateItems relit le catalogue pour chaque ligne et fige nom et prix
// dans la commande. La lecture est fraîche à chaque appel: entre le
// checkout et la confirmation il peut s'écouler un temps arbitraire, le
// contrôle de stock fait ici n'est qu'indicatif — seul le décrément
// conditionnel à la confirmation fait foi.
func (s *Service) validateItems(ctx context.Context, lines []CartLine) ([]models.OrderItem, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: panier vide", ErrValidation)
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantité invalide pour %s", ErrValidation, line.ProductID)
		}

		product, err := s.catalog.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductInactive, product.Name)
		}
		if product.Stock != nil && *product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: %s (stock %d, demandé %d)",
				store.ErrInsufficientStock, product.Name, *product.Stock, line.Quantity)
		}

		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			PriceCents:  product.PriceCents,
			Quantity:    line.Quantity,
		})
	}
	return items, nil
}

func (s *Service) createOrder(ctx context.Context, customer Customer, items []models.OrderItem, pricing Pricing) (*models.Order, error) {
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:            uuid.NewString(),
		CustomerName:  strings.TrimSpace(customer.Name),
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		Items:         items,
		SubtotalCents: pricing.SubtotalCents,
		TaxCents:      pricing.TaxCents,
		TotalCents:    pricing.TotalCents,
		Currency:      s.currency,
		Status:        models.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func validateCustomer(c Customer) error {
	if len(strings.TrimSpace(c.Name)) < 2 {
		return fmt.Errorf("%w: nom client trop court", ErrValidation)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("%w: email client invalide", ErrValidation)
	}
	return nil
}

// openIntent ouvre un payment intent pour la commande et l'y attache.
// En cas d'échec passerelle la commande reste pending sans intent attaché:
// relancer un checkout ou ré-ouvrir un intent est toujours sûr.
func (s *Service) openIntent(ctx context.Context, order *models.Order) (*gateway.Intent, error) {
	metadata := map[string]string{
		"order_id":       order.ID,
		"customer_email": order.CustomerEmail,
		"customer_name":  order.CustomerName,
	}
	description := fmt.Sprintf("Compra IDEF - %d producto(s)", len(order.Items))

	intent, err := s.gateway.CreateIntent(ctx, order.TotalCents, order.Currency, description, metadata)
	if err != nil {
		return nil, &GatewayError{Op: "create intent", Err: err}
	}

	if err := s.orders.AttachPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return nil, err
	}
	order.PaymentIntentID = intent.ID
	return intent, nil
}

// Confirm vérifie le statut de l'intent auprès de la passerelle et
// applique, au plus une fois, la transition paid et les décréments de
// stock. Les appels répétés ou concurrents (webhook + polling client)
// court-circuitent sur le statut déjà réglé: la transition conditionnelle
// n'a qu'un seul gagnant, et lui seul touche au stock.
func (s *Service) Confirm(ctx context.Context, orderID, intentID string) (*ConfirmResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if intentID == "" || order.PaymentIntentID != intentID {
		return nil, fmt.Errorf("%w: commande %s", ErrIntentMismatch, orderID)
	}

	if order.Status.IsSettled() {
		// court-circuit idempotent: paiement déjà appliqué, on ne
		// réinterroge ni la passerelle ni le stock
		return &ConfirmResult{
			Success: true,
			Message: "Pago confirmado exitosamente",
			OrderID: orderID,
		}, nil
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: la commande %s est annulée", store.ErrInvalidTransition, orderID)
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, &GatewayError{Op: "retrieve intent", Err: err}
	}

	if intent.Status != gateway.StatusSucceeded {
		// issue attendue (paiement en cours, refusé, ...): aucune mutation,
		// la commande reste pending et l'appelant peut retenter
		return &ConfirmResult{
			Success:       false,
			Message:       fmt.Sprintf("Pago no completado. Estado: %s", intent.Status),
			OrderID:       orderID,
			GatewayStatus: intent.Status,
		}, nil
	}

	applied, current, err := s.orders.TransitionStatus(ctx, orderID,
		models.OrderStatusPending, models.OrderStatusPaid, intent.Status)
	if err != nil {
		return nil, err
	}
	if !applied {
		if current.IsSettled() {
			// une confirmation concurrente a gagné la transition et a déjà
			// réglé le stock
			return &ConfirmResult{
				Success:       true,
				Message:       "Pago confirmado exitosamente",
				OrderID:       orderID,
				GatewayStatus: intent.Status,
			}, nil
		}
		return nil, fmt.Errorf("%w: %s → %s impossible (statut %s)",
			store.ErrInvalidTransition, models.OrderStatusPending, models.OrderStatusPaid, current)
	}

	message := "Pago confirmado exitosamente"
	reconciliation := s.settleStock(ctx, order)
	if reconciliation {
		message = "Pago confirmado; ajuste de stock pendiente de reconciliación"
	}

	log.Printf("✅ Commande %s payée (intent %s)", orderID, intentID)

	return &ConfirmResult{
		Success:              true,
		Message:              message,
		OrderID:              orderID,
		GatewayStatus:        intent.Status,
		ReconciliationNeeded: reconciliation,
	}, nil
}

// settleStock applique les décréments de stock, chacun individuellement
// atomique. Un échec n'annule pas le paiement — l'argent a déjà bougé —
// il est journalisé et signalé comme cas de réconciliation manuelle.
func (s *Service) settleStock(ctx context.Context, order *models.Order) bool {
	needed := false
	for _, item := range order.Items {
		if err := s.catalog.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			needed = true
			log.Printf("⚠️ Réconciliation requise: commande %s, produit %s: %v",
				order.ID, item.ProductID, err)
		}
	}
	return needed
}

// GetOrder retourne la commande telle que persistée.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// CompleteOrder marque une commande payée comme exécutée. Déclenché par le
// collaborateur externe en charge de la livraison.
func (s *Service) CompleteOrder(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, models.OrderStatusPaid, models.OrderStatusCompleted)
}

// CancelOrder annule une commande encore pending (checkout abandonné).
// L'expiration automatique des commandes abandonnées est une politique
// externe, jamais déclenchée ici.
func (s *Service) CancelOrder(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, models.OrderStatusPending, models.OrderStatusCancelled)
}

func (s *Service) transition(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	applied, current, err := s.orders.TransitionStatus(ctx, orderID, from, to, "")
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: %s → %s impossible (statut %s)", store.ErrInvalidTransition, from, to, current)
	}
	return nil
}
