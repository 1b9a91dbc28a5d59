package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"idef_back_end/internal/checkout"
)

type checkoutItem struct {
	ProductID string `json:"product_id" binding:"required"`
	// Nom et prix éventuellement envoyés par le client sont acceptés pour
	// compatibilité mais jamais utilisés: le chiffrage vient du catalogue.
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type checkoutRequest struct {
	CustomerName  string         `json:"customer_name" binding:"required,min=2"`
	CustomerEmail string         `json:"customer_email" binding:"required,email"`
	CustomerPhone string         `json:"customer_phone"`
	Items         []checkoutItem `json:"items" binding:"required"`
}

// CreatePaymentIntent démarre un checkout: validation des lignes contre le
// catalogue, création de la commande pending, ouverture du payment intent.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	lines := make([]checkout.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		lines = append(lines, checkout.CartLine{ProductID: item.ProductID, Quantity: qty})
	}

	customer := checkout.Customer{
		Name:  req.CustomerName,
		Email: req.CustomerEmail,
		Phone: req.CustomerPhone,
	}

	result, err := h.Checkout.Checkout(c.Request.Context(), customer, lines)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret": result.ClientSecret,
		"order_id":      result.OrderID,
		"amount":        float64(result.AmountCents) / 100,
	})
}

// ConfirmPayment vérifie le paiement auprès de la passerelle et règle la
// commande. L'id d'intent arrive en query (contrat du frontend d'origine)
// ou dans le corps JSON. L'opération est idempotente: rejouer la
// confirmation ne décrémente jamais le stock deux fois.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	orderID := c.Param("order_id")

	intentID := c.Query("payment_intent_id")
	if intentID == "" {
		var body struct {
			PaymentIntentID string `json:"payment_intent_id"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			intentID = body.PaymentIntentID
		}
	}
	if intentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_intent_id requis"})
		return
	}

	result, err := h.Checkout.Confirm(c.Request.Context(), orderID, intentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  result.Success,
		"message":  result.Message,
		"order_id": result.OrderID,
	})
}

// GetOrder retourne une commande (page de succès du storefront).
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.Checkout.GetOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
