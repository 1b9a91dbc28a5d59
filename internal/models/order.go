package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Transitions légales: pending → paid → completed, cancelled accessible
// depuis pending uniquement. Le statut ne revient jamais en arrière.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusCompleted},
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsSettled indique qu'un paiement a déjà été appliqué à la commande.
// C'est le point de vérité du court-circuit idempotent de la confirmation.
func (s OrderStatus) IsSettled() bool {
	return s == OrderStatusPaid || s == OrderStatusCompleted
}

// OrderItem est une ligne de commande. Nom et prix sont dénormalisés à la
// création: une modification ultérieure du catalogue ne change pas la commande.
type OrderItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	PriceCents  int64  `json:"price_cents"`
	Quantity    int    `json:"quantity"`
}

type Order struct {
	ID              string      `json:"id"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	Items           []OrderItem `json:"items"`
	SubtotalCents   int64       `json:"subtotal_cents"`
	TaxCents        int64       `json:"tax_cents"`
	TotalCents      int64       `json:"total_cents"`
	Currency        string      `json:"currency"`
	Status          OrderStatus `json:"status"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty"`
	PaymentStatus   string      `json:"payment_status,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Total retourne le montant en unités majeures, pour l'affichage uniquement.
func (o Order) Total() float64 {
	return float64(o.TotalCents) / 100
}
