package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"idef_back_end/internal/models"
)

// ScyllaOrders persiste les commandes dans le keyspace orders. Les lignes
// de commande sont figées à la création et sérialisées en JSON dans la
// partition: elles ne sont jamais modifiées ensuite.
type ScyllaOrders struct {
	session *gocql.Session
}

func NewScyllaOrders(session *gocql.Session) *ScyllaOrders {
	return &ScyllaOrders{session: session}
}

// Insert écrit une commande neuve. payment_intent_id et payment_status ne
// figurent pas dans la liste de colonnes: ils restent null tant qu'aucun
// intent n'est attaché, ce qui est la condition exacte de la LWT
// d'AttachPaymentIntent. Les écrire avec la chaîne vide stockerait un text
// de longueur nulle (non-null) et la condition IF ne s'appliquerait jamais.
func (s *ScyllaOrders) Insert(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("sérialisation des lignes de commande: %v", err)
	}

	query := `INSERT INTO orders (order_id, customer_name, customer_email, customer_phone, items,
		subtotal_cents, tax_cents, total_cents, currency, status,
		created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return s.session.Query(query,
		order.ID, order.CustomerName, order.CustomerEmail, order.CustomerPhone, string(items),
		order.SubtotalCents, order.TaxCents, order.TotalCents, order.Currency, string(order.Status),
		order.CreatedAt, order.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaOrders) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `SELECT order_id, customer_name, customer_email, customer_phone, items,
		subtotal_cents, tax_cents, total_cents, currency, status, payment_intent_id, payment_status,
		created_at, updated_at FROM orders WHERE order_id = ?`

	var o models.Order
	var items string
	var status string
	err := s.session.Query(query, orderID).WithContext(ctx).Scan(
		&o.ID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &items,
		&o.SubtotalCents, &o.TaxCents, &o.TotalCents, &o.Currency, &status,
		&o.PaymentIntentID, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("lignes de commande %s corrompues: %v", orderID, err)
	}
	return &o, nil
}

// AttachPaymentIntent écrit l'id d'intent une seule fois: la lightweight
// transaction n'applique la mise à jour que si la colonne est encore null
// (jamais écrite par Insert). MapScanCAS plutôt que ScanCAS: une LWT
// refusée sur une partition inexistante ne retourne que la colonne
// [applied], sans valeur observée à scanner.
func (s *ScyllaOrders) AttachPaymentIntent(ctx context.Context, orderID, intentID string) error {
	prev := map[string]interface{}{}
	applied, err := s.session.Query(
		`UPDATE orders SET payment_intent_id = ?, updated_at = ? WHERE order_id = ? IF payment_intent_id = null`,
		intentID, time.Now().UTC(), orderID,
	).WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	if len(prev) == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	observed, _ := prev["payment_intent_id"].(string)
	if observed == intentID {
		return nil
	}
	return fmt.Errorf("%w: commande %s (attaché %s, reçu %s)", ErrIntentAlreadyBound, orderID, observed, intentID)
}

// TransitionStatus applique from → to via une lightweight transaction sur
// la colonne status. C'est le seul chemin de mutation du statut: la paire
// est d'abord validée contre la table des transitions légales, puis la
// condition IF garantit qu'une commande n'est réglée qu'une fois, même
// sous confirmations concurrentes.
func (s *ScyllaOrders) TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, paymentStatus string) (bool, models.OrderStatus, error) {
	if !from.CanTransitionTo(to) {
		return false, "", fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}

	var q *gocql.Query
	if paymentStatus != "" {
		q = s.session.Query(
			`UPDATE orders SET status = ?, payment_status = ?, updated_at = ? WHERE order_id = ? IF status = ?`,
			string(to), paymentStatus, time.Now().UTC(), orderID, string(from),
		)
	} else {
		q = s.session.Query(
			`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?`,
			string(to), time.Now().UTC(), orderID, string(from),
		)
	}

	prev := map[string]interface{}{}
	applied, err := q.WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return false, "", err
	}
	if applied {
		return true, to, nil
	}
	observed, ok := prev["status"].(string)
	if !ok || observed == "" {
		return false, "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return false, models.OrderStatus(observed), nil
}
