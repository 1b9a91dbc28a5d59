package store

import (
	"context"
	"errors"

	"idef_back_end/internal/models"
)

var (
	ErrProductNotFound    = errors.New("produit introuvable")
	ErrOrderNotFound      = errors.New("commande introuvable")
	ErrInsufficientStock  = errors.New("stock insuffisant")
	ErrIntentAlreadyBound = errors.New("un payment intent différent est déjà attaché à la commande")
	ErrInvalidTransition  = errors.New("transition de statut interdite")
)

type CatalogFilter struct {
	Category   string
	ActiveOnly bool
	Limit      int
	Skip       int
}

// CatalogStore donne accès au catalogue produits. Les lectures renvoient
// toujours l'état courant: aucun cache entre deux appels.
type CatalogStore interface {
	FindByID(ctx context.Context, productID string) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter CatalogFilter) ([]models.Product, error)

	// DecrementStock décrémente le stock de façon conditionnelle et atomique:
	// l'opération ne s'applique que si le stock courant couvre encore la
	// quantité, sinon ErrInsufficientStock. Un produit à stock illimité
	// (nil) est un no-op.
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

// OrderStore est le registre des commandes.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)

	// AttachPaymentIntent attache un intent à la commande, une seule fois
	// pour toute sa vie. Ré-attacher le même id est un no-op; un id
	// différent échoue avec ErrIntentAlreadyBound.
	AttachPaymentIntent(ctx context.Context, orderID, intentID string) error

	// TransitionStatus applique from → to seulement si le statut courant
	// vaut encore from (mise à jour conditionnelle atomique). Retourne
	// applied=false et le statut observé sinon; paymentStatus, si non vide,
	// est enregistré avec la transition.
	TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, paymentStatus string) (applied bool, current models.OrderStatus, err error)
}
