package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"idef_back_end/internal/models"
)

// MemoryCatalog est l'implémentation en mémoire du catalogue, utilisée par
// les tests et le mode développement. Toutes les lectures renvoient des
// copies, les écritures se font sous verrou.
type MemoryCatalog struct {
	mu       sync.Mutex
	products map[string]*models.Product
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: make(map[string]*models.Product)}
}

// Put insère ou remplace un produit du catalogue.
func (s *MemoryCatalog) Put(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = cloneProduct(&p)
}

func (s *MemoryCatalog) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return cloneProduct(p), nil
}

func (s *MemoryCatalog) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, fmt.Errorf("%w: slug %s", ErrProductNotFound, slug)
}

func (s *MemoryCatalog) List(ctx context.Context, filter CatalogFilter) ([]models.Product, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		products = append(products, *cloneProduct(p))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })

	if filter.Skip > 0 {
		if filter.Skip >= len(products) {
			return []models.Product{}, nil
		}
		products = products[filter.Skip:]
	}
	if filter.Limit > 0 && len(products) > filter.Limit {
		products = products[:filter.Limit]
	}
	return products, nil
}

func (s *MemoryCatalog) DecrementStock(ctx context.Context, productID string, quantity int) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if p.Stock == nil {
		return nil
	}
	if *p.Stock < quantity {
		return fmt.Errorf("%w: %s (stock %d, demandé %d)", ErrInsufficientStock, p.Name, *p.Stock, quantity)
	}
	*p.Stock -= quantity
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneProduct(p *models.Product) *models.Product {
	clone := *p
	if p.Stock != nil {
		stock := *p.Stock
		clone.Stock = &stock
	}
	return &clone
}

// MemoryOrders est le registre de commandes en mémoire. Les mises à jour
// conditionnelles (attach, transition) sont atomiques sous le verrou.
type MemoryOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{orders: make(map[string]*models.Order)}
}

func (s *MemoryOrders) Insert(ctx context.Context, order *models.Order) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *MemoryOrders) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return cloneOrder(o), nil
}

// AttachPaymentIntent suit le même contrat write-once que le store Scylla:
// une commande fraîchement insérée n'a aucun intent attaché (ici la chaîne
// vide, côté Scylla la colonne null) et seul le premier attach s'applique.
func (s *MemoryOrders) AttachPaymentIntent(ctx context.Context, orderID, intentID string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if o.PaymentIntentID == intentID {
		return nil
	}
	if o.PaymentIntentID != "" {
		return fmt.Errorf("%w: commande %s (attaché %s, reçu %s)", ErrIntentAlreadyBound, orderID, o.PaymentIntentID, intentID)
	}
	o.PaymentIntentID = intentID
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryOrders) TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, paymentStatus string) (bool, models.OrderStatus, error) {
	_ = ctx

	if !from.CanTransitionTo(to) {
		return false, "", fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return false, "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if o.Status != from {
		return false, o.Status, nil
	}
	o.Status = to
	if paymentStatus != "" {
		o.PaymentStatus = paymentStatus
	}
	o.UpdatedAt = time.Now().UTC()
	return true, to, nil
}

func cloneOrder(o *models.Order) *models.Order {
	clone := *o
	clone.Items = append([]models.OrderItem(nil), o.Items...)
	return &clone
}
