package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"idef_back_end/internal/models"
)

// Dans ScyllaDB le stock est un int simple; -1 encode "illimité" (un null
// CQL ne se distingue pas d'un zéro au scan).
const stockUnlimited = -1

// Nombre d'essais d'une mise à jour conditionnelle avant d'abandonner
// pour cause de contention.
const casRetries = 5

const productColumns = `product_id, name, slug, description, price_cents, currency, category, image_url, is_active, stock, created_at, updated_at`

// ScyllaCatalog lit le catalogue produits dans le keyspace products et
// applique les décréments de stock via des lightweight transactions.
type ScyllaCatalog struct {
	session *gocql.Session
}

func NewScyllaCatalog(session *gocql.Session) *ScyllaCatalog {
	return &ScyllaCatalog{session: session}
}

func (s *ScyllaCatalog) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = ?`
	p, err := s.scanProduct(s.session.Query(query, productID).WithContext(ctx))
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return p, err
}

func (s *ScyllaCatalog) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = ?`
	p, err := s.scanProduct(s.session.Query(query, slug).WithContext(ctx))
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("%w: slug %s", ErrProductNotFound, slug)
	}
	return p, err
}

func (s *ScyllaCatalog) scanProduct(q *gocql.Query) (*models.Product, error) {
	var p models.Product
	var stock int
	if err := q.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceCents, &p.Currency,
		&p.Category, &p.ImageURL, &p.IsActive, &stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Stock = stockPtr(stock)
	return &p, nil
}

// List parcourt la table entière et filtre côté application: le catalogue
// est petit (quelques dizaines de programmes) et la table n'a pas d'index
// par catégorie.
func (s *ScyllaCatalog) List(ctx context.Context, filter CatalogFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	iter := s.session.Query(query).WithContext(ctx).Iter()

	products := []models.Product{}
	var p models.Product
	var stock int

	for iter.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceCents, &p.Currency,
		&p.Category, &p.ImageURL, &p.IsActive, &stock, &p.CreatedAt, &p.UpdatedAt) {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		p.Stock = stockPtr(stock)
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
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

// DecrementStock décrémente par compare-and-set: la mise à jour ne
// s'applique que si le stock lu est encore le stock courant. En cas de
// course avec une autre commande on relit et on recommence.
func (s *ScyllaCatalog) DecrementStock(ctx context.Context, productID string, quantity int) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		var stock int
		err := s.session.Query(`SELECT stock FROM products WHERE product_id = ?`, productID).
			WithContext(ctx).Scan(&stock)
		if errors.Is(err, gocql.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		if err != nil {
			return err
		}
		if stock == stockUnlimited {
			return nil
		}
		if stock < quantity {
			return fmt.Errorf("%w: produit %s (stock %d, demandé %d)", ErrInsufficientStock, productID, stock, quantity)
		}

		var observed int
		applied, err := s.session.Query(
			`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			stock-quantity, time.Now().UTC(), productID, stock,
		).WithContext(ctx).ScanCAS(&observed)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		// le stock a bougé entre la lecture et l'écriture, on réessaie
	}
	return fmt.Errorf("décrément du stock de %s: trop de contention", productID)
}

func stockPtr(stock int) *int {
	if stock == stockUnlimited {
		return nil
	}
	return &stock
}
