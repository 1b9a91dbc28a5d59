package models

import "time"

// Product est un instantané du catalogue. Le catalogue est la source de
// vérité pour le prix et la disponibilité: prix et stock sont relus à
// chaque étape du checkout, jamais mis en cache entre deux étapes.
type Product struct {
	ID          string    `json:"id" db:"product_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	Currency    string    `json:"currency" db:"currency"`
	Category    string    `json:"category" db:"category"`
	ImageURL    string    `json:"image_url,omitempty" db:"image_url"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	Stock       *int      `json:"stock" db:"stock"` // nil = stock illimité
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Price retourne le prix en unités majeures, pour l'affichage uniquement.
// Tous les calculs se font en centimes.
func (p Product) Price() float64 {
	return float64(p.PriceCents) / 100
}
