package checkout

import "idef_back_end/internal/models"

// Pricing est le chiffrage d'une commande, en centimes.
type Pricing struct {
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// ComputePricing calcule sous-total, taxe et total à partir des lignes
// validées. Arithmétique entière uniquement: pour les mêmes lignes le
// résultat est identique au centime près, et le montant stocké ne peut
// jamais diverger du montant soumis à la passerelle.
func ComputePricing(items []models.OrderItem, taxRateBps int64) Pricing {
	var subtotal int64
	for _, item := range items {
		subtotal += item.PriceCents * int64(item.Quantity)
	}
	// taux en points de base, arrondi au centime le plus proche
	tax := (subtotal*taxRateBps + 5000) / 10000
	return Pricing{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}
