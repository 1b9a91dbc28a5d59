package gateway

import "context"

// Intent est la référence côté passerelle d'une tentative de paiement.
// Écrite une fois, relue ensuite pour connaître le statut.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// StatusSucceeded est le seul statut passerelle qui déclenche le règlement
// d'une commande. Les autres statuts sont transmis tels quels à l'appelant.
const StatusSucceeded = "succeeded"

// Gateway abstrait la passerelle de paiement externe.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency, description string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}
