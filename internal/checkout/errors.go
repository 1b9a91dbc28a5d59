package checkout

import (
	"errors"
	"fmt"
)

// Erreurs métier du parcours de commande. Les erreurs du stockage
// (ErrProductNotFound, ErrInsufficientStock, ...) remontent telles quelles
// depuis internal/store.
var (
	ErrValidation      = errors.New("données de commande invalides")
	ErrProductInactive = errors.New("produit indisponible")
	ErrIntentMismatch  = errors.New("le payment intent ne correspond pas à la commande")
)

// GatewayError signale l'échec d'un appel à la passerelle de paiement.
// La commande reste dans un état sûr (pending, intent inchangé): l'appelant
// peut toujours réessayer.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("passerelle de paiement (%s): %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
