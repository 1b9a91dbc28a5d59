package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"idef_back_end/internal/checkout"
	"idef_back_end/internal/store"
)

// Handler regroupe les dépendances injectées de la couche HTTP.
type Handler struct {
	Checkout *checkout.Service
	Catalog  store.CatalogStore
}

func New(svc *checkout.Service, catalog store.CatalogStore) *Handler {
	return &Handler{Checkout: svc, Catalog: catalog}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError traduit la taxonomie d'erreurs métier en réponse HTTP:
// 404 pour les ressources absentes, 400 pour les violations de règles
// métier (jamais retentées automatiquement), 502 pour la passerelle
// (retenter est sûr grâce à l'idempotence de la confirmation), 500 sinon.
func respondError(c *gin.Context, err error) {
	var gwErr *checkout.GatewayError

	switch {
	case errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, checkout.ErrValidation),
		errors.Is(err, checkout.ErrProductInactive),
		errors.Is(err, checkout.ErrIntentMismatch),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrIntentAlreadyBound),
		errors.Is(err, store.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.As(err, &gwErr):
		log.Printf("❌ Erreur passerelle: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Erreur passerelle de paiement, veuillez réessayer"})

	default:
		log.Printf("❌ Erreur interne: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}
