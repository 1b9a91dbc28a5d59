package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"idef_back_end/internal/checkout"
	"idef_back_end/internal/store"
)

// StripeWebhook reçoit les événements de la passerelle. La livraison est
// at-least-once: le même payment_intent.succeeded peut arriver plusieurs
// fois, la confirmation étant idempotente c'est sans effet de bord.
func (h *Handler) StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	if event.Type != "payment_intent.succeeded" {
		log.Printf("ℹ️ Événement ignoré: %s", event.Type)
		c.Status(http.StatusOK)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "PaymentIntent invalide"})
		return
	}

	orderID := pi.Metadata["order_id"]
	if orderID == "" {
		log.Printf("⚠️ Intent %s sans order_id en métadonnées, ignoré", pi.ID)
		c.Status(http.StatusOK)
		return
	}

	result, err := h.Checkout.Confirm(c.Request.Context(), orderID, pi.ID)
	if err != nil {
		// Issue métier terminale (mauvais intent, commande annulée): on
		// acquitte, relivrer le même événement ne pourra jamais aboutir
		if errors.Is(err, checkout.ErrIntentMismatch) || errors.Is(err, store.ErrInvalidTransition) {
			log.Printf("⚠️ Webhook: confirmation de %s refusée: %v", orderID, err)
			c.Status(http.StatusOK)
			return
		}
		// 5xx pour que la passerelle relivre; la confirmation idempotente
		// rend la relivraison sûre
		log.Printf("❌ Webhook: confirmation de %s échouée: %v", orderID, err)
		c.Status(http.StatusInternalServerError)
		return
	}

	log.Printf("📥 Webhook: commande %s réconciliée (succès=%v)", orderID, result.Success)
	c.Status(http.StatusOK)
}
