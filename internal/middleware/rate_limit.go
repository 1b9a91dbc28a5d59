package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"idef_back_end/internal/database"
)

const (
	// Limites par endpoint
	CheckoutMaxRequests = 10  // créations de paiement par minute et par IP
	APIMaxRequests      = 100 // par minute pour les endpoints généraux

	rateWindow = 1 * time.Minute
)

// APIRateLimit limite le nombre de requêtes par IP (général). Sans Redis
// configuré le limiteur est transparent (mode dégradé).
func APIRateLimit() gin.HandlerFunc {
	return rateLimit("api_requests", APIMaxRequests)
}

// CheckoutRateLimit limite les créations de paiement par IP (anti-abus:
// chaque appel crée une commande et un intent côté passerelle).
func CheckoutRateLimit() gin.HandlerFunc {
	return rateLimit("checkout_requests", CheckoutMaxRequests)
}

func rateLimit(prefix string, max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		key := prefix + ":" + c.ClientIP()

		requests, _ := database.Redis.Get(ctx, key).Int()
		if requests >= max {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"retry_after": int(rateWindow.Seconds()),
			})
			c.Abort()
			return
		}

		pipe := database.Redis.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rateWindow)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-requests-1))

		c.Next()
	}
}
