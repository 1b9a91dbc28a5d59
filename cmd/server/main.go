package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"idef_back_end/internal/checkout"
	"idef_back_end/internal/config"
	"idef_back_end/internal/database"
	"idef_back_end/internal/gateway"
	"idef_back_end/internal/handlers"
	"idef_back_end/internal/routes"
	"idef_back_end/internal/store"
)

func main() {
	config.Load()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	log.Println("✅ Stripe initialisé")

	database.ConnectDatabases()

	productsSession, err := database.GetProductsSession()
	if err != nil {
		log.Fatalf("❌ Session produits indisponible: %v", err)
	}
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		log.Fatalf("❌ Session commandes indisponible: %v", err)
	}

	catalog := store.NewScyllaCatalog(productsSession)
	orders := store.NewScyllaOrders(ordersSession)

	svc := checkout.NewService(catalog, orders, gateway.NewStripeGateway(),
		config.TaxRateBps(), config.Currency())

	r := gin.Default()
	routes.RegisterRoutes(r, handlers.New(svc, catalog))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur IDEF lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("❌ Serveur arrêté: %v", err)
	}
}
