package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// TaxRateBps retourne le taux de taxe en points de base (100 = 1%).
// 0 par défaut: le total vaut le sous-total.
func TaxRateBps() int64 {
	raw := os.Getenv("TAX_RATE_BPS")
	if raw == "" {
		return 0
	}
	bps, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || bps < 0 {
		log.Printf("⚠️ TAX_RATE_BPS invalide (%q) — taxe désactivée", raw)
		return 0
	}
	return bps
}

// Currency retourne la devise des paiements, en minuscules comme Stripe l'attend.
func Currency() string {
	if cur := os.Getenv("CURRENCY"); cur != "" {
		return strings.ToLower(cur)
	}
	return "usd"
}
