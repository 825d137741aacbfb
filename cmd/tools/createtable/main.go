package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/paymentmethods"
	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/payments"
)

// Bootstraps the payment schema. Marketplace tables (orders, products, users)
// are owned by their own services; only the payment core's tables live here.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&payments.Payment{},
		&payments.OrderPaymentLink{},
		&payments.CallbackEvent{},
		&paymentmethods.Method{},
	)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("payment tables created")
}
