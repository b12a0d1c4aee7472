package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "optic-backoffice/internal/adapters/web"
	"optic-backoffice/internal/ai"
	"optic-backoffice/internal/app"
	"optic-backoffice/internal/core"
	"optic-backoffice/internal/db"
	"optic-backoffice/internal/payments"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	customerService := core.NewCustomerService(pool)
	productService := core.NewProductService(pool)
	prescriptionService := core.NewPrescriptionService(pool)
	saleService := core.NewSaleService(pool)
	quoteService := core.NewQuoteService(pool, saleService)
	purchaseService := core.NewPurchaseService(pool)
	financialService := core.NewFinancialService(pool)
	userService := core.NewUserService(pool)
	reportingService := core.NewReportingService(pool)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set")
	}
	assistant := ai.NewAssistant(apiKey)

	gateway, err := payments.NewMercadoPagoGateway(os.Getenv("MERCADOPAGO_ACCESS_TOKEN"))
	if err != nil {
		log.Printf("Warning: payment gateway disabled: %v", err)
		gateway = nil
	}
	var gw payments.Gateway
	if gateway != nil {
		gw = gateway
	}

	svc := app.NewAppService(
		customerService,
		productService,
		prescriptionService,
		quoteService,
		saleService,
		purchaseService,
		financialService,
		userService,
		reportingService,
		assistant,
		gw,
	)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
