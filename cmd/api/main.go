package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/ec-shop/internal/api"
	"github.com/example/ec-shop/internal/checkout"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/infrastructure/kafka"
	"github.com/example/ec-shop/internal/infrastructure/store"
	"github.com/example/ec-shop/internal/payment"
)

func main() {
	// Configuration from environment variables
	addr := getEnv("HTTP_ADDR", ":8080")
	kafkaBrokersStr := getEnv("KAFKA_BROKERS", "localhost:9092")
	kafkaBrokers := strings.Split(kafkaBrokersStr, ",")
	kafkaTopic := getEnv("KAFKA_TOPIC", "shop-events")
	publishEvents := getEnv("PUBLISH_EVENTS", "true") == "true"

	log.Println("[API] ========================================")
	log.Println("[API] EC Shop - Order API")
	log.Println("[API] ========================================")
	log.Printf("[API] Listen: %s", addr)

	// Initialize event publisher
	var publisher checkout.EventPublisher
	if publishEvents {
		log.Printf("[API] Kafka: %v", kafkaBrokers)
		log.Printf("[API] Topic: %s", kafkaTopic)
		producer := kafka.NewProducer(kafkaBrokers, kafkaTopic)
		defer producer.Close()
		publisher = producer
	} else {
		log.Println("[API] Event publishing disabled")
	}

	// Initialize stores and services
	catalog := store.NewCatalog()
	orders := store.NewOrderStore()
	calculator := payment.NewCalculator()
	checkoutSvc := checkout.NewService(orders, calculator, publisher)

	if getEnv("SEED_CATALOG", "false") == "true" {
		seedCatalog(catalog)
		log.Printf("[API] Seeded catalog with %d products", len(catalog.List()))
	}

	// Initialize API
	handlers := api.NewHandlers(catalog, checkoutSvc)
	router := api.NewRouter(handlers)

	// Start HTTP server
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
	log.Println("[API] Stopped")
}

func seedCatalog(catalog *store.Catalog) {
	seed := []struct {
		id, name, description string
		price                 float64
		stock                 int
		category              string
	}{
		{"notebook", "Notebook", "14-inch notebook", 3500.00, 10, "electronics"},
		{"mouse", "Wireless Mouse", "Bluetooth mouse", 150.00, 50, "electronics"},
		{"keyboard", "Mechanical Keyboard", "Tenkeyless keyboard", 450.00, 25, "electronics"},
		{"headset", "Headset", "USB headset with microphone", 320.00, 30, "electronics"},
	}
	for _, s := range seed {
		p, err := product.New(s.id, s.name, s.description, s.price, s.stock, s.category)
		if err != nil {
			log.Fatalf("[API] Invalid seed product %s: %v", s.id, err)
		}
		catalog.Put(p)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
