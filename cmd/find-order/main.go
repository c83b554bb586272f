package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/config"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository/postgres"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/find-order/main.go <order-code>")
		fmt.Println("Example: go run cmd/find-order/main.go HTX12345")
		os.Exit(1)
	}

	orderCode := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database, cfg.Database.Restricted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := service.NewStatusService(repos, logger).CheckStatus(ctx, orderCode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		os.Exit(1)
	}
	if result.Order == nil {
		fmt.Printf("No order matches %q\n", orderCode)
		os.Exit(2)
	}

	order := result.Order
	fmt.Printf("Order:          %s (%s)\n", order.OrderNumber, order.ID)
	fmt.Printf("Status:         %s\n", order.Status)
	fmt.Printf("Payment:        %s via %s\n", order.PaymentStatus, order.PaymentMethod)
	if order.TransactionID != nil {
		fmt.Printf("Transaction:    %s\n", *order.TransactionID)
	}
	fmt.Printf("Amounts:        total=%d shipping=%d discount=%d final=%d\n",
		order.TotalAmount, order.ShippingFee, order.DiscountAmount, order.FinalAmount)
	fmt.Printf("Customer:       %s, %s\n", order.FullName, order.Phone)
	fmt.Printf("Updated:        %s\n", order.UpdatedAt.Format(time.RFC3339))

	items, err := repos.OrderItem.GetByOrderID(ctx, order.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load items: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nItems (%d):\n", len(items))
	for _, item := range items {
		fmt.Printf("  %s  x%d  @%d = %d\n", item.ProductID, item.Quantity, item.Price, item.Subtotal)
	}
}
