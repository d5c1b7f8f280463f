package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/evergreenmart/storefront/internal/backend"
	"github.com/evergreenmart/storefront/internal/models"
	"github.com/evergreenmart/storefront/internal/pricing"
)

func main() {
	quoteCmd := flag.NewFlagSet("quote", flag.ExitOnError)
	subtotal := quoteCmd.Float64("subtotal", 0, "Cart subtotal to price")

	orderCmd := flag.NewFlagSet("guest-order", flag.ExitOnError)
	apiURL := orderCmd.String("api", "http://localhost:8000", "Backend API base URL")
	phone := orderCmd.String("phone", "", "Guest contact phone")
	email := orderCmd.String("email", "", "Guest contact email")

	if len(os.Args) < 2 {
		fmt.Println("expected 'quote' or 'guest-order' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "quote":
		quoteCmd.Parse(os.Args[2:])
		if *subtotal <= 0 {
			fmt.Println("a positive subtotal is required")
			quoteCmd.PrintDefaults()
			os.Exit(1)
		}
		printQuote(*subtotal)
	case "guest-order":
		orderCmd.Parse(os.Args[2:])
		if *phone == "" || *email == "" {
			fmt.Println("phone and email are required")
			orderCmd.PrintDefaults()
			os.Exit(1)
		}
		placeSampleOrder(*apiURL, *phone, *email)
	default:
		fmt.Println("expected 'quote' or 'guest-order' subcommand")
		os.Exit(1)
	}
}

func printQuote(subtotal float64) {
	t := pricing.Calculate(subtotal)
	fmt.Printf("Subtotal: %s\n", pricing.FormatDefault(t.Subtotal))
	fmt.Printf("Tax:      %s\n", pricing.FormatDefault(t.TaxAmount))
	fmt.Printf("Shipping: %s\n", pricing.FormatDefault(t.ShippingCost))
	fmt.Printf("Total:    %s\n", pricing.FormatDefault(t.FinalAmount))
}

// placeSampleOrder submits a one-item smoke-test order through the guest
// endpoint, exactly as the storefront would.
func placeSampleOrder(apiURL, phone, email string) {
	client := backend.New(apiURL, 10*time.Second)
	totals := pricing.Calculate(19.99)

	payload := models.OrderPayload{
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Smoke Test Item", Quantity: 1, Price: 19.99, TotalPrice: 19.99},
		},
		ShippingAddress: models.ShippingAddress{
			FullName: "Smoke Test", Phone: phone,
			AddressLine1: "1 Test Lane", City: "Testville", State: "TS", ZipCode: "123456",
		},
		TotalAmount:   totals.Subtotal,
		TaxAmount:     totals.TaxAmount,
		ShippingCost:  totals.ShippingCost,
		FinalAmount:   totals.FinalAmount,
		PaymentMethod: models.PaymentCOD,
		Notes:         "CLI smoke test order",
		CustomerEmail: email,
		CustomerPhone: phone,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order, err := client.CreateGuestOrder(ctx, uuid.New().String(), payload)
	if err != nil {
		log.Fatalf("Failed to place order: %v", err)
	}

	fmt.Printf("Order '%s' placed successfully (%s).\n", order.OrderNumber, pricing.FormatDefault(order.FinalAmount))
}
