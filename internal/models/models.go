package models

import (
	"time"
)

type PaymentMethod string

const (
	// PaymentCOD is the only payment method the storefront currently offers.
	PaymentCOD PaymentMethod = "COD"
)

type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Status      string  `json:"status"` // "available", "out_of_stock", "archived"
}

type CartItem struct {
	ProductID    int     `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

// CartSnapshot is the read-only view of the cart that checkout consumes.
type CartSnapshot struct {
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
}

func (s CartSnapshot) Empty() bool {
	return len(s.Items) == 0
}

type ShippingAddress struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
}

// CheckoutForm holds everything the shopper types during one checkout
// session. It is reset when the session ends or an order is placed.
type CheckoutForm struct {
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Notes           string          `json:"notes"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
}

type OrderItem struct {
	ProductID    int     `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	TotalPrice   float64 `json:"total_price"`
}

// OrderPayload is the request body for both order-creation endpoints.
type OrderPayload struct {
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	TotalAmount     float64         `json:"total_amount"`
	TaxAmount       float64         `json:"tax_amount"`
	ShippingCost    float64         `json:"shipping_cost"`
	DiscountAmount  float64         `json:"discount_amount"`
	FinalAmount     float64         `json:"final_amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Notes           string          `json:"notes"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
}

// OrderResult is returned by the backend once an order is accepted.
// It is never mutated after creation; it drives the confirmation view.
type OrderResult struct {
	ID          int       `json:"id"`
	OrderNumber string    `json:"order_number"`
	FinalAmount float64   `json:"final_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserProfile is the authenticated shopper as reported by the backend.
type UserProfile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
