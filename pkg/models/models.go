package models

import (
	"time"
)

// Role is the capability class of an authenticated user.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleCustomer Role = "customer"
)

// OrderStatus values. Pending orders may move to confirmed or rejected;
// both of those are terminal.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderRejected  OrderStatus = "rejected"
)

// Farmer is the seller attribution embedded in a listing.
type Farmer struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FarmName     string `json:"farm_name,omitempty"`
	FarmLocation string `json:"farm_location,omitempty"`
}

// Animal is a marketplace listing. The server is the system of record;
// clients only change listings through confirmed write calls.
type Animal struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"animal_type"`
	Breed             string    `json:"breed"`
	Age               int       `json:"age"` // months
	Weight            float64   `json:"weight"` // kg
	Price             float64   `json:"price"`
	Description       string    `json:"description,omitempty"`
	Images            []string  `json:"images,omitempty"`
	HealthStatus      string    `json:"health_status,omitempty"`
	VaccinationStatus string    `json:"vaccination_status,omitempty"`
	Available         bool      `json:"is_available"`
	Farmer            Farmer    `json:"farmer"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

// CartItem is a buyer's pending selection, carrying a snapshot of the
// listing it references.
type CartItem struct {
	ID       string `json:"id"`
	Animal   Animal `json:"animal"`
	Quantity int    `json:"quantity"`
}

// Subtotal is the item's contribution to the cart total.
func (i CartItem) Subtotal() float64 {
	return i.Animal.Price * float64(i.Quantity)
}

// CartTotal is the derived sum over a cart item collection. Stores must
// recompute it whenever the collection changes rather than carry it
// independently.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// OrderItem is one line of a submitted order.
type OrderItem struct {
	AnimalID   string  `json:"animal_id"`
	AnimalName string  `json:"animal_name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	FarmerID   string  `json:"farmer_id"`
}

// ShippingAddress is snapshotted onto an order at checkout.
type ShippingAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Order is a confirmed purchase request awaiting or having received
// farmer approval.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      string          `json:"customer_id"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     float64         `json:"total_amount"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderDraft is what a buyer submits at checkout. The server computes
// the authoritative total and line-item prices.
type OrderDraft struct {
	Items           []OrderDraftItem `json:"items"`
	ShippingAddress ShippingAddress  `json:"shipping_address"`
	Notes           string           `json:"notes,omitempty"`
}

type OrderDraftItem struct {
	AnimalID string `json:"animal_id"`
	Quantity int    `json:"quantity"`
}

// User is the minimal profile held by a session.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone,omitempty"`
	Role         Role   `json:"role"`
	FarmName     string `json:"farm_name,omitempty"`
	FarmLocation string `json:"farm_location,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// DashboardStats is the role-sensitive summary behind GET /dashboard/stats.
// The server fills the fields relevant to the caller's role and leaves the
// rest zero.
type DashboardStats struct {
	TotalListings   int     `json:"total_listings"`
	PendingOrders   int     `json:"pending_orders"`
	ConfirmedOrders int     `json:"confirmed_orders"`
	RejectedOrders  int     `json:"rejected_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
	CartItems       int     `json:"cart_items"`
}

// APIResponse is the generic success/message envelope the server wraps
// writes in.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// LoginResponse carries the issued bearer token and the profile it
// belongs to.
type LoginResponse struct {
	Token string `json:"access_token"`
	User  User   `json:"user"`
}

// UploadResponse is returned by POST /upload-image.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}
