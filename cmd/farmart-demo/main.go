// farmart-demo runs a scripted two-role marketplace flow against a
// Farmart API (by default a locally running farmart-mock): a farmer
// lists an animal, a buyer filters the catalog, fills a cart and checks
// out, and the farmer confirms the order while a watcher tails the
// event feed.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/api"
	"github.com/farmart/farmart-go/internal/auth"
	"github.com/farmart/farmart-go/internal/cart"
	"github.com/farmart/farmart-go/internal/catalog"
	"github.com/farmart/farmart-go/internal/circuitbreaker"
	"github.com/farmart/farmart-go/internal/events"
	"github.com/farmart/farmart-go/internal/orders"
	"github.com/farmart/farmart-go/internal/stats"
	"github.com/farmart/farmart-go/pkg/models"
)

func main() {
	godotenv.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "warn")); err == nil {
		logger.SetLevel(level)
	}

	baseURL := getEnv("FARMART_API_URL", "http://localhost:8080")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Tail the event feed while the flow runs.
	watcher, err := events.NewWatcher(baseURL, func(m events.Message) {
		fmt.Printf("  [event] %s %s\n", m.Type, string(m.Data))
	}, logger)
	must(logger, err, "build event watcher")
	go watcher.Watch(ctx)

	// A uuid suffix keeps re-runs from tripping the unique-email check.
	suffix := uuid.New().String()[:8]

	// Farmer lists an animal.
	farmerClient := api.NewClient(baseURL, logger)
	farmerSession := auth.NewSession(farmerClient, logger)
	_, err = farmerSession.Register(ctx, auth.RegisterRequest{
		Email:        fmt.Sprintf("amina-%s@farmart.dev", suffix),
		Password:     "pasture123",
		FirstName:    "Amina",
		LastName:     "Odhiambo",
		Role:         models.RoleFarmer,
		FarmName:     "Green Valley Farm",
		FarmLocation: "Nakuru",
	})
	must(logger, err, "register farmer")

	farmerCatalog := catalog.NewStore(farmerClient, logger)
	cow, err := farmerCatalog.Add(ctx, models.Animal{
		Name:        "Bessie",
		Type:        "cow",
		Breed:       "Friesian",
		Age:         30,
		Weight:      410,
		Price:       100,
		Description: "High-yield dairy cow",
	})
	must(logger, err, "list animal")
	goat, err := farmerCatalog.Add(ctx, models.Animal{
		Name:   "Billy",
		Type:   "goat",
		Breed:  "Galla",
		Age:    14,
		Weight: 38,
		Price:  50,
	})
	must(logger, err, "list animal")
	fmt.Printf("farmer listed %q and %q\n", cow.Name, goat.Name)

	// Buyer browses and checks out. The buyer's client carries a
	// circuit breaker so a dead API fails fast instead of hanging the
	// whole flow on every call.
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:        "farmart-api",
		MaxFailures: 3,
		Cooldown:    15 * time.Second,
	}, logger)
	buyerClient := api.NewClient(baseURL, logger, api.WithCircuitBreaker(breaker))
	buyerSession := auth.NewSession(buyerClient, logger)
	_, err = buyerSession.Register(ctx, auth.RegisterRequest{
		Email:     fmt.Sprintf("joseph-%s@farmart.dev", suffix),
		Password:  "pasture123",
		FirstName: "Joseph",
		LastName:  "Mwangi",
		Role:      models.RoleCustomer,
	})
	must(logger, err, "register buyer")

	guard := auth.NewGuard(buyerSession)
	must(logger, guard.Check(models.RoleCustomer), "guard buyer routes")

	buyerCatalog := catalog.NewStore(buyerClient, logger)
	err = buyerCatalog.ApplyFilters(ctx, models.FilterPatch{
		Type:     models.String("cow"),
		MaxPrice: models.String("150"),
	})
	must(logger, err, "filter catalog")
	fmt.Printf("buyer sees %d matching animal(s)\n", len(buyerCatalog.Animals()))

	buyerCart := cart.NewStore(buyerClient, logger)
	must(logger, buyerCart.Add(ctx, cow.ID, 2), "add cow to cart")
	must(logger, buyerCart.Add(ctx, goat.ID, 1), "add goat to cart")
	fmt.Printf("cart total: %.2f\n", buyerCart.Total())

	items := make([]models.OrderDraftItem, 0, len(buyerCart.Items()))
	for _, item := range buyerCart.Items() {
		items = append(items, models.OrderDraftItem{AnimalID: item.Animal.ID, Quantity: item.Quantity})
	}
	buyerOrders := orders.NewStore(buyerClient, logger)
	order, err := buyerOrders.Create(ctx, models.OrderDraft{
		Items: items,
		ShippingAddress: models.ShippingAddress{
			Line1:   "14 Riverside Drive",
			City:    "Nairobi",
			Country: "KE",
		},
	})
	must(logger, err, "create order")
	buyerCart.Clear()
	fmt.Printf("order %s placed, total %.2f, status %s\n", order.OrderNumber, order.TotalAmount, order.Status)

	// Farmer reviews incoming orders and confirms.
	farmerOrders := orders.NewStore(farmerClient, logger)
	must(logger, farmerOrders.Load(ctx), "load incoming orders")
	confirmed, err := farmerOrders.SetStatus(ctx, order.ID, models.OrderConfirmed)
	must(logger, err, "confirm order")
	fmt.Printf("farmer confirmed order %s (status %s)\n", confirmed.OrderNumber, confirmed.Status)

	farmerStats := stats.NewStore(farmerClient, logger)
	must(logger, farmerStats.Load(ctx), "load dashboard stats")
	s := farmerStats.Stats()
	fmt.Printf("farmer dashboard: %d listings, %d confirmed orders, revenue %.2f\n",
		s.TotalListings, s.ConfirmedOrders, s.TotalRevenue)

	// Give the watcher a moment to drain the feed.
	time.Sleep(500 * time.Millisecond)
}

func must(logger *logrus.Logger, err error, step string) {
	if err != nil {
		logger.WithError(err).Fatalf("demo failed: %s", step)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
