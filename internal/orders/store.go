// Package orders holds submitted orders and their status. Buyers create
// orders from their cart at checkout; the farmer who owns the listed
// animals moves a pending order to confirmed or rejected, both terminal.
package orders

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/api"
	"github.com/farmart/farmart-go/pkg/models"
)

type Store struct {
	client *api.Client
	logger *logrus.Logger

	mu      sync.RWMutex
	orders  []models.Order
	loading bool
	errMsg  string
}

func NewStore(client *api.Client, logger *logrus.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

// Create submits the draft and appends the server's returned order on
// success. On failure the local list is unchanged and the server's
// message is surfaced through Err and the returned error.
func (s *Store) Create(ctx context.Context, draft models.OrderDraft) (models.Order, error) {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	var created models.Order
	err := s.client.Post(ctx, "/orders", draft, &created)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = api.ErrorMessage(err)
		s.logger.WithError(err).Warn("Failed to create order")
		return models.Order{}, err
	}

	s.orders = append(s.orders, created)
	s.logger.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"total_amount": created.TotalAmount,
	}).Info("Order created")
	return created, nil
}

// Load replaces the local collection with the server's role-sensitive
// view: a farmer's incoming orders or a buyer's own. The store does not
// branch on role itself.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	var orders []models.Order
	err := s.client.Get(ctx, "/orders", &orders)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = api.ErrorMessage(err)
		s.logger.WithError(err).Warn("Failed to load orders")
		return err
	}

	s.orders = orders
	return nil
}

// SetStatus asks the server to transition an order and replaces the
// matching local order with the returned representation. The server
// enforces the pending → confirmed|rejected state machine; the store
// forwards whatever the caller asks for.
func (s *Store) SetStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.Order, error) {
	body := map[string]models.OrderStatus{"status": status}

	var updated models.Order
	if err := s.client.Put(ctx, "/orders/"+orderID+"/status", body, &updated); err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_id": orderID,
			"status":   status,
		}).WithError(err).Warn("Failed to update order status")
		return models.Order{}, err
	}

	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == updated.ID {
			s.orders[i] = updated
			break
		}
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   updated.Status,
	}).Info("Order status updated")
	return updated, nil
}

// Orders returns a copy of the current collection.
func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Loading reports whether a Create or Load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the server message from the most recent failed Create or
// Load.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}
