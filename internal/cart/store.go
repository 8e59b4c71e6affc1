// Package cart holds the buyer's pending selections and their derived
// total. The total is recomputed from the item collection on every
// mutation and is never stored independently of it.
package cart

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
	items   []models.CartItem
	total   float64
	loading bool
	errMsg  string
}

func NewStore(client *api.Client, logger *logrus.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

// Load fetches the full cart, replaces the local items, and recomputes
// the total. On failure the previous items and total are untouched.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	var items []models.CartItem
	err := s.client.Get(ctx, "/cart", &items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = api.ErrorMessage(err)
		s.logger.WithError(err).Warn("Failed to load cart")
		return err
	}

	s.items = items
	s.total = models.CartTotal(s.items)
	return nil
}

// Add puts an animal in the cart and then refetches the full cart. The
// POST response is not a hydrated cart item, so the refetch is what
// brings the local collection and total in line with the server.
func (s *Store) Add(ctx context.Context, animalID string, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}

	body := map[string]interface{}{
		"animalId": animalID,
		"quantity": quantity,
	}
	if err := s.client.Post(ctx, "/cart", body, nil); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"animal_id": animalID,
		"quantity":  quantity,
	}).Debug("Added to cart")

	return s.Load(ctx)
}

// Remove deletes a cart item by id, drops it from the local collection
// once the server confirms, and recomputes the total from what remains.
func (s *Store) Remove(ctx context.Context, itemID string) error {
	if err := s.client.Delete(ctx, "/cart/"+itemID, nil); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.total = models.CartTotal(s.items)
	s.mu.Unlock()

	s.logger.WithField("item_id", itemID).Debug("Removed from cart")
	return nil
}

// Clear empties the local collection and zeroes the total. It is a pure
// local reset used after order placement, which empties the server-side
// cart as part of checkout.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.total = 0
	s.mu.Unlock()
}

// Items returns a copy of the current cart contents.
func (s *Store) Items() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total returns the derived sum of price × quantity over the items.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Loading reports whether a Load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the server message from the most recent failed Load.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}
