package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/api"
	"github.com/farmart/farmart-go/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// fakeCart is a minimal server-side cart the store syncs against.
type fakeCart struct {
	mu    sync.Mutex
	items []models.CartItem
}

func (f *fakeCart) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(f.items)
		case http.MethodPost:
			var req struct {
				AnimalID string `json:"animalId"`
				Quantity int    `json:"quantity"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			f.items = append(f.items, models.CartItem{
				ID:       "item-" + req.AnimalID,
				Animal:   models.Animal{ID: req.AnimalID, Price: 100},
				Quantity: req.Quantity,
			})
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.APIResponse{Success: true})
		case http.MethodDelete:
			itemID := r.URL.Path[len("/cart/"):]
			for i := range f.items {
				if f.items[i].ID == itemID {
					f.items = append(f.items[:i], f.items[i+1:]...)
					break
				}
			}
			json.NewEncoder(w).Encode(models.APIResponse{Success: true})
		}
	})
}

func newStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStore(api.NewClient(srv.URL, testLogger()), testLogger())
}

func TestLoadComputesTotal(t *testing.T) {
	fake := &fakeCart{items: []models.CartItem{
		{ID: "i1", Animal: models.Animal{ID: "a1", Price: 100}, Quantity: 2},
		{ID: "i2", Animal: models.Animal{ID: "a2", Price: 50}, Quantity: 1},
	}}
	store := newStore(t, fake.handler(t))

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.Total(); got != 250 {
		t.Errorf("Total() = %v, want 250", got)
	}
}

func TestRemoveRecomputesTotal(t *testing.T) {
	fake := &fakeCart{items: []models.CartItem{
		{ID: "i1", Animal: models.Animal{Price: 100}, Quantity: 2},
		{ID: "i2", Animal: models.Animal{Price: 50}, Quantity: 1},
	}}
	store := newStore(t, fake.handler(t))

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("seed load failed: %v", err)
	}
	if err := store.Remove(context.Background(), "i2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.Total(); got != 200 {
		t.Errorf("Total() after remove = %v, want 200", got)
	}
	items := store.Items()
	if len(items) != 1 || items[0].ID != "i1" {
		t.Errorf("Items() = %+v, want only i1", items)
	}
}

func TestAddRefetchesCart(t *testing.T) {
	fake := &fakeCart{}
	store := newStore(t, fake.handler(t))

	if err := store.Add(context.Background(), "a1", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The POST response is not a hydrated item; the follow-on refetch
	// is what brings the collection and total in line.
	items := store.Items()
	if len(items) != 1 || items[0].Animal.ID != "a1" || items[0].Quantity != 2 {
		t.Errorf("Items() = %+v, want the refetched item", items)
	}
	if got := store.Total(); got != 200 {
		t.Errorf("Total() = %v, want 200", got)
	}
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	fake := &fakeCart{}
	store := newStore(t, fake.handler(t))

	if err := store.Add(context.Background(), "a1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Errorf("Items() = %+v, want quantity defaulted to 1", items)
	}
}

func TestRemoveFailureLeavesStateUntouched(t *testing.T) {
	fake := &fakeCart{items: []models.CartItem{
		{ID: "i1", Animal: models.Animal{Price: 100}, Quantity: 1},
	}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Cart item not found"}`))
			return
		}
		fake.handler(t).ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	store := NewStore(api.NewClient(srv.URL, testLogger()), testLogger())

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("seed load failed: %v", err)
	}
	err := store.Remove(context.Background(), "i1")
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := api.ErrorMessage(err); msg != "Cart item not found" {
		t.Errorf("error message = %q, want server message", msg)
	}
	if len(store.Items()) != 1 || store.Total() != 100 {
		t.Errorf("state changed on failed remove: items=%+v total=%v", store.Items(), store.Total())
	}
}

func TestClearIsLocalOnly(t *testing.T) {
	requests := 0
	fake := &fakeCart{items: []models.CartItem{
		{ID: "i1", Animal: models.Animal{Price: 100}, Quantity: 1},
	}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fake.handler(t).ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	store := NewStore(api.NewClient(srv.URL, testLogger()), testLogger())

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("seed load failed: %v", err)
	}
	before := requests

	store.Clear()

	if requests != before {
		t.Error("Clear issued a network call; it must be a pure local reset")
	}
	if len(store.Items()) != 0 || store.Total() != 0 {
		t.Errorf("Clear left items=%+v total=%v", store.Items(), store.Total())
	}
}

// TestTotalInvariantRandomized drives random add/remove sequences and
// checks the derived total against a direct sum after every mutation.
func TestTotalInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	fake := &fakeCart{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(fake.items)
		case http.MethodPost:
			var req struct {
				AnimalID string `json:"animalId"`
				Quantity int    `json:"quantity"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			fake.items = append(fake.items, models.CartItem{
				ID:       req.AnimalID,
				Animal:   models.Animal{ID: req.AnimalID, Price: float64(rng.Intn(900)+100) / 10},
				Quantity: req.Quantity,
			})
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.APIResponse{Success: true})
		case http.MethodDelete:
			itemID := r.URL.Path[len("/cart/"):]
			for i := range fake.items {
				if fake.items[i].ID == itemID {
					fake.items = append(fake.items[:i], fake.items[i+1:]...)
					break
				}
			}
			json.NewEncoder(w).Encode(models.APIResponse{Success: true})
		}
	}))
	t.Cleanup(srv.Close)
	store := NewStore(api.NewClient(srv.URL, testLogger()), testLogger())

	checkInvariant := func(step int) {
		t.Helper()
		items := store.Items()
		var want float64
		for _, item := range items {
			want += item.Animal.Price * float64(item.Quantity)
		}
		if got := store.Total(); math.Abs(got-want) > 1e-9 {
			t.Fatalf("step %d: Total() = %v, want %v over %d items", step, got, want, len(items))
		}
	}

	nextID := 0
	for step := 0; step < 100; step++ {
		items := store.Items()
		if len(items) == 0 || rng.Intn(2) == 0 {
			nextID++
			id := fmt.Sprintf("animal-%d", nextID)
			if err := store.Add(context.Background(), id, rng.Intn(3)+1); err != nil {
				t.Fatalf("step %d: add failed: %v", step, err)
			}
		} else {
			victim := items[rng.Intn(len(items))]
			if err := store.Remove(context.Background(), victim.ID); err != nil {
				t.Fatalf("step %d: remove failed: %v", step, err)
			}
		}
		checkInvariant(step)
	}

	store.Clear()
	checkInvariant(-1)
}
