package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

func newStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStore(api.NewClient(srv.URL, testLogger()), testLogger())
}

func draft() models.OrderDraft {
	return models.OrderDraft{
		Items: []models.OrderDraftItem{{AnimalID: "a1", Quantity: 2}},
		ShippingAddress: models.ShippingAddress{
			Line1: "14 Riverside Drive",
			City:  "Nairobi",
		},
	}
}

func TestCreateAppendsServerOrder(t *testing.T) {
	served := models.Order{
		ID:          "o1",
		OrderNumber: "ORD-AB12CD34",
		CustomerID:  "u1",
		TotalAmount: 200,
		Status:      models.OrderPending,
	}
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(served)
	}))

	created, err := store.Create(context.Background(), draft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "o1" || created.Status != models.OrderPending {
		t.Errorf("created = %+v, want the server order", created)
	}

	got := store.Orders()
	if len(got) != 1 {
		t.Fatalf("orders list grew by %d entries, want exactly 1", len(got))
	}
	if got[0].ID != served.ID || got[0].TotalAmount != served.TotalAmount {
		t.Errorf("stored order = %+v, want equal to server response", got[0])
	}
}

func TestCreateFailureLeavesListUnchanged(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Animal not found"}`))
	}))

	_, err := store.Create(context.Background(), draft())
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := api.ErrorMessage(err); msg != "Animal not found" {
		t.Errorf("error message = %q, want the server-supplied string", msg)
	}
	if got := store.Orders(); len(got) != 0 {
		t.Errorf("orders list changed on failure: %+v", got)
	}
	if store.Err() != "Animal not found" {
		t.Errorf("Err() = %q, want server message", store.Err())
	}
}

func TestLoadReplacesCollection(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Order{
			{ID: "o2", Status: models.OrderConfirmed},
			{ID: "o1", Status: models.OrderPending},
		})
	}))

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := store.Orders()
	if len(got) != 2 || got[0].ID != "o2" || got[1].ID != "o1" {
		t.Errorf("Orders() = %+v, want served collection in order", got)
	}
}

func TestSetStatusReplacesByID(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]models.Order{
				{ID: "o1", Status: models.OrderPending},
				{ID: "o2", Status: models.OrderPending},
			})
		case http.MethodPut:
			gotPath = r.URL.Path
			json.NewDecoder(r.Body).Decode(&gotBody)
			json.NewEncoder(w).Encode(models.Order{ID: "o1", Status: models.OrderConfirmed})
		}
	}))

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("seed load failed: %v", err)
	}
	updated, err := store.SetStatus(context.Background(), "o1", models.OrderConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/orders/o1/status" {
		t.Errorf("path = %q, want /orders/o1/status", gotPath)
	}
	if gotBody["status"] != "confirmed" {
		t.Errorf("body status = %q, want confirmed", gotBody["status"])
	}
	if updated.Status != models.OrderConfirmed {
		t.Errorf("updated.Status = %q, want confirmed", updated.Status)
	}

	got := store.Orders()
	if got[0].Status != models.OrderConfirmed {
		t.Errorf("o1 status = %q, want replaced with confirmed", got[0].Status)
	}
	if got[1].Status != models.OrderPending {
		t.Errorf("o2 status = %q, want untouched", got[1].Status)
	}
}

// The store itself does not forbid a transition off a terminal status;
// no caller path exercises it (views only offer confirm/reject on
// pending orders) and the server rejects it. The store's job is only to
// forward the call and surface the rejection.
func TestSetStatusForwardsTerminalTransitionRejection(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]models.Order{{ID: "o1", Status: models.OrderConfirmed}})
		case http.MethodPut:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"Cannot update order status"}`))
		}
	}))

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("seed load failed: %v", err)
	}
	_, err := store.SetStatus(context.Background(), "o1", models.OrderRejected)
	if err == nil {
		t.Fatal("expected the server's rejection to propagate")
	}
	if msg := api.ErrorMessage(err); msg != "Cannot update order status" {
		t.Errorf("error message = %q, want server message", msg)
	}
	if got := store.Orders(); got[0].Status != models.OrderConfirmed {
		t.Errorf("local order mutated on rejected transition: %+v", got[0])
	}
}
