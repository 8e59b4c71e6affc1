package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/events"
	"github.com/farmart/farmart-go/pkg/models"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var draft models.OrderDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(draft.Items) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "Order must contain at least one item")
		return
	}

	// Line items are priced server-side from the current listings so a
	// stale client snapshot cannot set the total.
	items := make([]models.OrderItem, 0, len(draft.Items))
	var total float64
	for _, line := range draft.Items {
		if line.Quantity <= 0 {
			s.respondWithError(w, http.StatusBadRequest, "Quantity must be positive")
			return
		}
		animal, ok := s.store.animalByID(line.AnimalID)
		if !ok || !animal.Available {
			s.respondWithError(w, http.StatusNotFound, "Animal not found")
			return
		}
		items = append(items, models.OrderItem{
			AnimalID:   animal.ID,
			AnimalName: animal.Name,
			Quantity:   line.Quantity,
			UnitPrice:  animal.Price,
			FarmerID:   animal.Farmer.ID,
		})
		total += animal.Price * float64(line.Quantity)
	}

	user := currentUser(r)
	created := s.store.createOrder(models.Order{
		CustomerID:      user.ID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: draft.ShippingAddress,
		Status:          models.OrderPending,
	})

	// Checkout consumes the server-side cart.
	s.store.clearCart(user.ID)
	s.broadcast(events.TypeOrderCreated, created)

	s.logger.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"customer_id":  created.CustomerID,
		"total_amount": created.TotalAmount,
		"items_count":  len(created.Items),
	}).Info("Order created")
	s.respondWithJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	orders := s.store.ordersFor(user)

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
		"count":   len(orders),
	}).Debug("Listed orders")
	s.respondWithJSON(w, http.StatusOK, orders)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != models.OrderConfirmed && req.Status != models.OrderRejected {
		s.respondWithError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	order, ok := s.store.orderByID(orderID)
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	farmer := currentUser(r)
	if !orderHasFarmer(&order, farmer.ID) {
		s.respondWithError(w, http.StatusForbidden, "You can only update orders for your own animals")
		return
	}
	if order.Status != models.OrderPending {
		s.respondWithError(w, http.StatusBadRequest, "Cannot update order status")
		return
	}

	order.Status = req.Status
	s.store.replaceOrder(order)
	s.broadcast(events.TypeOrderStatusChanged, order)

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("Order status updated")
	s.respondWithJSON(w, http.StatusOK, order)
}
