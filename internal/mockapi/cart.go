package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/farmart/farmart-go/pkg/models"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.respondWithJSON(w, http.StatusOK, s.store.cartItems(user.ID))
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnimalID string `json:"animalId"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity <= 0 {
		s.respondWithError(w, http.StatusBadRequest, "Quantity must be positive")
		return
	}

	animal, ok := s.store.animalByID(req.AnimalID)
	if !ok || !animal.Available {
		s.respondWithError(w, http.StatusNotFound, "Animal not found")
		return
	}

	user := currentUser(r)
	item := s.store.addCartItem(user.ID, animal, req.Quantity)

	s.logger.WithField("item_id", item.ID).Debug("Cart item added")
	s.respondWithJSON(w, http.StatusCreated, models.APIResponse{Success: true, Message: "Added to cart"})
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]
	user := currentUser(r)

	if !s.store.removeCartItem(user.ID, itemID) {
		s.respondWithError(w, http.StatusNotFound, "Cart item not found")
		return
	}
	s.respondWithJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Removed from cart"})
}
