package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/events"
	"github.com/farmart/farmart-go/pkg/models"
)

func (s *Server) handleListAnimals(w http.ResponseWriter, r *http.Request) {
	filter := parseAnimalFilter(r.URL.Query().Get)
	animals := s.store.listAnimals(filter)

	s.logger.WithField("count", len(animals)).Debug("Listed animals")
	s.respondWithJSON(w, http.StatusOK, animals)
}

func (s *Server) handleCreateAnimal(w http.ResponseWriter, r *http.Request) {
	var animal models.Animal
	if err := json.NewDecoder(r.Body).Decode(&animal); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if animal.Name == "" || animal.Type == "" || animal.Breed == "" {
		s.respondWithError(w, http.StatusBadRequest, "Name, type and breed are required")
		return
	}
	if animal.Price <= 0 {
		s.respondWithError(w, http.StatusBadRequest, "Price must be positive")
		return
	}

	farmer := currentUser(r)
	animal.Farmer = models.Farmer{
		ID:           farmer.ID,
		Name:         farmer.FirstName + " " + farmer.LastName,
		FarmName:     farmer.FarmName,
		FarmLocation: farmer.FarmLocation,
	}
	animal.Available = true
	if animal.HealthStatus == "" {
		animal.HealthStatus = "healthy"
	}
	if animal.VaccinationStatus == "" {
		animal.VaccinationStatus = "up_to_date"
	}

	created := s.store.createAnimal(animal)
	s.broadcast(events.TypeAnimalListed, created)

	s.logger.WithFields(logrus.Fields{
		"animal_id": created.ID,
		"farmer_id": farmer.ID,
	}).Info("Animal listed")
	s.respondWithJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAnimal(w http.ResponseWriter, r *http.Request) {
	animalID := mux.Vars(r)["id"]

	existing, ok := s.store.animalByID(animalID)
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "Animal not found")
		return
	}
	farmer := currentUser(r)
	if existing.Farmer.ID != farmer.ID {
		s.respondWithError(w, http.StatusForbidden, "You can only update your own animals")
		return
	}

	var updated models.Animal
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Identity and attribution are not client-writable.
	updated.ID = existing.ID
	updated.Farmer = existing.Farmer
	updated.CreatedAt = existing.CreatedAt
	if updated.HealthStatus == "" {
		updated.HealthStatus = existing.HealthStatus
	}
	if updated.VaccinationStatus == "" {
		updated.VaccinationStatus = existing.VaccinationStatus
	}

	s.store.replaceAnimal(updated)
	s.respondWithJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAnimal(w http.ResponseWriter, r *http.Request) {
	animalID := mux.Vars(r)["id"]

	existing, ok := s.store.animalByID(animalID)
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "Animal not found")
		return
	}
	farmer := currentUser(r)
	if existing.Farmer.ID != farmer.ID {
		s.respondWithError(w, http.StatusForbidden, "You can only delete your own animals")
		return
	}

	s.store.deleteAnimal(animalID)
	s.respondWithJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Animal deleted"})
}
