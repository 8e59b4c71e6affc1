package mockapi

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmart/farmart-go/internal/auth"
	"github.com/farmart/farmart-go/pkg/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		s.respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if len(req.Password) < 6 {
		s.respondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	if req.Role != models.RoleFarmer && req.Role != models.RoleCustomer {
		s.respondWithError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	}
	if req.Role == models.RoleFarmer {
		user.FarmName = req.FarmName
		user.FarmLocation = req.FarmLocation
	}

	created, ok := s.store.createUser(user, string(hash))
	if !ok {
		s.respondWithError(w, http.StatusConflict, "Email already registered")
		return
	}

	token, err := s.issueToken(created)
	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	s.logger.WithField("user_id", created.ID).Info("User registered")
	s.respondWithJSON(w, http.StatusCreated, models.LoginResponse{Token: token, User: created})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, ok := s.store.userByEmail(creds.Email)
	if !ok {
		s.respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(creds.Password)); err != nil {
		s.respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.issueToken(record.User)
	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	s.logger.WithField("user_id", record.ID).Info("User logged in")
	s.respondWithJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: record.User})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update auth.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := currentUser(r)
	updated, ok := s.store.updateUser(user.ID, func(record *userRecord) {
		if update.FirstName != "" {
			record.FirstName = update.FirstName
		}
		if update.LastName != "" {
			record.LastName = update.LastName
		}
		if update.Phone != "" {
			record.Phone = update.Phone
		}
		if update.ProfileImage != "" {
			record.ProfileImage = update.ProfileImage
		}
		if record.Role == models.RoleFarmer {
			if update.FarmName != "" {
				record.FarmName = update.FarmName
			}
			if update.FarmLocation != "" {
				record.FarmLocation = update.FarmLocation
			}
		}
	})
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	s.respondWithJSON(w, http.StatusOK, updated)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.NewPassword) < 6 {
		s.respondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	user := currentUser(r)
	record, ok := s.store.userByID(user.ID)
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(req.OldPassword)); err != nil {
		s.respondWithError(w, http.StatusUnauthorized, "Incorrect current password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	s.store.updateUser(user.ID, func(record *userRecord) {
		record.PasswordHash = string(hash)
	})

	s.respondWithJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Password changed"})
}
