// Package mockapi is an in-memory stand-in for the Farmart REST API,
// used for local development and as the real-handler fixture in store
// tests. It implements the full external contract: auth, catalog,
// cart, orders, dashboard stats, and image upload.
package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/events"
	"github.com/farmart/farmart-go/pkg/models"
)

type Server struct {
	store  *Store
	hub    *events.Hub
	logger *logrus.Logger
	jwtKey []byte
	router *mux.Router
}

type Option func(*Server)

// WithHub attaches a live event feed; the server then serves /ws and
// broadcasts order and listing events.
func WithHub(hub *events.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

// WithJWTKey overrides the signing key (the default is fine for tests).
func WithJWTKey(key []byte) Option {
	return func(s *Server) { s.jwtKey = key }
}

func NewServer(logger *logrus.Logger, opts ...Option) *Server {
	s := &Server{
		store:  NewStore(),
		logger: logger,
		jwtKey: []byte("farmart-mock-dev-key"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")
	router.HandleFunc("/register", s.handleRegister).Methods("POST", "OPTIONS")
	router.HandleFunc("/login", s.handleLogin).Methods("POST", "OPTIONS")

	router.HandleFunc("/profile", s.requireAuth("", s.handleGetProfile)).Methods("GET", "OPTIONS")
	router.HandleFunc("/profile", s.requireAuth("", s.handleUpdateProfile)).Methods("PUT", "OPTIONS")
	router.HandleFunc("/change-password", s.requireAuth("", s.handleChangePassword)).Methods("PUT", "OPTIONS")

	router.HandleFunc("/animals", s.handleListAnimals).Methods("GET", "OPTIONS")
	router.HandleFunc("/animals", s.requireAuth(models.RoleFarmer, s.handleCreateAnimal)).Methods("POST", "OPTIONS")
	router.HandleFunc("/animals/{id}", s.requireAuth(models.RoleFarmer, s.handleUpdateAnimal)).Methods("PUT", "OPTIONS")
	router.HandleFunc("/animals/{id}", s.requireAuth(models.RoleFarmer, s.handleDeleteAnimal)).Methods("DELETE", "OPTIONS")

	router.HandleFunc("/cart", s.requireAuth(models.RoleCustomer, s.handleGetCart)).Methods("GET", "OPTIONS")
	router.HandleFunc("/cart", s.requireAuth(models.RoleCustomer, s.handleAddToCart)).Methods("POST", "OPTIONS")
	router.HandleFunc("/cart/{itemId}", s.requireAuth(models.RoleCustomer, s.handleRemoveFromCart)).Methods("DELETE", "OPTIONS")

	router.HandleFunc("/orders", s.requireAuth(models.RoleCustomer, s.handleCreateOrder)).Methods("POST", "OPTIONS")
	router.HandleFunc("/orders", s.requireAuth("", s.handleListOrders)).Methods("GET", "OPTIONS")
	router.HandleFunc("/orders/{id}/status", s.requireAuth(models.RoleFarmer, s.handleUpdateOrderStatus)).Methods("PUT", "OPTIONS")

	router.HandleFunc("/dashboard/stats", s.requireAuth("", s.handleDashboardStats)).Methods("GET", "OPTIONS")
	router.HandleFunc("/upload-image", s.requireAuth("", s.handleUploadImage)).Methods("POST", "OPTIONS")
	router.HandleFunc("/uploads/{name}", s.handleServeUpload).Methods("GET", "OPTIONS")

	if s.hub != nil {
		router.HandleFunc("/ws", s.hub.HandleWebSocket)
	}

	router.Use(s.corsMiddleware())
	router.Use(s.loggingMiddleware())
	s.router = router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "farmart-mock",
	})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, models.APIResponse{
		Success: false,
		Message: message,
	})
}

func (s *Server) broadcast(eventType string, payload interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(eventType, payload)
	}
}

func (s *Server) loggingMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).Milliseconds(),
			}).Debug("Request completed")
		})
	}
}

func (s *Server) corsMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
