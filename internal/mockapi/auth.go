package mockapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/farmart/farmart-go/pkg/models"
)

// Claims is the bearer token payload the mock issues and verifies.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type contextKey struct{}

var userContextKey contextKey

func (s *Server) issueToken(user models.User) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}

// requireAuth verifies the bearer token, loads the user, and, when a
// role is given, checks it. The authenticated user rides the request
// context.
func (s *Server) requireAuth(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.respondWithError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) { return s.jwtKey, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			s.respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		record, ok := s.store.userByID(claims.UserID)
		if !ok {
			s.respondWithError(w, http.StatusUnauthorized, "Unknown user")
			return
		}

		if role != "" && record.Role != role {
			s.respondWithError(w, http.StatusForbidden, roleError(role))
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, record.User)))
	}
}

func roleError(role models.Role) string {
	if role == models.RoleFarmer {
		return "Only farmers can perform this action"
	}
	return "Only customers can perform this action"
}

func currentUser(r *http.Request) models.User {
	user, _ := r.Context().Value(userContextKey).(models.User)
	return user
}
