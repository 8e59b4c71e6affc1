// Package auth owns the authenticated session: the bearer credential
// and the minimal profile behind it, spanning login to logout or token
// loss. The Guard gates access to role-restricted views.
package auth

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/api"
	"github.com/farmart/farmart-go/pkg/models"
)

// RegisterRequest is the signup payload. Farm fields only apply to
// farmer registrations.
type RegisterRequest struct {
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Phone        string      `json:"phone,omitempty"`
	Role         models.Role `json:"role"`
	FarmName     string      `json:"farm_name,omitempty"`
	FarmLocation string      `json:"farm_location,omitempty"`
}

// ProfileUpdate is the PUT /profile payload; empty fields are left
// unchanged by the server.
type ProfileUpdate struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	FarmName     string `json:"farm_name,omitempty"`
	FarmLocation string `json:"farm_location,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Session holds the credential and profile and keeps the API client's
// bearer token in step with them.
type Session struct {
	client *api.Client
	logger *logrus.Logger

	mu     sync.RWMutex
	token  string
	user   models.User
	authed bool
}

func NewSession(client *api.Client, logger *logrus.Logger) *Session {
	return &Session{
		client: client,
		logger: logger,
	}
}

// Login exchanges credentials for a bearer token and profile. On
// success the token is installed on the API client so every subsequent
// call carries it.
func (s *Session) Login(ctx context.Context, email, password string) (models.User, error) {
	var resp models.LoginResponse
	if err := s.client.Post(ctx, "/login", credentials{Email: email, Password: password}, &resp); err != nil {
		s.logger.WithField("email", email).WithError(err).Warn("Login failed")
		return models.User{}, err
	}

	s.install(resp)
	s.logger.WithFields(logrus.Fields{
		"user_id": resp.User.ID,
		"role":    resp.User.Role,
	}).Info("Logged in")
	return resp.User, nil
}

// Register creates an account and logs it in with the token the server
// issues alongside the new profile.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	var resp models.LoginResponse
	if err := s.client.Post(ctx, "/register", req, &resp); err != nil {
		return models.User{}, err
	}

	s.install(resp)
	s.logger.WithFields(logrus.Fields{
		"user_id": resp.User.ID,
		"role":    resp.User.Role,
	}).Info("Registered")
	return resp.User, nil
}

func (s *Session) install(resp models.LoginResponse) {
	s.mu.Lock()
	s.token = resp.Token
	s.user = resp.User
	s.authed = true
	s.mu.Unlock()
	s.client.SetToken(resp.Token)
}

// Logout drops the credential from the session and the API client.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = models.User{}
	s.authed = false
	s.mu.Unlock()
	s.client.ClearToken()
	s.logger.Info("Logged out")
}

// Profile refetches the server-side profile and refreshes the held copy.
func (s *Session) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	if err := s.client.Get(ctx, "/profile", &user); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// UpdateProfile writes profile changes and applies the server's
// returned representation once confirmed.
func (s *Session) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.User, error) {
	var user models.User
	if err := s.client.Put(ctx, "/profile", update, &user); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.logger.WithField("user_id", user.ID).Info("Profile updated")
	return user, nil
}

// ChangePassword rotates the account password. The session and token
// stay valid.
func (s *Session) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := passwordChange{OldPassword: oldPassword, NewPassword: newPassword}
	return s.client.Put(ctx, "/change-password", body, nil)
}

// Authenticated reports whether a credential is held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authed
}

// User returns the profile held by the session.
func (s *Session) User() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Role returns the session's role, or "" when logged out.
func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authed {
		return ""
	}
	return s.user.Role
}

// Token returns the held bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
