package auth

import (
	"errors"

	"github.com/farmart/farmart-go/pkg/models"
)

var (
	// ErrNotAuthenticated means no credential is held; views redirect
	// to login.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden means the session's role does not satisfy the
	// required one; views redirect home.
	ErrForbidden = errors.New("role not permitted")
)

// Guard gates view access on the session. The zero required role admits
// any authenticated user.
type Guard struct {
	session *Session
}

func NewGuard(session *Session) *Guard {
	return &Guard{session: session}
}

// Check allows access when a credential exists and, if required is
// non-empty, the session's role matches it.
func (g *Guard) Check(required models.Role) error {
	if !g.session.Authenticated() {
		return ErrNotAuthenticated
	}
	if required != "" && g.session.Role() != required {
		return ErrForbidden
	}
	return nil
}
