// Package stats holds the role-sensitive dashboard summary behind
// GET /dashboard/stats.
package stats

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/api"
	"github.com/farmart/farmart-go/pkg/models"
)

type Store struct {
	client *api.Client
	logger *logrus.Logger

	mu      sync.RWMutex
	stats   models.DashboardStats
	loading bool
	errMsg  string
}

func NewStore(client *api.Client, logger *logrus.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

// Load replaces the held stats with the server's current summary. On
// failure the previous stats are untouched.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	var stats models.DashboardStats
	err := s.client.Get(ctx, "/dashboard/stats", &stats)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = api.ErrorMessage(err)
		s.logger.WithError(err).Warn("Failed to load dashboard stats")
		return err
	}

	s.stats = stats
	return nil
}

func (s *Store) Stats() models.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}
