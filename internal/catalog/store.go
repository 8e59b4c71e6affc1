// Package catalog holds the client-side view of the animal listings:
// the current collection, the active filter set, and the load state.
// The server is the system of record; the collection only changes after
// a confirmed server response, never optimistically.
package catalog

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/api"
	"github.com/farmart/farmart-go/pkg/models"
)

// Store is an explicitly constructed state container; callers inject
// the API client rather than reaching for a global.
type Store struct {
	client *api.Client
	logger *logrus.Logger

	mu      sync.RWMutex
	animals []models.Animal
	filters models.AnimalFilters
	loading bool
	errMsg  string
	loadSeq uint64
}

func NewStore(client *api.Client, logger *logrus.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

// Load fetches the listings matching the current filter set and
// replaces the whole collection on success. On failure the previous
// collection is left untouched and Err returns the server's message.
// A response belonging to a superseded call (a newer Load started while
// this one was in flight) is discarded so stale data never overwrites
// fresher state.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.loading = true
	s.errMsg = ""
	filters := s.filters
	s.mu.Unlock()

	path := "/animals"
	if query := filters.Query().Encode(); query != "" {
		path += "?" + query
	}

	var animals []models.Animal
	err := s.client.Get(ctx, path, &animals)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.loadSeq {
		s.logger.WithFields(logrus.Fields{
			"seq":    seq,
			"newest": s.loadSeq,
		}).Debug("Discarding stale catalog response")
		return err
	}

	s.loading = false
	if err != nil {
		s.errMsg = api.ErrorMessage(err)
		s.logger.WithError(err).Warn("Failed to load animals")
		return err
	}

	s.animals = animals
	s.logger.WithField("count", len(animals)).Debug("Catalog loaded")
	return nil
}

// SetFilters merges the patch into the current filter set. Unspecified
// keys keep their prior values. It never triggers a fetch; use
// ApplyFilters when the collection should follow.
func (s *Store) SetFilters(patch models.FilterPatch) {
	s.mu.Lock()
	s.filters = s.filters.Merge(patch)
	s.mu.Unlock()
}

// ClearFilters resets every key to its unconstrained default in one
// atomic update.
func (s *Store) ClearFilters() {
	s.mu.Lock()
	s.filters = models.AnimalFilters{}
	s.mu.Unlock()
}

// ApplyFilters merges the patch and immediately reloads the collection,
// so filter state and listings cannot drift apart.
func (s *Store) ApplyFilters(ctx context.Context, patch models.FilterPatch) error {
	s.SetFilters(patch)
	return s.Load(ctx)
}

// Add submits a new listing and appends the server's returned animal to
// the collection once confirmed.
func (s *Store) Add(ctx context.Context, draft models.Animal) (models.Animal, error) {
	var created models.Animal
	if err := s.client.Post(ctx, "/animals", draft, &created); err != nil {
		return models.Animal{}, err
	}

	s.mu.Lock()
	s.animals = append(s.animals, created)
	s.mu.Unlock()

	s.logger.WithField("animal_id", created.ID).Info("Animal listed")
	return created, nil
}

// Update rewrites a listing and replaces the local copy by id once the
// server confirms.
func (s *Store) Update(ctx context.Context, id string, draft models.Animal) (models.Animal, error) {
	var updated models.Animal
	if err := s.client.Put(ctx, "/animals/"+id, draft, &updated); err != nil {
		return models.Animal{}, err
	}

	s.mu.Lock()
	for i := range s.animals {
		if s.animals[i].ID == updated.ID {
			s.animals[i] = updated
			break
		}
	}
	s.mu.Unlock()

	s.logger.WithField("animal_id", id).Info("Animal updated")
	return updated, nil
}

// Delete removes a listing and drops it from the collection once the
// server confirms.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/animals/"+id, nil); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.animals[:0]
	for _, animal := range s.animals {
		if animal.ID != id {
			kept = append(kept, animal)
		}
	}
	s.animals = kept
	s.mu.Unlock()

	s.logger.WithField("animal_id", id).Info("Animal removed")
	return nil
}

// Animals returns a copy of the current collection.
func (s *Store) Animals() []models.Animal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Animal, len(s.animals))
	copy(out, s.animals)
	return out
}

// Filters returns the active filter set.
func (s *Store) Filters() models.AnimalFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Loading reports whether a Load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the server message from the most recent failed Load, or
// "" after a success or while a fresh Load is in flight.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}
