package user

import (
	"context"
	"errors"
	"io/fs"
	"maps"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"neoslink/internal/pkg/errs"
	"neoslink/internal/pkg/logx"
)

// Store persists the complete registered-user mapping.
type Store interface {
	// Load returns the stored mapping. A store that was never written
	// returns an error wrapping fs.ErrNotExist.
	Load(ctx context.Context) (map[string]User, error)

	// Save replaces the stored mapping with users.
	Save(ctx context.Context, users map[string]User) error
}

// Registry maps external IDs to registered users.
type Registry struct {
	store Store

	// users is the in-memory copy of the store.
	users map[string]User

	// mu guards users and serializes Save calls so disk order matches memory order.
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewRegistry returns an empty registry persisted through store.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store:  store,
		users:  make(map[string]User),
		logger: logx.Component("Registry"),
	}
}

// Load replaces the in-memory mapping with the stored one.
// A missing or unreadable store leaves the registry empty and is only logged.
func (r *Registry) Load(ctx context.Context) {
	r.logger.Info().Msg("Fetching known users")

	users, err := r.store.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Error().Err(err).Msg("Registered users store not found. Starting empty.")
		r.users = make(map[string]User)
	case err != nil:
		r.logger.Error().Err(err).Msg("Registered users store unreadable. Starting empty.")
		r.users = make(map[string]User)
	default:
		if users == nil {
			users = make(map[string]User)
		}
		r.users = users
		r.logger.Info().Int("count", len(users)).Msg("Registered users loaded")
	}
}

// Register binds externalID to u and persists the full mapping.
// An ID without ExternalIDPrefix fails with ErrBadFormat and changes nothing.
// A failed save returns ErrPersistence; the in-memory entry is kept.
func (r *Registry) Register(ctx context.Context, externalID string, u User) error {
	if !strings.HasPrefix(externalID, ExternalIDPrefix) {
		return errs.NewError(errs.ErrBadFormat)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[externalID] = u
	r.logger.Info().
		Str("external_id", externalID).
		Str("display_name", u.DisplayName).
		Msg("Adding user to known players list")

	if err := r.store.Save(ctx, maps.Clone(r.users)); err != nil {
		r.logger.Error().Err(err).Str("external_id", externalID).Msg("Failed to persist registered users")
		return errs.Wrap(errs.ErrPersistence, err)
	}

	return nil
}

// Lookup returns the user registered under externalID.
func (r *Registry) Lookup(externalID string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[externalID]
	return u, ok
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users)
}
