package users

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/racecycles/go/internal/kvstore"
	"github.com/mcdev12/racecycles/go/internal/models"
)

// Repository reads and writes the whole roster as one JSON array under a single key
type Repository struct {
	store kvstore.Store
	key   string
}

// NewRepository creates a new roster repository
func NewRepository(store kvstore.Store, key string) *Repository {
	if key == "" {
		key = DefaultRosterKey
	}
	return &Repository{
		store: store,
		key:   key,
	}
}

// LoadRoster returns the persisted roster. A missing key yields kvstore.ErrNotFound.
func (r *Repository) LoadRoster(ctx context.Context) ([]models.User, error) {
	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var roster []models.User
	if err := json.Unmarshal(raw, &roster); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	return roster, nil
}

// SaveRoster replaces the persisted roster
func (r *Repository) SaveRoster(ctx context.Context, roster []models.User) error {
	raw, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	if err := r.store.Put(ctx, r.key, raw); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	return nil
}
