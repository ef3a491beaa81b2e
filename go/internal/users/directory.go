package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racecycles/go/internal/events"
	"github.com/mcdev12/racecycles/go/internal/kvstore"
	"github.com/mcdev12/racecycles/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RosterRepository defines what the directory needs from the repository
type RosterRepository interface {
	LoadRoster(ctx context.Context) ([]models.User, error)
	SaveRoster(ctx context.Context, roster []models.User) error
}

// Directory owns the ordered roster of registered users.
type Directory struct {
	mu    sync.RWMutex
	repo  RosterRepository
	sink  events.Sink
	users []models.User
	index map[string]models.User
	clock clockwork.Clock
	newID func() string
}

// Option configures a Directory
type Option func(*Directory)

// WithClock sets the clock used to timestamp events
func WithClock(clock clockwork.Clock) Option {
	return func(d *Directory) { d.clock = clock }
}

// WithIDGenerator overrides how new user ids are minted
func WithIDGenerator(newID func() string) Option {
	return func(d *Directory) { d.newID = newID }
}

// NewDirectory creates a directory holding the default roster until Load is called.
func NewDirectory(repo RosterRepository, sink events.Sink, opts ...Option) *Directory {
	d := &Directory{
		repo:  repo,
		sink:  sink,
		clock: clockwork.NewRealClock(),
		newID: func() string { return "user_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(d)
	}
	d.replace(DefaultUsers())
	return d
}

// Load reads the persisted roster. A missing, unreadable, malformed or empty
// roster leaves the defaults in place; read problems are logged, not returned.
func (d *Directory) Load(ctx context.Context) error {
	roster, err := d.repo.LoadRoster(ctx)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		log.Info().Msg("no persisted roster, using defaults")
		roster = DefaultUsers()
	case err != nil:
		log.Warn().Err(err).Msg("failed to load roster, using defaults")
		roster = DefaultUsers()
	case len(roster) == 0:
		log.Info().Msg("persisted roster is empty, using defaults")
		roster = DefaultUsers()
	}

	d.mu.Lock()
	d.replace(roster)
	d.mu.Unlock()

	log.Info().Int("users", len(roster)).Msg("roster loaded")
	return nil
}

// Register appends a user with a fresh id and persists the full roster.
// On a write failure the roster is left unchanged and the error is returned.
func (d *Directory) Register(ctx context.Context, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, ErrEmptyName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	user := models.User{ID: d.newID(), Name: name}
	roster := make([]models.User, len(d.users), len(d.users)+1)
	copy(roster, d.users)
	roster = append(roster, user)

	if err := d.repo.SaveRoster(ctx, roster); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to persist new user")
		return models.User{}, fmt.Errorf("register user: %w", err)
	}
	d.replace(roster)

	d.emit(user)
	log.Info().Str("user_id", user.ID).Str("name", user.Name).Msg("user registered")
	return user, nil
}

// List returns a copy of the roster in insertion order.
func (d *Directory) List() []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.User, len(d.users))
	copy(out, d.users)
	return out
}

// Resolve looks up a user by id
func (d *Directory) Resolve(userID string) (models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.index[userID]
	return user, ok
}

// replace swaps in a new roster. Callers hold mu, except during construction.
func (d *Directory) replace(roster []models.User) {
	index := make(map[string]models.User, len(roster))
	for _, u := range roster {
		if _, dup := index[u.ID]; !dup {
			index[u.ID] = u
		}
	}
	d.users = roster
	d.index = index
}

func (d *Directory) emit(user models.User) {
	if d.sink == nil {
		return
	}
	ev, err := events.New(events.EventTypeUserRegistered, 0, d.clock.Now(), events.UserRegisteredPayload{
		UserID:  user.ID,
		Name:    user.Name,
		Message: fmt.Sprintf("User \"%s\" registered successfully!", user.Name),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build user registered event")
		return
	}
	d.sink.Emit(ev)
}
