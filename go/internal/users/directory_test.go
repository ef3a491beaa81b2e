package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racecycles/go/internal/events"
	"github.com/mcdev12/racecycles/go/internal/kvstore"
	"github.com/mcdev12/racecycles/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*kvstore.Memory
	getErr error
	putErr error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Memory.Put(ctx, key, value)
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) Emit(ev events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("user_test%d", n)
	})
}

func loadedDirectory(t *testing.T, store kvstore.Store, opts ...Option) *Directory {
	t.Helper()
	d := NewDirectory(NewRepository(store, ""), nil, opts...)
	require.NoError(t, d.Load(context.Background()))
	return d
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*kvstore.Memory)
		store func(*kvstore.Memory) kvstore.Store
	}{
		{
			name: "missing key",
		},
		{
			name: "malformed json",
			setup: func(m *kvstore.Memory) {
				_ = m.Put(context.Background(), DefaultRosterKey, []byte(`{not json`))
			},
		},
		{
			name: "empty roster",
			setup: func(m *kvstore.Memory) {
				_ = m.Put(context.Background(), DefaultRosterKey, []byte(`[]`))
			},
		},
		{
			name: "null roster",
			setup: func(m *kvstore.Memory) {
				_ = m.Put(context.Background(), DefaultRosterKey, []byte(`null`))
			},
		},
		{
			name: "store read failure",
			store: func(m *kvstore.Memory) kvstore.Store {
				return &failingStore{Memory: m, getErr: errors.New("disk on fire")}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := kvstore.NewMemory()
			if tt.setup != nil {
				tt.setup(mem)
			}
			var store kvstore.Store = mem
			if tt.store != nil {
				store = tt.store(mem)
			}

			d := loadedDirectory(t, store)
			assert.Equal(t, DefaultUsers(), d.List())

			user, ok := d.Resolve("user2")
			require.True(t, ok)
			assert.Equal(t, "Jane Smith", user.Name)
		})
	}
}

func TestLoadUsesPersistedRoster(t *testing.T) {
	mem := kvstore.NewMemory()
	require.NoError(t, mem.Put(context.Background(), DefaultRosterKey,
		[]byte(`[{"id":"user_a","name":"Ada"},{"id":"user_b","name":"Bo"}]`)))

	d := loadedDirectory(t, mem)
	assert.Equal(t, []models.User{{ID: "user_a", Name: "Ada"}, {ID: "user_b", Name: "Bo"}}, d.List())

	_, ok := d.Resolve("user1")
	assert.False(t, ok)
}

func TestRegisterPersistsAndEmits(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	sink := &eventLog{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	d := NewDirectory(NewRepository(mem, ""), sink, WithClock(clock), sequentialIDs())
	require.NoError(t, d.Load(ctx))

	user, err := d.Register(ctx, "  Zoe  ")
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "user_test1", Name: "Zoe"}, user)

	list := d.List()
	require.Len(t, list, 4)
	assert.Equal(t, user, list[3])

	resolved, ok := d.Resolve(user.ID)
	require.True(t, ok)
	assert.Equal(t, "Zoe", resolved.Name)

	reloaded := loadedDirectory(t, mem)
	assert.Equal(t, list, reloaded.List())

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, events.EventTypeUserRegistered, ev.Type)
	assert.Equal(t, clock.Now(), ev.Timestamp)
	payload, err := events.ParseEventPayload(&ev)
	require.NoError(t, err)
	assert.Equal(t, `User "Zoe" registered successfully!`, payload.(events.UserRegisteredPayload).Message)
}

func TestRegisterRejectsBlankNames(t *testing.T) {
	d := loadedDirectory(t, kvstore.NewMemory())

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := d.Register(context.Background(), name)
		assert.ErrorIs(t, err, ErrEmptyName)
	}
	assert.Len(t, d.List(), 3)
}

func TestRegisterGeneratesDistinctIDs(t *testing.T) {
	d := loadedDirectory(t, kvstore.NewMemory())

	a, err := d.Register(context.Background(), "Zoe")
	require.NoError(t, err)
	b, err := d.Register(context.Background(), "Zoe")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Regexp(t, `^user_`, a.ID)
	assert.Len(t, d.List(), 5)
}

func TestRegisterRollsBackOnWriteFailure(t *testing.T) {
	store := &failingStore{Memory: kvstore.NewMemory(), putErr: errors.New("read-only")}
	sink := &eventLog{}
	d := NewDirectory(NewRepository(store, ""), sink, sequentialIDs())
	require.NoError(t, d.Load(context.Background()))

	_, err := d.Register(context.Background(), "Zoe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	assert.Equal(t, DefaultUsers(), d.List())
	_, ok := d.Resolve("user_test1")
	assert.False(t, ok)
	assert.Empty(t, sink.events)
}

func TestListReturnsCopy(t *testing.T) {
	d := loadedDirectory(t, kvstore.NewMemory())

	list := d.List()
	list[0].Name = "Mallory"

	user, ok := d.Resolve("user1")
	require.True(t, ok)
	assert.Equal(t, "John Doe", user.Name)
	assert.Equal(t, "John Doe", d.List()[0].Name)
}

func TestRepositoryUsesConfiguredKey(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	repo := NewRepository(mem, "otherRoster")

	require.NoError(t, repo.SaveRoster(ctx, []models.User{{ID: "x", Name: "X"}}))

	_, err := mem.Get(ctx, DefaultRosterKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	raw, err := mem.Get(ctx, "otherRoster")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"x","name":"X"}]`, string(raw))
}
