package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racecycles/go/internal/kvstore"
	"github.com/mcdev12/racecycles/go/internal/models"
	"github.com/mcdev12/racecycles/go/internal/race"
	"github.com/mcdev12/racecycles/go/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(t *testing.T, health HealthChecker) http.Handler {
	t.Helper()
	dir := users.NewDirectory(users.NewRepository(kvstore.NewMemory(), ""), nil)
	require.NoError(t, dir.Load(context.Background()))

	mgr := race.NewManager(race.Config{
		Clock: clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		Rates: race.FixedRate(0.5),
	}, dir, nil)
	t.Cleanup(mgr.Close)

	r := chi.NewRouter()
	NewHandler(dir, mgr, health).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"foo": "bar"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "bar", decode[map[string]string](t, w)["foo"])
}

func TestListAndRegisterUsers(t *testing.T) {
	h := newTestRouter(t, nil)

	w := do(t, h, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, users.DefaultUsers(), decode[[]models.User](t, w))

	w = do(t, h, http.MethodPost, "/api/users", `{"name":" Zoe "}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.User](t, w)
	assert.Equal(t, "Zoe", created.Name)
	assert.True(t, strings.HasPrefix(created.ID, "user_"))

	w = do(t, h, http.MethodGet, "/api/users", "")
	assert.Len(t, decode[[]models.User](t, w), 4)
}

func TestRegisterUserErrors(t *testing.T) {
	h := newTestRouter(t, nil)

	w := do(t, h, http.MethodPost, "/api/users", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindEmptyName, decode[ErrorResponse](t, w).Error)

	w = do(t, h, http.MethodPost, "/api/users", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindBadRequest, decode[ErrorResponse](t, w).Error)
}

func TestStationLifecycle(t *testing.T) {
	h := newTestRouter(t, nil)

	w := do(t, h, http.MethodGet, "/api/stations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Station](t, w), race.NumStations)

	w = do(t, h, http.MethodPut, "/api/stations/3/assignment", `{"user_id":"user2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[models.Station](t, w)
	assert.Equal(t, "Jane Smith's Cycle", st.DisplayName)

	w = do(t, h, http.MethodPost, "/api/stations/3/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	st = decode[models.Station](t, w)
	assert.Equal(t, models.StationStatusRunning, st.Status)
	require.NotNil(t, st.Race)
	assert.Equal(t, "00:00", st.Race.Duration)

	w = do(t, h, http.MethodPost, "/api/stations/3/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, KindAlreadyRunning, decode[ErrorResponse](t, w).Error)

	w = do(t, h, http.MethodPost, "/api/stations/3/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StationStatusIdle, decode[models.Station](t, w).Status)

	w = do(t, h, http.MethodPost, "/api/stations/3/stop", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, KindNotRunning, decode[ErrorResponse](t, w).Error)

	w = do(t, h, http.MethodPut, "/api/stations/3/assignment", `{"user_id":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	st = decode[models.Station](t, w)
	assert.Nil(t, st.AssignedUserID)
	assert.Equal(t, "Cycle 3", st.DisplayName)
}

func TestStationErrors(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		status int
		kind   string
	}{
		{http.MethodGet, "/api/stations/9", "", http.StatusNotFound, KindInvalidStation},
		{http.MethodGet, "/api/stations/0", "", http.StatusNotFound, KindInvalidStation},
		{http.MethodGet, "/api/stations/abc", "", http.StatusNotFound, KindInvalidStation},
		{http.MethodPost, "/api/stations/1/start", "", http.StatusConflict, KindNoUserAssigned},
		{http.MethodPost, "/api/stations/12/stop", "", http.StatusNotFound, KindInvalidStation},
		{http.MethodPut, "/api/stations/2/assignment", "{", http.StatusBadRequest, KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.kind, decode[ErrorResponse](t, w).Error)
		})
	}
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t, pingFunc(func(context.Context) error { return nil })), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])

	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	w = do(t, newTestRouter(t, down), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode[map[string]string](t, w)["status"])
}
