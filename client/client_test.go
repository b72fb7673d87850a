package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/modules/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI accepts one access token at a time and rotates it on refresh.
type fakeAPI struct {
	mu            sync.Mutex
	validAccess   string
	validRefresh  string
	refreshFails  bool
	alwaysDeny    bool
	refreshDelay  time.Duration
	refreshCalls  atomic.Int32
	protectedHits atomic.Int32
	generation    int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  f.validAccess,
			"refresh_token": f.validRefresh,
			"token_type":    "Bearer",
		})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		time.Sleep(f.refreshDelay)

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.refreshFails || body["refresh_token"] != f.validRefresh {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "Invalid or expired refresh token"})
			return
		}
		f.generation++
		f.validAccess = "access-" + string(rune('a'+f.generation))
		f.validRefresh = "refresh-" + string(rune('a'+f.generation))
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  f.validAccess,
			"refresh_token": f.validRefresh,
			"token_type":    "Bearer",
		})
	})
	mux.HandleFunc("/dashboard/statistics", func(w http.ResponseWriter, r *http.Request) {
		f.protectedHits.Add(1)
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "Invalid or expired token"})
			return
		}
		writeJSON(w, http.StatusOK, domain.Statistics{TotalTasks: 3, CompletedTasks: 1, CompletionRate: 33})
	})
	return mux
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.alwaysDeny && r.Header.Get("Authorization") == "Bearer "+f.validAccess
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	c := New(server.URL)
	c.Tokens().Set(Tokens{AccessToken: "expired", RefreshToken: api.validRefresh})
	return c
}

func TestClient_RefreshesOnceAndRetries(t *testing.T) {
	api := &fakeAPI{validAccess: "access-a", validRefresh: "refresh-a"}
	c := newTestClient(t, api)

	stats, err := c.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTasks)

	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(2), api.protectedHits.Load())
	assert.Equal(t, "access-b", c.Tokens().Get().AccessToken)
}

func TestClient_RefreshFailureClearsSession(t *testing.T) {
	api := &fakeAPI{validAccess: "access-a", validRefresh: "refresh-a", refreshFails: true}
	c := newTestClient(t, api)

	_, err := c.Statistics(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "session expired, please sign in again", err.Error())

	assert.False(t, c.Tokens().LoggedIn())
	assert.Equal(t, int32(1), api.protectedHits.Load(), "the original call must not be retried")
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestClient_RetriesAtMostOnce(t *testing.T) {
	api := &fakeAPI{validAccess: "access-a", validRefresh: "refresh-a", alwaysDeny: true}
	c := newTestClient(t, api)

	_, err := c.Statistics(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(2), api.protectedHits.Load())
}

func TestClient_ConcurrentCallsShareOneRefresh(t *testing.T) {
	api := &fakeAPI{validAccess: "access-a", validRefresh: "refresh-a", refreshDelay: 50 * time.Millisecond}
	c := newTestClient(t, api)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Statistics(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.LessOrEqual(t, api.protectedHits.Load(), int32(2*callers))
}

func TestClient_NoRefreshTokenExpiresSession(t *testing.T) {
	api := &fakeAPI{validAccess: "access-a", validRefresh: "refresh-a"}
	c := newTestClient(t, api)
	c.Tokens().Set(Tokens{AccessToken: "expired"})

	_, err := c.Statistics(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
}

func TestClient_LoginStoresTokens(t *testing.T) {
	api := &fakeAPI{validAccess: "access-a", validRefresh: "refresh-a"}
	c := newTestClient(t, api)
	c.Tokens().Clear()

	_, err := c.Login(context.Background(), "a@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: "access-a", RefreshToken: "refresh-a"}, c.Tokens().Get())

	_, err = c.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
}

func TestListQuery_Values(t *testing.T) {
	q := ListQuery{
		Filter: domain.Filter{
			Status: domain.StatusFilterPending,
			Tags:   []string{"work", "home"},
			Search: "report",
		},
		SortBy:  "due_date",
		SortDir: "desc",
		Page:    1,
		Size:    task.MaxPageSize,
	}

	encoded := q.values().Encode()
	for _, want := range []string{"status=pending", "tags=work%2Chome", "search=report", "sort_by=due_date", "sort_dir=desc", "page=1", "size=100"} {
		assert.True(t, strings.Contains(encoded, want), "%s missing from %s", want, encoded)
	}
	assert.NotContains(t, encoded, "priority=")
}
