package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/smartqpanel/internal/adapter/driven/api"
	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// fakeCreds is an in-memory CredentialProvider.
type fakeCreds struct {
	mu      sync.Mutex
	access  string
	refresh string
	state   model.SessionState
	cleared int
}

func (f *fakeCreds) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeCreds) RefreshToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh, nil
}

func (f *fakeCreds) SetAccess(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = token
	f.state = model.SessionAuthorized
}

func (f *fakeCreds) MarkRefreshPending() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = model.SessionRefreshPending
}

func (f *fakeCreds) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access, f.refresh = "", ""
	f.state = model.SessionUnauthorized
	f.cleared++
	return nil
}

func (f *fakeCreds) State() model.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// newTestClient creates a Client backed by the given handler.
func newTestClient(t *testing.T, handler http.Handler, creds *fakeCreds) *api.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := api.NewClientWithHTTPClient(server.Client(), server.URL, creds, nil)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_RejectsRelativeBaseURL(t *testing.T) {
	_, err := api.NewClient("/api", &fakeCreds{}, time.Second, nil)
	require.Error(t, err)
}

func TestFetchCollection_DecodesResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /inventory/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(api.RequestIDHeader))
		writeJSON(w, http.StatusOK, map[string]any{
			"results": []map[string]any{
				{"id": 1, "name": "Rice", "quantity": 10},
				{"id": 2, "name": "Beans", "quantity": 0},
			},
		})
	})

	client := newTestClient(t, mux, &fakeCreds{access: "access-1"})

	var items []model.InventoryItem
	require.NoError(t, client.FetchCollection(context.Background(), "/inventory/", nil, &items))
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "Beans", items[1].Name)
}

func TestFetchCollection_MissingResultsIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "no results key", body: `{"count": 0}`},
		{name: "null results", body: `{"results": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}), &fakeCreds{})

			var outlets []model.Outlet
			require.NoError(t, client.FetchCollection(context.Background(), "/outlets/", nil, &outlets))
			assert.NotNil(t, outlets)
			assert.Empty(t, outlets)
		})
	}
}

func TestFetchCollection_UndecodableIsUnexpected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"results": "nope"}`)
	}), &fakeCreds{})

	var outlets []model.Outlet
	err := client.FetchCollection(context.Background(), "/outlets/", nil, &outlets)

	var ue *driven.UnexpectedError
	require.ErrorAs(t, err, &ue)
}

func TestAccessTokenReadAtRequestTime(t *testing.T) {
	var seen []string
	var mu sync.Mutex

	creds := &fakeCreds{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{})
	}), creds)

	ctx := context.Background()
	require.NoError(t, client.FetchObject(ctx, "/dashboard/stats/", nil))
	creds.SetAccess("later")
	require.NoError(t, client.FetchObject(ctx, "/dashboard/stats/", nil))

	assert.Equal(t, []string{"", "Bearer later"}, seen)
}

func TestUpdateAndDeletePaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}), &fakeCreds{access: "a"})

	ctx := context.Background()

	var out model.Outlet
	payload := model.Outlet{ID: 3, Name: "Lekki Branch", Location: "Lagos"}
	require.NoError(t, client.UpdateEntity(ctx, "/outlets/", 3, payload, &out))
	assert.Equal(t, payload, out)

	require.NoError(t, client.DeleteEntity(ctx, "/outlets/", 5))

	assert.Equal(t, []string{"PUT /outlets/3", "DELETE /outlets/5/"}, paths)
}

func TestTwoConsecutive401s_OneRefreshOneReplay(t *testing.T) {
	var inventoryCalls, refreshCalls atomic.Int32
	var replayAuth atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("GET /inventory/", func(w http.ResponseWriter, r *http.Request) {
		if inventoryCalls.Add(1) == 2 {
			replayAuth.Store(r.Header.Get("Authorization"))
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refresh"])
		writeJSON(w, http.StatusOK, map[string]string{"access": "access-2"})
	})

	creds := &fakeCreds{access: "access-1", refresh: "refresh-1"}
	client := newTestClient(t, mux, creds)

	var items []model.InventoryItem
	err := client.FetchCollection(context.Background(), "/inventory/", nil, &items)

	var httpErr *driven.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.False(t, driven.IsSessionExpired(err))

	assert.Equal(t, int32(1), refreshCalls.Load(), "exactly one refresh")
	assert.Equal(t, int32(2), inventoryCalls.Load(), "original plus one replay")
	assert.Equal(t, "Bearer access-2", replayAuth.Load())
	assert.Equal(t, "access-2", creds.AccessToken())
	assert.Zero(t, creds.cleared)
}

func TestRefreshSuccess_ReplaysIdenticalBody(t *testing.T) {
	var bodies []string
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /outlets/3", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	})

	creds := &fakeCreds{access: "stale", refresh: "r"}
	client := newTestClient(t, mux, creds)

	var out model.Outlet
	err := client.UpdateEntity(context.Background(), "/outlets/", 3,
		model.Outlet{ID: 3, Name: "Lekki Branch", Location: "Lagos"}, &out)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.JSONEq(t, bodies[0], bodies[1])
	assert.Equal(t, "Lekki Branch", out.Name)
	assert.Equal(t, model.SessionAuthorized, creds.State())
}

func TestRefreshFailure_SessionExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted"})
	})

	creds := &fakeCreds{access: "a", refresh: "revoked"}
	client := newTestClient(t, mux, creds)

	var hookCalls int
	client.OnSessionExpired(func() { hookCalls++ })

	var users []model.User
	err := client.FetchCollection(context.Background(), "/users/", nil, &users)

	require.True(t, driven.IsSessionExpired(err))
	var httpErr *driven.HTTPError
	require.ErrorAs(t, err, &httpErr, "refresh failure is wrapped")
	assert.True(t, httpErr.AuthFailure)

	assert.Equal(t, 1, creds.cleared)
	assert.Equal(t, 1, hookCalls)
	assert.Equal(t, model.SessionUnauthorized, creds.State())
}

func TestCallerCancelledDuringRefresh_KeepsSession(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /inventory/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, _ *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	})

	creds := &fakeCreds{access: "stale", refresh: "r"}
	client := newTestClient(t, mux, creds)

	var hookCalls atomic.Int32
	client.OnSessionExpired(func() { hookCalls.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var items []model.InventoryItem
	err := client.FetchCollection(ctx, "/inventory/", nil, &items)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, driven.IsSessionExpired(err))

	// The detached refresh still completes and stores the new credential.
	assert.Eventually(t, func() bool { return creds.AccessToken() == "fresh" }, 2*time.Second, 10*time.Millisecond)

	refresh, _ := creds.RefreshToken(context.Background())
	assert.Equal(t, "r", refresh)
	creds.mu.Lock()
	assert.Zero(t, creds.cleared)
	creds.mu.Unlock()
	assert.Zero(t, hookCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, model.SessionAuthorized, creds.State())
}

func TestNoRefreshCredential_SessionExpiredWithoutRefreshCall(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sales/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, _ *http.Request) {
		refreshCalls.Add(1)
	})

	creds := &fakeCreds{access: "a"}
	client := newTestClient(t, mux, creds)

	var sales []model.Sale
	err := client.FetchCollection(context.Background(), "/sales/", nil, &sales)

	require.ErrorIs(t, err, driven.ErrNoRefreshCredential)
	assert.True(t, driven.IsSessionExpired(err))
	assert.Zero(t, refreshCalls.Load())
}

func TestLogin401_NeverRefreshes(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, _ *http.Request) {
		refreshCalls.Add(1)
	})

	client := newTestClient(t, mux, &fakeCreds{access: "old", refresh: "r"})

	_, err := client.Login(context.Background(), model.LoginRequest{Username: "u", Password: "secret"})

	var httpErr *driven.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.True(t, httpErr.AuthFailure)
	assert.Equal(t, "No active account found with the given credentials", httpErr.Message)
	assert.Zero(t, refreshCalls.Load())
}

func TestLogin_DecodesTokensAndProfile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "manager1", req.Username)
		writeJSON(w, http.StatusOK, map[string]any{
			"tokens": map[string]string{"access": "a1", "refresh": "r1"},
			"user":   map[string]any{"id": 7, "username": "manager1", "role": "manager"},
		})
	}), &fakeCreds{})

	res, err := client.Login(context.Background(), model.LoginRequest{Username: "manager1", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, model.CredentialPair{Access: "a1", Refresh: "r1"}, res.Tokens)
	assert.Equal(t, model.RoleManager, res.User.Role)
}

func TestConcurrent401s_CoalesceOntoOneRefresh(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, _ *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	})

	client := newTestClient(t, mux, &fakeCreds{access: "stale", refresh: "r"})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var cats []model.Category
			errs <- client.FetchCollection(context.Background(), "/categories/", nil, &cats)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestHTTPError_MessageFromFieldErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"name": []string{"This field may not be blank."}})
	}), &fakeCreds{access: "a"})

	err := client.CreateEntity(context.Background(), "/categories/", model.NewCategory{}, nil)

	var httpErr *driven.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "name: This field may not be blank.", httpErr.Message)
	assert.Equal(t, http.StatusBadRequest, driven.StatusOf(err))
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := api.NewClientWithHTTPClient(&http.Client{Timeout: time.Second}, url, &fakeCreds{}, nil)
	require.NoError(t, err)

	err = client.FetchObject(context.Background(), "/dashboard/stats/", nil)

	var netErr *driven.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.False(t, errors.Is(err, driven.ErrNoRefreshCredential))
}

func TestWriteInvalidatesCachedReads(t *testing.T) {
	var reads atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories/", func(w http.ResponseWriter, _ *http.Request) {
		reads.Add(1)
		w.Header().Set("Cache-Control", "max-age=300")
		writeJSON(w, http.StatusOK, map[string]any{"results": []map[string]any{{"id": 1, "name": "Grains"}}})
	})
	mux.HandleFunc("POST /categories/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 2, "name": "Oils"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL, &fakeCreds{}, 5*time.Second, nil)
	require.NoError(t, err)

	ctx := context.Background()
	var cats []model.Category

	require.NoError(t, client.FetchCollection(ctx, "/categories/", nil, &cats))
	require.NoError(t, client.FetchCollection(ctx, "/categories/", nil, &cats))
	assert.Equal(t, int32(1), reads.Load(), "second read served from cache")
	assert.Equal(t, 1, client.Cache().Len())

	var created model.Category
	require.NoError(t, client.CreateEntity(ctx, "/categories/", model.NewCategory{Name: "Oils"}, &created))
	assert.Equal(t, int64(2), created.ID)
	assert.Zero(t, client.Cache().Len())

	require.NoError(t, client.FetchCollection(ctx, "/categories/", nil, &cats))
	assert.Equal(t, int32(2), reads.Load())
}
