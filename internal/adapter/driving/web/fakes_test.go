package web_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/smartqpanel/internal/application"
	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// --- Mock implementations ---

// fakeAPI is an in-memory driven.BackOfficeAPI. Values are round-tripped
// through JSON so decoding matches the real client.
type fakeAPI struct {
	mu          sync.Mutex
	collections map[string]any
	objects     map[string]any
	fetchErr    map[string]error

	updates  []string
	updateFn func(endpoint string, id int64, payload any) (any, error)

	deleteFn  func(endpoint string, id int64) error
	creates   []any
	createErr error

	loginErr error
	logouts  int

	// onExpired runs when a call fails with a SessionExpiredError, the way
	// the real client signs the session out before returning.
	onExpired func(ctx context.Context)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		collections: make(map[string]any),
		objects:     make(map[string]any),
		fetchErr:    make(map[string]error),
	}
}

func (f *fakeAPI) set(endpoint string, rows any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[endpoint] = rows
}

func (f *fakeAPI) failFetch(endpoint string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr[endpoint] = err
}

func roundTrip(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// expired reports err, running onExpired first when it is a lost session.
func (f *fakeAPI) expired(ctx context.Context, err error) error {
	f.mu.Lock()
	hook := f.onExpired
	f.mu.Unlock()
	if hook != nil && driven.IsSessionExpired(err) {
		hook(ctx)
	}
	return err
}

func (f *fakeAPI) FetchCollection(ctx context.Context, endpoint string, _ url.Values, out any) error {
	f.mu.Lock()
	err, rows := f.fetchErr[endpoint], f.collections[endpoint]
	f.mu.Unlock()
	if err != nil {
		return f.expired(ctx, err)
	}
	if rows == nil {
		return json.Unmarshal([]byte("[]"), out)
	}
	return roundTrip(rows, out)
}

func (f *fakeAPI) FetchObject(ctx context.Context, endpoint string, out any) error {
	f.mu.Lock()
	err, obj := f.fetchErr[endpoint], f.objects[endpoint]
	f.mu.Unlock()
	if err != nil {
		return f.expired(ctx, err)
	}
	return roundTrip(obj, out)
}

func (f *fakeAPI) CreateEntity(_ context.Context, _ string, payload, out any) error {
	f.mu.Lock()
	f.creates = append(f.creates, payload)
	err := f.createErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return roundTrip(payload, out)
}

func (f *fakeAPI) UpdateEntity(_ context.Context, endpoint string, id int64, payload, out any) error {
	f.mu.Lock()
	f.updates = append(f.updates, endpoint)
	fn := f.updateFn
	f.mu.Unlock()

	saved := payload
	if fn != nil {
		var err error
		if saved, err = fn(endpoint, id, payload); err != nil {
			return err
		}
	}
	return roundTrip(saved, out)
}

func (f *fakeAPI) DeleteEntity(_ context.Context, endpoint string, id int64) error {
	f.mu.Lock()
	fn := f.deleteFn
	f.mu.Unlock()
	if fn != nil {
		return fn(endpoint, id)
	}
	return nil
}

func (f *fakeAPI) Login(_ context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &model.LoginResult{
		Tokens: model.CredentialPair{Access: "access-1", Refresh: "refresh-1"},
		User:   model.Profile{ID: 1, Username: req.Username, FirstName: "Ada", LastName: "Obi", Role: model.RoleManager},
	}, nil
}

func (f *fakeAPI) Logout(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return nil
}

func (f *fakeAPI) Refresh(context.Context, string) (string, error) { return "access-2", nil }

type memSettings struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memSettings) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
	return nil
}

func (m *memSettings) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Test harness ---

const testCSRF = "test-csrf-token"

type harness struct {
	api     *fakeAPI
	session *application.SessionService
	catalog *application.Catalog
	mux     *http.ServeMux
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	api := newFakeAPI()
	logger := slog.Default()
	creds := application.NewCredentials(nil, logger)
	session := application.NewSessionService(api, creds, &memSettings{}, logger)
	catalog := application.NewCatalog(api, logger)
	dashboard := application.NewDashboardService(api, logger)

	api.onExpired = session.Expire

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.NewHandler(session, catalog, dashboard, logger))

	return &harness{api: api, session: session, catalog: catalog, mux: mux}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	_, err := h.session.Login(context.Background(), "manager1", "secret1")
	require.NoError(t, err)
}

func (h *harness) get(path string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

// post sends a form post carrying the CSRF cookie and header, as htmx does.
func (h *harness) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.Header.Set("X-CSRF-Token", testCSRF)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRF})
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func indexOf(s, substr string) int { return strings.Index(s, substr) }

// notification decodes the notify event of the HX-Trigger header.
func notification(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	require.NotEmpty(t, raw, "expected an HX-Trigger header")

	var events map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &events))
	n, ok := events["notify"].(map[string]any)
	require.True(t, ok, "HX-Trigger has no notify event: %s", raw)
	return n
}
