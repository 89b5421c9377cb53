package application_test

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// --- Mock implementations ---

type updateCall struct {
	Endpoint string
	ID       int64
	Payload  any
}

// mockAPI is an in-memory driven.BackOfficeAPI. Collections are stored as Go
// values and round-tripped through JSON so decoding matches the real client.
type mockAPI struct {
	mu          sync.Mutex
	collections map[string]any
	objects     map[string]any
	fetchErr    map[string]error
	fetchCalls  map[string]int

	updates  []updateCall
	updateFn func(endpoint string, id int64, payload any) (any, error)

	deletes   []int64
	deleteErr error

	creates   []any
	createErr error

	loginFn   func(req model.LoginRequest) (*model.LoginResult, error)
	logouts   []string
	logoutErr error
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		collections: make(map[string]any),
		objects:     make(map[string]any),
		fetchErr:    make(map[string]error),
		fetchCalls:  make(map[string]int),
	}
}

func (m *mockAPI) setCollection(endpoint string, rows any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[endpoint] = rows
}

func (m *mockAPI) calls(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls[endpoint]
}

func roundTrip(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (m *mockAPI) FetchCollection(_ context.Context, endpoint string, _ url.Values, out any) error {
	m.mu.Lock()
	m.fetchCalls[endpoint]++
	err := m.fetchErr[endpoint]
	rows, ok := m.collections[endpoint]
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return json.Unmarshal([]byte("[]"), out)
	}
	return roundTrip(rows, out)
}

func (m *mockAPI) FetchObject(_ context.Context, endpoint string, out any) error {
	m.mu.Lock()
	m.fetchCalls[endpoint]++
	err := m.fetchErr[endpoint]
	obj := m.objects[endpoint]
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return roundTrip(obj, out)
}

func (m *mockAPI) CreateEntity(_ context.Context, _ string, payload, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.creates = append(m.creates, payload)
	return nil
}

func (m *mockAPI) UpdateEntity(_ context.Context, endpoint string, id int64, payload, out any) error {
	m.mu.Lock()
	m.updates = append(m.updates, updateCall{Endpoint: endpoint, ID: id, Payload: payload})
	fn := m.updateFn
	m.mu.Unlock()

	result := payload
	if fn != nil {
		res, err := fn(endpoint, id, payload)
		if err != nil {
			return err
		}
		result = res
	}
	return roundTrip(result, out)
}

func (m *mockAPI) DeleteEntity(_ context.Context, _ string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes = append(m.deletes, id)
	return nil
}

func (m *mockAPI) Login(_ context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	return m.loginFn(req)
}

func (m *mockAPI) Logout(_ context.Context, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logouts = append(m.logouts, refresh)
	return m.logoutErr
}

func (m *mockAPI) Refresh(context.Context, string) (string, error) {
	return "", nil
}

var _ driven.BackOfficeAPI = (*mockAPI)(nil)

// mockCredentialStore is an in-memory driven.CredentialStore.
type mockCredentialStore struct {
	mu     sync.Mutex
	values map[string]string
	noKey  bool
	sets   int
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{values: make(map[string]string)}
}

func (m *mockCredentialStore) Set(_ context.Context, service, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noKey {
		return driven.ErrEncryptionKeyNotSet
	}
	m.sets++
	m.values[service+"/"+key] = value
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, service, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noKey {
		return "", driven.ErrEncryptionKeyNotSet
	}
	return m.values[service+"/"+key], nil
}

func (m *mockCredentialStore) GetAll(_ context.Context, service string) (map[string]string, error) {
	return nil, nil
}

func (m *mockCredentialStore) Delete(_ context.Context, service, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, service+"/"+key)
	return nil
}

// mockSettingsStore is an in-memory driven.SettingsStore.
type mockSettingsStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMockSettingsStore() *mockSettingsStore {
	return &mockSettingsStore{values: make(map[string]string)}
}

func (m *mockSettingsStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockSettingsStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockSettingsStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
