package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/smartqpanel/internal/application"
	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// --- Mock implementations ---

type stubAPI struct {
	collections map[string]any
	objects     map[string]any
	fetchErr    error
	lastLogin   model.LoginRequest
}

func roundTrip(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (s *stubAPI) FetchCollection(_ context.Context, endpoint string, _ url.Values, out any) error {
	if s.fetchErr != nil {
		return s.fetchErr
	}
	rows, ok := s.collections[endpoint]
	if !ok {
		return json.Unmarshal([]byte("[]"), out)
	}
	return roundTrip(rows, out)
}

func (s *stubAPI) FetchObject(_ context.Context, endpoint string, out any) error {
	if s.fetchErr != nil {
		return s.fetchErr
	}
	return roundTrip(s.objects[endpoint], out)
}

func (s *stubAPI) CreateEntity(context.Context, string, any, any) error { return nil }

func (s *stubAPI) UpdateEntity(context.Context, string, int64, any, any) error { return nil }

func (s *stubAPI) DeleteEntity(context.Context, string, int64) error { return nil }

func (s *stubAPI) Login(_ context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	s.lastLogin = req
	return &model.LoginResult{
		Tokens: model.CredentialPair{Access: "a", Refresh: "r"},
		User:   model.Profile{Username: req.Username, FirstName: "Ada", Role: model.RoleStaff},
	}, nil
}

func (s *stubAPI) Logout(context.Context, string) error { return nil }

func (s *stubAPI) Refresh(context.Context, string) (string, error) { return "a2", nil }

type stubSettings map[string]string

func (s stubSettings) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

func (s stubSettings) Set(_ context.Context, key, value string) error {
	s[key] = value
	return nil
}

func (s stubSettings) Delete(_ context.Context, key string) error {
	delete(s, key)
	return nil
}

func newTestBackend(api *stubAPI) *Backend {
	logger := slog.Default()
	creds := application.NewCredentials(nil, logger)
	return &Backend{
		Session:   application.NewSessionService(api, creds, stubSettings{}, logger),
		Catalog:   application.NewCatalog(api, logger),
		Dashboard: application.NewDashboardService(api, logger),
	}
}

func run(t *testing.T, b *Backend, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(func(context.Context) (*Backend, error) { return b, nil })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	api := &stubAPI{}
	b := newTestBackend(api)

	out, _, err := run(t, b, "secret1\n", "login", "-u", "staff1", "--password-stdin")

	require.NoError(t, err)
	assert.Equal(t, "Signed in as Ada (staff)\n", out)
	assert.Equal(t, model.LoginRequest{Username: "staff1", Password: "secret1"}, api.lastLogin)
	assert.True(t, b.Session.Current().SignedIn())
}

func TestLogin_ValidationFailure(t *testing.T) {
	api := &stubAPI{}
	b := newTestBackend(api)

	_, stderr, err := run(t, b, "abc\n", "login", "-u", "staff1", "--password-stdin")

	var ve *application.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, stderr, "password")
	assert.Empty(t, api.lastLogin.Username)
}

func TestWhoami(t *testing.T) {
	b := newTestBackend(&stubAPI{})

	_, _, err := run(t, b, "", "whoami")
	require.ErrorIs(t, err, errNotSignedIn)

	_, err = b.Session.Login(context.Background(), "staff1", "secret1")
	require.NoError(t, err)

	out, _, err := run(t, b, "", "whoami", "--format", "json")
	require.NoError(t, err)
	var got whoami
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "staff1", got.Username)
	assert.Equal(t, "staff", got.Role)
	assert.Equal(t, "authorized", got.State)
}

func TestList_Table(t *testing.T) {
	b := newTestBackend(&stubAPI{collections: map[string]any{
		application.OutletsEndpoint: []model.Outlet{
			{ID: 1, Name: "Ikeja", Location: "Lagos", TotalSales: "10.00"},
			{ID: 2, Name: "Wuse", Location: "Abuja", TotalSales: "4.00"},
		},
	}})

	out, _, err := run(t, b, "", "list", "outlets")

	require.NoError(t, err)
	assert.Contains(t, out, "Outlets")
	assert.Contains(t, out, "Location")
	assert.Contains(t, out, "Ikeja")
	assert.Contains(t, out, "Abuja")
}

func TestList_JSON(t *testing.T) {
	b := newTestBackend(&stubAPI{collections: map[string]any{
		application.CategoriesEndpoint: []model.Category{{ID: 4, Name: "Grains"}},
	}})

	out, _, err := run(t, b, "", "list", "categories", "--format", "json")

	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"4","name":"Grains"}]`, out)
}

func TestList_Empty(t *testing.T) {
	b := newTestBackend(&stubAPI{})

	out, _, err := run(t, b, "", "list", "sales")

	require.NoError(t, err)
	assert.Equal(t, "No sales.\n", out)
}

func TestList_UnknownResource(t *testing.T) {
	b := newTestBackend(&stubAPI{})

	_, stderr, err := run(t, b, "", "list", "widgets")

	require.Error(t, err)
	assert.Contains(t, stderr, `unknown resource "widgets"`)
}

func TestList_SessionExpiredHint(t *testing.T) {
	b := newTestBackend(&stubAPI{fetchErr: &driven.SessionExpiredError{Err: errors.New("refresh rejected")}})

	_, stderr, err := run(t, b, "", "list", "inventory")

	require.True(t, driven.IsSessionExpired(err))
	assert.Contains(t, stderr, "smartqctl login")
}

func TestStats(t *testing.T) {
	b := newTestBackend(&stubAPI{
		objects: map[string]any{
			"/dashboard/stats/": model.DashboardStats{TotalInventoryItems: 12, TodaySales: "500.00", LowStockItems: 1},
		},
		collections: map[string]any{
			application.InventoryEndpoint: []model.InventoryItem{
				{ID: 1, Name: "Beans", Quantity: 0, MinQuantity: 3, Unit: "bag", IsOutOfStock: true},
			},
		},
	})

	out, _, err := run(t, b, "", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Total Items")
	assert.Contains(t, out, "500.00")
	assert.Contains(t, out, "Beans")
	assert.Contains(t, out, "Out of stock")
}

func TestUnknownFormat(t *testing.T) {
	b := newTestBackend(&stubAPI{})

	_, _, err := run(t, b, "", "list", "sales", "--format", "yaml")

	assert.ErrorContains(t, err, `unknown format "yaml"`)
}
