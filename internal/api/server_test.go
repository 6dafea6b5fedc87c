package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/smakiapp/smaki-server/internal/auth"
	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/media/images"
	"github.com/smakiapp/smaki-server/internal/ratelimit"
	"github.com/smakiapp/smaki-server/internal/search"
	"github.com/smakiapp/smaki-server/internal/service"
	"github.com/smakiapp/smaki-server/internal/sse"
	"github.com/smakiapp/smaki-server/internal/store"
	"github.com/smakiapp/smaki-server/internal/store/sqlite"
)

const (
	testUsername = "sklep"
	testPassword = "lody-sa-super"
)

// testNow is 10:00 in Warsaw on 2025-06-10.
var testNow = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

// testEnvelope mirrors response.Envelope with a typed payload.
type testEnvelope[T any] struct {
	Version int            `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api    humatest.TestAPI
	store  store.Store
	photos *images.Storage
	events *sse.Manager
}

// setupTestServer builds the full server on a temporary sqlite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	clock := domain.Clock{Now: func() time.Time { return testNow }, Location: loc}

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, _, err := search.Open(search.Options{DataPath: filepath.Join(dir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	photos, err := images.NewStorage(filepath.Join(dir, "media"))
	require.NoError(t, err)

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	tokens := auth.NewTokenService(paseto.NewV4SymmetricKey(), time.Hour)

	events := sse.NewManager(logger)
	public := service.NewPublicService(st, clock, logger)
	services := &Services{
		Catalog: service.NewCatalogService(service.CatalogConfig{
			Store:     st,
			Index:     index,
			Photos:    photos,
			Processor: images.NewProcessor(800, 80, logger),
			Events:    events,
			Clock:     clock,
			Logger:    logger,
		}),
		Selection: service.NewSelectionService(st, events, clock, logger),
		Public:    public,
		Auth: service.NewAuthService(
			service.StaffAccount{Username: testUsername, PasswordHash: hash},
			tokens,
			ratelimit.New(1, 5, time.Minute),
			logger,
		),
		Dashboard: service.NewDashboardService(st, public, clock, logger),
	}

	cfg := &config.Config{Shop: config.ShopConfig{Name: "Smaki", Location: loc}}
	s := NewServer(cfg, st, services, &StorageServices{Photos: photos, Index: index}, events, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		store:  st,
		photos: photos,
		events: events,
	}
}

// login returns an Authorization header for the staff account.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"username": testUsername,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[LoginResponse](t, resp.Body.Bytes())
	return "Authorization: Bearer " + env.Data.AccessToken
}

// createFlavor creates a flavor through the API and returns it.
func (ts *testServer) createFlavor(t *testing.T, authz string, body map[string]any) int64 {
	t.Helper()
	resp := ts.api.Post("/api/v1/flavors", authz, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[flavorBody](t, resp.Body.Bytes()).Data.ID
}

// seedSelection writes a selection straight to the store.
func (ts *testServer) seedSelection(t *testing.T, day domain.Date, order []int64, hit int64) {
	t.Helper()
	_, _, err := ts.store.UpdateSelection(context.Background(), day, testNow,
		func(_ store.SelectionReader, sel *domain.DailySelection) (bool, error) {
			for _, id := range order {
				sel.Toggle(id)
			}
			if hit != 0 {
				if _, err := sel.SetHit(hit); err != nil {
					return false, err
				}
			}
			return true, nil
		})
	require.NoError(t, err)
}

type flavorBody struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Slug        string `json:"slug"`
	Status      string `json:"status"`
	TypeLabel   string `json:"type_label"`
	PhotoURL    string `json:"photo_url"`
	Tags        []struct {
		Tag   string `json:"tag"`
		Label string `json:"label"`
	} `json:"tags"`
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
