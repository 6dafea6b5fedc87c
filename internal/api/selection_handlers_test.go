package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smakiapp/smaki-server/internal/api/dto"
	"github.com/smakiapp/smaki-server/internal/domain"
)

const testDay = "2025-06-10"

func opResult(t *testing.T, code int, body []byte) dto.SelectionOpResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, code, string(body))
	return decode[dto.SelectionOpResponse](t, body).Data
}

func TestSelection_ToggleHitMoveFlow(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t)
	a := ts.createFlavor(t, authz, map[string]any{"name": "Ananas"})
	b := ts.createFlavor(t, authz, map[string]any{"name": "Banan"})
	base := "/api/v1/selections/" + testDay

	for _, id := range []int64{b, a} {
		resp := ts.api.Post(base+"/toggle/"+itoa(id), authz)
		res := opResult(t, resp.Code, resp.Body.Bytes())
		assert.True(t, res.Changed)
	}

	resp := ts.api.Post(base+"/hit/"+itoa(a), authz)
	res := opResult(t, resp.Code, resp.Body.Bytes())
	require.NotNil(t, res.Selection.HitFlavorID)
	assert.Equal(t, a, *res.Selection.HitFlavorID)

	resp = ts.api.Post(base+"/move/"+itoa(a)+"/up", authz)
	res = opResult(t, resp.Code, resp.Body.Bytes())
	assert.True(t, res.Changed)
	assert.Equal(t, []int64{a, b}, res.Selection.DisplayOrder)

	// Already first: a no-op, not an error.
	resp = ts.api.Post(base+"/move/"+itoa(a)+"/up", authz)
	res = opResult(t, resp.Code, resp.Body.Bytes())
	assert.False(t, res.Changed)
	assert.NotEmpty(t, res.Reason)

	resp = ts.api.Post(base+"/move/"+itoa(a)+"/sideways", authz)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Unselecting the hit clears it.
	resp = ts.api.Post(base+"/toggle/"+itoa(a), authz)
	res = opResult(t, resp.Code, resp.Body.Bytes())
	assert.Nil(t, res.Selection.HitFlavorID)
	assert.Equal(t, []int64{b}, res.Selection.FlavorIDs)
}

func TestSelection_ToggleUnknownFlavor(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t)

	resp := ts.api.Post("/api/v1/selections/today/toggle/42", authz)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[any](t, resp.Body.Bytes()).Code)
}

func TestSelection_HitRequiresMembership(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t)
	id := ts.createFlavor(t, authz, map[string]any{"name": "Mango"})

	resp := ts.api.Post("/api/v1/selections/today/hit/"+itoa(id), authz)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSelection_Reorder(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t)
	a := ts.createFlavor(t, authz, map[string]any{"name": "Ananas"})
	b := ts.createFlavor(t, authz, map[string]any{"name": "Banan"})
	c := ts.createFlavor(t, authz, map[string]any{"name": "Cytryna"})
	ts.seedSelection(t, domain.MustParseDate(testDay), []int64{a, b, c}, 0)
	path := "/api/v1/selections/" + testDay + "/order"

	resp := ts.api.Put(path, authz, map[string]any{"flavor_ids": []int64{c, a, b}})
	res := opResult(t, resp.Code, resp.Body.Bytes())
	assert.True(t, res.Changed)
	assert.Equal(t, []int64{c, a, b}, res.Selection.DisplayOrder)

	resp = ts.api.Put(path, authz, map[string]any{"flavor_ids": []int64{c, a}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Contains(t, env.Details, "missing")
}

func TestSelection_CopyPreviousAndClear(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t)
	a := ts.createFlavor(t, authz, map[string]any{"name": "Ananas"})
	b := ts.createFlavor(t, authz, map[string]any{"name": "Banan"})
	ts.seedSelection(t, domain.MustParseDate("2025-06-09"), []int64{b, a}, b)
	base := "/api/v1/selections/" + testDay

	resp := ts.api.Post(base+"/copy-previous", authz)
	res := opResult(t, resp.Code, resp.Body.Bytes())
	assert.True(t, res.Changed)
	assert.Equal(t, []int64{b, a}, res.Selection.DisplayOrder)
	assert.Nil(t, res.Selection.HitFlavorID)

	resp = ts.api.Post(base+"/clear", authz)
	res = opResult(t, resp.Code, resp.Body.Bytes())
	assert.True(t, res.Changed)
	assert.Empty(t, res.Selection.FlavorIDs)

	resp = ts.api.Post(base+"/clear", authz)
	res = opResult(t, resp.Code, resp.Body.Bytes())
	assert.False(t, res.Changed)
}

func TestGetSelection(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t)
	a := ts.createFlavor(t, authz, map[string]any{"name": "Ananas"})
	b := ts.createFlavor(t, authz, map[string]any{"name": "Banan"})

	resp := ts.api.Get("/api/v1/selections/today", authz)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	view := decode[dto.SelectionViewResponse](t, resp.Body.Bytes()).Data
	assert.False(t, view.Saved)
	assert.Equal(t, testDay, view.Selection.Date)
	assert.Len(t, view.Catalog, 2)

	ts.seedSelection(t, domain.MustParseDate(testDay), []int64{b}, b)

	resp = ts.api.Get("/api/v1/selections/"+testDay, authz)
	view = decode[dto.SelectionViewResponse](t, resp.Body.Bytes()).Data
	assert.True(t, view.Saved)
	require.NotNil(t, view.Hit)
	assert.Equal(t, b, view.Hit.ID)
	require.Len(t, view.Catalog, 2)
	states := make(map[int64]dto.CatalogEntryResponse, len(view.Catalog))
	for _, e := range view.Catalog {
		states[e.Flavor.ID] = e
	}
	require.Contains(t, states, a)
	require.Contains(t, states, b)
	assert.False(t, states[a].Selected)
	assert.False(t, states[a].Hit)
	assert.True(t, states[b].Selected)
	assert.True(t, states[b].Hit)
}

func TestSelection_InvalidDate(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t)

	resp := ts.api.Get("/api/v1/selections/10-06-2025", authz)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body.Bytes()).Code)
}

func TestListSelections(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t)
	a := ts.createFlavor(t, authz, map[string]any{"name": "Ananas"})
	for _, d := range []string{"2025-06-08", "2025-06-09", "2025-06-10"} {
		ts.seedSelection(t, domain.MustParseDate(d), []int64{a}, 0)
	}

	resp := ts.api.Get("/api/v1/selections?from=2025-06-09&to=2025-06-10", authz)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	list := decode[dto.ListResponse[dto.SelectionResponse]](t, resp.Body.Bytes()).Data
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "2025-06-09", list.Items[0].Date)

	resp = ts.api.Get("/api/v1/selections?from=2025-06-10&to=2025-06-01", authz)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
