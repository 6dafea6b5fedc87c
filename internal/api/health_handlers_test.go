package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, statusHealthy, env.Data.Status)
	assert.Equal(t, statusHealthy, env.Data.Components["database"].Status)
	assert.Equal(t, "0 flavors indexed", env.Data.Components["search"].Message)
	assert.Equal(t, "no connected clients", env.Data.Components["sse"].Message)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, statusUnhealthy, env.Data.Status)
	assert.Equal(t, "database unreachable", env.Data.Components["database"].Message)
}
