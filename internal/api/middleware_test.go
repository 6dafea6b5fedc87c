package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smakiapp/smaki-server/internal/http/response"
)

func TestEnvelopeTransformer(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		input   any
		success bool
		code    string
		message string
	}{
		{"success", "200", map[string]string{"name": "Wanilia"}, true, "", ""},
		{"created", "201", map[string]int64{"id": 1}, true, "", ""},
		{"no content", "204", nil, true, "", ""},
		{"plain error", "404", errors.New("flavor not found"), false, "NOT_FOUND", "flavor not found"},
		{"api error keeps its code", "401", &APIError{status: 401, Code: "TOKEN_EXPIRED", Message: "token expired"}, false, "TOKEN_EXPIRED", "token expired"},
		{"error status with body", "500", map[string]string{"x": "y"}, false, "INTERNAL", "request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			env, ok := result.(response.Envelope)
			require.True(t, ok, "expected response.Envelope, got %T", result)
			assert.Equal(t, response.Version, env.Version)
			assert.Equal(t, tt.success, env.Success)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.message, env.Error)
		})
	}
}

func TestEnvelopeTransformer_PassesEnvelopeThrough(t *testing.T) {
	in := response.Fail("VALIDATION", "bad", map[string]string{"name": "is required"})
	out, err := EnvelopeTransformer(nil, "400", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRequestContext_EchoesRequestIDAndRecordsClientIP(t *testing.T) {
	var gotIP string
	h := middleware.RequestID(requestContext(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotIP = ClientIP(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "203.0.113.7", gotIP)
}

func TestClientIP_FallsBackToRawRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", clientIP(req))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.api.Get("/api/v1/tags")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `smaki_http_requests_total`)
}
