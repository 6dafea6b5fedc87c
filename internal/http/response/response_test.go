package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/store"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]string{"name": "Pistacja"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(Version), body["v"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"name": "Pistacja"}, body["data"])
	assert.NotContains(t, body, "error")
	assert.NotContains(t, body, "code")
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	Created(w, map[string]int{"id": 1}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad", nil) }, http.StatusBadRequest, "VALIDATION"},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "who", nil) }, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "gone", nil) }, http.StatusNotFound, "NOT_FOUND"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "boom", nil) }, http.StatusInternalServerError, "INTERNAL"},
		{"too large", func(w http.ResponseWriter) { Error(w, http.StatusRequestEntityTooLarge, "big", nil) }, http.StatusRequestEntityTooLarge, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body, "data")
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("domain error keeps code and details", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, domainerrors.ValidationWithDetails("invalid flavor", map[string]string{"name": "is required"}), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "VALIDATION", body["code"])
		assert.Equal(t, "invalid flavor", body["error"])
		assert.Equal(t, map[string]any{"name": "is required"}, body["details"])
	})

	t.Run("store not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, store.ErrNotFound, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown error hides the cause", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, errors.New("disk on fire"), nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decode(t, w)["error"])
	})
}
