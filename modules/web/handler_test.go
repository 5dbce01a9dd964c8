package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageHandler_ServesIndex(t *testing.T) {
	h, err := NewPageHandler()
	require.NoError(t, err)

	r := mux.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, `<option value="4:3">4:3</option>`)
	assert.Contains(t, body, `<option value="720p" selected>720p</option>`)
	assert.Contains(t, body, "/api/generate/video")
}
