package redirect

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/profile"
)

func TestRedirect(t *testing.T) {
	jane := models.User{UUID: "uid-1", Username: "jane"}

	req := httptest.NewRequest(http.MethodGet, "/users/~redirect/", nil)
	req = req.WithContext(profile.WithResolution(req.Context(), profile.Resolution{Kind: profile.Anonymous, User: &jane}))
	rec := httptest.NewRecorder()
	ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/users/jane/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/~redirect/", nil))
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
