package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/medico/internal/config"
)

func newManager() *Manager {
	return New(config.Session{
		SessionName:   "medico_session",
		SessionKey:    "0123456789abcdef0123456789abcdef",
		SessionMaxAge: time.Hour,
	})
}

// carry переносит cookie из ответа в следующий запрос.
func carry(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestManager_LoginPrincipalLogout(t *testing.T) {
	m := newManager()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Login(rec, httptest.NewRequest(http.MethodPost, "/accounts/login/", nil), "uid-1", "jane"))

	uid, username, ok := m.Principal(carry(t, rec))
	assert.True(t, ok)
	assert.Equal(t, "uid-1", uid)
	assert.Equal(t, "jane", username)

	out := httptest.NewRecorder()
	require.NoError(t, m.Logout(out, carry(t, rec)))
	cookie := out.Result().Cookies()[0]
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestManager_PrincipalWithoutCookie(t *testing.T) {
	_, _, ok := newManager().Principal(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestManager_TamperedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "medico_session", Value: "forged"})

	_, _, ok := newManager().Principal(req)
	assert.False(t, ok)
}

func TestManager_CheckoutSuccessIsReadOnce(t *testing.T) {
	m := newManager()

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetCheckoutSuccess(rec, httptest.NewRequest(http.MethodPost, "/", nil)))

	first := httptest.NewRecorder()
	set, err := m.PopCheckoutSuccess(first, carry(t, rec))
	require.NoError(t, err)
	assert.True(t, set)

	second := httptest.NewRecorder()
	set, err = m.PopCheckoutSuccess(second, carry(t, first))
	require.NoError(t, err)
	assert.False(t, set)
}
