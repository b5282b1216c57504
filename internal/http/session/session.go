// Package session хранит в подписанной cookie идентификатор вошедшего
// пользователя и одноразовый флаг успешной оплаты.
package session

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/magabrotheeeer/medico/internal/config"
)

const (
	keyUserUID         = "user_uid"
	keyUsername        = "username"
	keyCheckoutSuccess = "checkout_success"
)

// Manager обертка над gorilla CookieStore.
type Manager struct {
	store *sessions.CookieStore
	name  string
}

// New создает Manager по настройкам сессии.
func New(cfg config.Session) *Manager {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store, name: cfg.SessionName}
}

// get возвращает сессию запроса. Cookie, которую не удалось расшифровать,
// заменяется новой пустой сессией.
func (m *Manager) get(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, m.name)
	if err != nil {
		s.Values = map[any]any{}
	}
	return s
}

// Login записывает пользователя в сессию.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userUID, username string) error {
	const op = "session.Login"
	s := m.get(r)
	s.Values[keyUserUID] = userUID
	s.Values[keyUsername] = username
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Principal возвращает пользователя текущей сессии.
func (m *Manager) Principal(r *http.Request) (userUID, username string, ok bool) {
	s := m.get(r)
	userUID, _ = s.Values[keyUserUID].(string)
	username, _ = s.Values[keyUsername].(string)
	return userUID, username, userUID != ""
}

// Logout удаляет cookie сессии.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	const op = "session.Logout"
	s := m.get(r)
	s.Values = map[any]any{}
	s.Options.MaxAge = -1
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetCheckoutSuccess отмечает успешную оплату для страницы консультации.
func (m *Manager) SetCheckoutSuccess(w http.ResponseWriter, r *http.Request) error {
	const op = "session.SetCheckoutSuccess"
	s := m.get(r)
	s.Values[keyCheckoutSuccess] = true
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PopCheckoutSuccess читает флаг успешной оплаты и сбрасывает его.
func (m *Manager) PopCheckoutSuccess(w http.ResponseWriter, r *http.Request) (bool, error) {
	const op = "session.PopCheckoutSuccess"
	s := m.get(r)
	set, _ := s.Values[keyCheckoutSuccess].(bool)
	if !set {
		return false, nil
	}
	delete(s.Values, keyCheckoutSuccess)
	if err := s.Save(r, w); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
