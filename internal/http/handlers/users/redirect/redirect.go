// Package redirect перенаправляет вошедшего пользователя на его страницу.
package redirect

import (
	"net/http"

	"github.com/magabrotheeeer/medico/internal/access"
	"github.com/magabrotheeeer/medico/internal/profile"
)

// ServeHTTP godoc
// @Summary Перенаправление на страницу текущего пользователя
// @Tags Users
// @Success 302 "Перенаправление"
// @Router /users/~redirect/ [get]
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := profile.FromContext(r.Context())
	if !res.Authenticated() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, access.UserDetailPath(res.User.Username), http.StatusFound)
}
