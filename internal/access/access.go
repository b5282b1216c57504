// Package access проверяет, что профиль пользователя подходит для операции.
package access

import (
	"net/url"

	"github.com/magabrotheeeer/medico/internal/profile"
)

// Decision результат проверки: операция разрешена либо пользователя
// нужно перенаправить на RedirectTo.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// UserDetailPath путь страницы пользователя.
func UserDetailPath(username string) string {
	return "/users/" + url.PathEscape(username) + "/"
}

// Require разрешает операцию только для профиля вида kind.
// Неаутентифицированный запрос не блокируется: аутентификация проверяется отдельно.
// При несовпадении вида пользователь перенаправляется на свою страницу.
func Require(res profile.Resolution, kind profile.Kind) Decision {
	if !res.Authenticated() || res.Kind == kind {
		return Decision{Allowed: true}
	}
	return Decision{RedirectTo: UserDetailPath(res.User.Username)}
}

// RequireCustomer разрешает операцию только пациенту.
func RequireCustomer(res profile.Resolution) Decision {
	return Require(res, profile.Customer)
}

// RequireMedicalPro разрешает операцию только медицинскому работнику.
func RequireMedicalPro(res profile.Resolution) Decision {
	return Require(res, profile.MedicalPro)
}
