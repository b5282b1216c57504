// Package detail отдает страницу пользователя по имени.
package detail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/profile"
)

// UserNotFoundMessage пользователь с таким именем не существует.
const UserNotFoundMessage = "No user found matching the query."

// Response публичные данные пользователя.
type Response struct {
	Username      string       `json:"username"`
	FullName      string       `json:"full_name"`
	NameWithTitle string       `json:"name_with_title"`
	Kind          profile.Kind `json:"kind"`
	IsSelf        bool         `json:"is_self"`
}

// Users поиск пользователя по имени.
type Users interface {
	FindUserByUsername(ctx context.Context, username string) (models.User, bool, error)
}

// Resolver определяет профиль найденного пользователя.
type Resolver interface {
	Resolve(ctx context.Context, userUID string) (profile.Resolution, error)
}

// Handler обрабатывает GET страницы пользователя.
type Handler struct {
	log      *slog.Logger
	users    Users
	resolver Resolver
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, users Users, resolver Resolver) *Handler {
	return &Handler{log: log, users: users, resolver: resolver}
}

// ServeHTTP godoc
// @Summary Страница пользователя
// @Tags Users
// @Produce  json
// @Param username path string true "Имя пользователя"
// @Success 200 {object} Response
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{username}/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.detail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username := chi.URLParam(r, "username")
	user, found, err := h.users.FindUserByUsername(r.Context(), username)
	if err != nil {
		response.Fail(w, r, log, fmt.Errorf("%s: %w", op, err))
		return
	}
	if !found {
		response.Fail(w, r, log, apperr.NotFound(UserNotFoundMessage))
		return
	}

	res, err := h.resolver.Resolve(r.Context(), user.UUID)
	if err != nil {
		response.Fail(w, r, log, fmt.Errorf("%s: %w", op, err))
		return
	}

	viewer := profile.FromContext(r.Context())
	render.JSON(w, r, Response{
		Username:      user.Username,
		FullName:      user.FullName(),
		NameWithTitle: nameWithTitle(res, user),
		Kind:          res.Kind,
		IsSelf:        viewer.User != nil && viewer.User.UUID == user.UUID,
	})
}

func nameWithTitle(res profile.Resolution, user models.User) string {
	switch {
	case res.Customer != nil:
		return res.Customer.NameWithTitle()
	case res.MedicalPro != nil:
		return res.MedicalPro.NameWithTitle()
	default:
		return user.FullName()
	}
}
