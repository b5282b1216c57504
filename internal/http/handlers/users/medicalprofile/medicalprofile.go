// Package medicalprofile отдает профиль вошедшего медицинского работника.
package medicalprofile

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/profile"
)

// Response профиль медицинского работника.
type Response struct {
	Username       string `json:"username"`
	NameWithTitle  string `json:"name_with_title"`
	StaffType      string `json:"staff_type" example:"MD"`
	Specialty      string `json:"specialty"`
	LicensingState string `json:"state_of_licensure" example:"CA"`
	IsVerified     bool   `json:"is_verified"`
	ProfilePicture string `json:"profile_picture"`
}

// Handler обрабатывает GET профиля.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Профиль медицинского работника
// @Tags Users
// @Produce  json
// @Success 200 {object} Response
// @Success 302 "Перенаправление, если профиль другого вида"
// @Security BearerAuth
// @Router /users/medical/profile/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.medicalprofile"

	pro := profile.FromContext(r.Context()).MedicalPro
	if pro == nil {
		response.Fail(w, r, h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		), errors.New("medical profile missing in context"))
		return
	}

	var specialty string
	if pro.Specialty != nil {
		specialty = pro.Specialty.String()
	}
	render.JSON(w, r, Response{
		Username:       pro.User.Username,
		NameWithTitle:  pro.NameWithTitle(),
		StaffType:      pro.StaffType.String(),
		Specialty:      specialty,
		LicensingState: pro.LicensingState,
		IsVerified:     pro.IsVerified,
		ProfilePicture: pro.ProfilePicture,
	})
}
