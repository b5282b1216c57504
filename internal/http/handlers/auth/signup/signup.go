// Package signup реализует HTTP-обработчики регистрации пациента и
// медицинского работника. Формы принимаются как multipart/form-data.
// При успехе пользователь входит в систему и перенаправляется на свою
// страницу, при ошибке получает 400 с ошибками по полям.
package signup

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/medico/internal/access"
	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/services/signup"
)

const maxMemory = 32 << 20

// invalidChoice значение вне допустимого диапазона; валидатор формы
// превращает его в ошибку выбора.
const invalidChoice = -1

// Service описывает регистрацию пользователей.
type Service interface {
	SignupCustomer(ctx context.Context, form signup.CustomerForm) (models.Customer, error)
	SignupMedicalProfessional(ctx context.Context, form signup.MedicalForm) (models.MedicalProfessional, error)
}

// Session устанавливает сессию зарегистрированного пользователя.
type Session interface {
	Login(w http.ResponseWriter, r *http.Request, userUID, username string) error
}

// CustomerHandler обрабатывает регистрацию пациента.
type CustomerHandler struct {
	log     *slog.Logger
	service Service
	session Session
}

// NewCustomer создает новый экземпляр CustomerHandler.
func NewCustomer(log *slog.Logger, service Service, session Session) *CustomerHandler {
	return &CustomerHandler{log: log, service: service, session: session}
}

// ServeHTTP godoc
// @Summary Регистрация пациента
// @Tags Auth
// @Accept  multipart/form-data
// @Produce  json
// @Param username formData string true "Имя пользователя"
// @Param email formData string true "Email"
// @Param password1 formData string true "Пароль"
// @Param password2 formData string true "Повтор пароля"
// @Param first_name formData string true "Имя"
// @Param last_name formData string true "Фамилия"
// @Param gender formData int true "0 мужской, 1 женский, 2 другой"
// @Param phone formData string true "Телефон"
// @Param dob formData string true "Дата рождения YYYY-MM-DD"
// @Success 302 "Перенаправление на страницу пользователя"
// @Failure 400 {object} response.FieldErrorsResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /users/customer-signup/ [post]
func (h *CustomerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup.customer"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := parseForm(r); err != nil {
		log.Info("failed to parse form", sl.Err(err))
		response.FieldErrors(w, r, map[string][]string{"__all__": {signup.MsgInvalidField}})
		return
	}

	form := signup.CustomerForm{
		AccountForm: accountForm(r),
		DateOfBirth: r.FormValue("dob"),
	}

	customer, err := h.service.SignupCustomer(r.Context(), form)
	if err != nil {
		fail(w, r, log, err)
		return
	}

	login(w, r, log, h.session, customer.User)
}

// MedicalHandler обрабатывает регистрацию медицинского работника.
type MedicalHandler struct {
	log     *slog.Logger
	service Service
	session Session
}

// NewMedical создает новый экземпляр MedicalHandler.
func NewMedical(log *slog.Logger, service Service, session Session) *MedicalHandler {
	return &MedicalHandler{log: log, service: service, session: session}
}

// ServeHTTP godoc
// @Summary Регистрация медицинского работника
// @Tags Auth
// @Accept  multipart/form-data
// @Produce  json
// @Param staff_type formData int true "0 врач, 1 медсестра, 2 ассистент врача"
// @Param state_of_license formData string true "Штат лицензии"
// @Param doctor_specialty formData int false "Специальность врача"
// @Param other_specialty formData int false "Специальность остального персонала"
// @Param profile_picture formData file true "Фото профиля"
// @Param medical_license formData file true "Лицензия"
// @Success 302 "Перенаправление на страницу пользователя"
// @Failure 400 {object} response.FieldErrorsResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /users/medical-signup/ [post]
func (h *MedicalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup.medical"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := parseForm(r); err != nil {
		log.Info("failed to parse form", sl.Err(err))
		response.FieldErrors(w, r, map[string][]string{"__all__": {signup.MsgInvalidField}})
		return
	}

	picture, closePicture := formFile(r, "profile_picture")
	defer closePicture()
	license, closeLicense := formFile(r, "medical_license")
	defer closeLicense()

	form := signup.MedicalForm{
		AccountForm:     accountForm(r),
		StaffType:       choice(r, "staff_type"),
		LicensingState:  r.FormValue("state_of_license"),
		DoctorSpecialty: choice(r, "doctor_specialty"),
		OtherSpecialty:  choice(r, "other_specialty"),
		ProfilePicture:  picture,
		License:         license,
	}

	pro, err := h.service.SignupMedicalProfessional(r.Context(), form)
	if err != nil {
		fail(w, r, log, err)
		return
	}

	login(w, r, log, h.session, pro.User)
}

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func accountForm(r *http.Request) signup.AccountForm {
	return signup.AccountForm{
		Username:    r.FormValue("username"),
		Email:       r.FormValue("email"),
		Password1:   r.FormValue("password1"),
		Password2:   r.FormValue("password2"),
		FirstName:   r.FormValue("first_name"),
		LastName:    r.FormValue("last_name"),
		Gender:      choice(r, "gender"),
		PhoneNumber: r.FormValue("phone"),
	}
}

// choice разбирает числовое поле выбора; пустое поле дает nil.
func choice(r *http.Request, field string) *int {
	raw := r.FormValue(field)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		v = invalidChoice
	}
	return &v
}

// formFile возвращает загруженный файл и функцию его закрытия.
func formFile(r *http.Request, field string) (*signup.Upload, func()) {
	if r.MultipartForm == nil {
		return nil, func() {}
	}
	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, func() {}
	}
	return &signup.Upload{Filename: header.Filename, Content: f}, func() { closeFile(f) }
}

func closeFile(f multipart.File) {
	_ = f.Close()
}

func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var fe signup.FormErrors
	if errors.As(err, &fe) {
		log.Info("signup form rejected", slog.Int("fields", len(fe)))
		response.FieldErrors(w, r, fe)
		return
	}
	response.Fail(w, r, log, err)
}

func login(w http.ResponseWriter, r *http.Request, log *slog.Logger, session Session, user models.User) {
	if err := session.Login(w, r, user.UUID, user.Username); err != nil {
		log.Error("failed to establish session", sl.Err(err))
	}
	log.Info("user signed up", slog.String("username", user.Username))
	http.Redirect(w, r, access.UserDetailPath(user.Username), http.StatusFound)
}
