// Package signup регистрирует пациентов и медицинских работников.
// Пользователь и профиль создаются атомарно.
package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/medico/internal/config"
	"github.com/magabrotheeeer/medico/internal/lib/password"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/lib/uploads"
	"github.com/magabrotheeeer/medico/internal/metrics"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/storage/repository"
)

const dateLayout = "2006-01-02"

// Каталоги загрузок медицинских работников.
const (
	PicturesDir = "profile_pictures"
	LicensesDir = "licenses"
)

// FormErrors ошибки по полям формы.
type FormErrors map[string][]string

func (e FormErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid signup form: " + strings.Join(fields, ", ")
}

func (e FormErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Repository хранилище пользователей.
type Repository interface {
	CreateCustomer(ctx context.Context, user models.User, customer models.Customer) (models.Customer, error)
	CreateMedicalProfessional(ctx context.Context, user models.User, pro models.MedicalProfessional) (models.MedicalProfessional, error)
}

// Service регистрация пользователей.
type Service struct {
	repo     Repository
	uploads  uploads.Store
	validate *validator.Validate
	cfg      config.Signup
	now      func() time.Time
	log      *slog.Logger
}

// New создает Service.
func New(repo Repository, store uploads.Store, cfg config.Signup, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		uploads:  store,
		validate: newValidator(),
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// SignupCustomer проверяет форму и создает пользователя с профилем пациента.
func (s *Service) SignupCustomer(ctx context.Context, form CustomerForm) (models.Customer, error) {
	const op = "signup.SignupCustomer"

	customer, err := s.signupCustomer(ctx, form)
	metrics.Signups.WithLabelValues("customer", metrics.Outcome(err)).Inc()
	if err != nil {
		return models.Customer{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("customer signed up", slog.String("op", op), slog.String("username", customer.User.Username))
	return customer, nil
}

func (s *Service) signupCustomer(ctx context.Context, form CustomerForm) (models.Customer, error) {
	errs := s.validateStruct(form)

	var dob time.Time
	if form.DateOfBirth != "" {
		var err error
		dob, err = time.Parse(dateLayout, form.DateOfBirth)
		switch {
		case err != nil:
			errs.add("dob", MsgInvalidDate)
		case !s.oldEnough(dob):
			errs.add("dob", MsgUnderage)
		}
	}
	if len(errs) > 0 {
		return models.Customer{}, errs
	}

	user, err := s.newUser(form.AccountForm)
	if err != nil {
		return models.Customer{}, err
	}
	created, err := s.repo.CreateCustomer(ctx, user, models.Customer{DateOfBirth: dob})
	if err != nil {
		return models.Customer{}, uniqueToForm(err)
	}
	return created, nil
}

// SignupMedicalProfessional проверяет форму, сохраняет файлы и создает
// пользователя с профилем медицинского работника. Если профиль не создан,
// сохраненные файлы удаляются.
func (s *Service) SignupMedicalProfessional(ctx context.Context, form MedicalForm) (models.MedicalProfessional, error) {
	const op = "signup.SignupMedicalProfessional"

	pro, err := s.signupMedicalProfessional(ctx, form)
	metrics.Signups.WithLabelValues("medical_pro", metrics.Outcome(err)).Inc()
	if err != nil {
		return models.MedicalProfessional{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("medical professional signed up", slog.String("op", op), slog.String("username", pro.User.Username))
	return pro, nil
}

func (s *Service) signupMedicalProfessional(ctx context.Context, form MedicalForm) (models.MedicalProfessional, error) {
	errs := s.validateStruct(form)

	var specialty models.Specialty
	if form.StaffType != nil && errs["staff_type"] == nil {
		staff := models.StaffType(*form.StaffType)
		var doctor *models.DoctorSpecialty
		var other *models.OtherSpecialty
		if form.DoctorSpecialty != nil {
			d := models.DoctorSpecialty(*form.DoctorSpecialty)
			doctor = &d
		}
		if form.OtherSpecialty != nil {
			o := models.OtherSpecialty(*form.OtherSpecialty)
			other = &o
		}

		field := "other_specialty"
		if staff == models.StaffDoctor {
			field = "doctor_specialty"
		}
		var err error
		specialty, err = models.NewSpecialty(staff, doctor, other)
		switch {
		case errors.Is(err, models.ErrSpecialtyRequired):
			errs.add(field, MsgRequired)
		case errors.Is(err, models.ErrInvalidSpecialty):
			if errs[field] == nil {
				errs.add(field, MsgInvalidChoice)
			}
		case err != nil:
			errs.add("staff_type", MsgInvalidChoice)
		}
	}
	if len(errs) > 0 {
		return models.MedicalProfessional{}, errs
	}

	user, err := s.newUser(form.AccountForm)
	if err != nil {
		return models.MedicalProfessional{}, err
	}

	picture, err := s.uploads.Save(ctx, PicturesDir, form.ProfilePicture.Filename, form.ProfilePicture.Content)
	if err != nil {
		return models.MedicalProfessional{}, err
	}
	license, err := s.uploads.Save(ctx, LicensesDir, form.License.Filename, form.License.Content)
	if err != nil {
		s.removeUploads(ctx, picture)
		return models.MedicalProfessional{}, err
	}

	created, err := s.repo.CreateMedicalProfessional(ctx, user, models.MedicalProfessional{
		StaffType:      models.StaffType(*form.StaffType),
		LicensingState: strings.ToUpper(form.LicensingState),
		Specialty:      specialty,
		ProfilePicture: picture,
		LicenseFile:    license,
	})
	if err != nil {
		s.removeUploads(ctx, picture, license)
		return models.MedicalProfessional{}, uniqueToForm(err)
	}
	return created, nil
}

// validateStruct возвращает ошибки по полям; пустая карта означает успех.
func (s *Service) validateStruct(form any) FormErrors {
	errs := FormErrors{}
	err := s.validate.Struct(form)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add("__all__", MsgInvalidField)
		return errs
	}
	for _, fe := range verrs {
		errs.add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

func (s *Service) newUser(form AccountForm) (models.User, error) {
	hash, err := password.GetHash(form.Password1)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		Username:     form.Username,
		Email:        strings.ToLower(form.Email),
		PasswordHash: hash,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Gender:       models.Gender(*form.Gender),
		PhoneNumber:  form.PhoneNumber,
	}, nil
}

// oldEnough сравнивает дату рождения с сегодняшней датой минус минимальный
// возраст в часовом поясе из конфига. Ровно MinimumAge лет проходит проверку.
func (s *Service) oldEnough(dob time.Time) bool {
	cutoff := AgeCutoff(s.now().In(s.cfg.Location()), s.cfg.MinimumAge)
	y, m, d := dob.Date()
	return !time.Date(y, m, d, 0, 0, 0, 0, time.UTC).After(cutoff)
}

// AgeCutoff возвращает дату ровно years лет назад относительно today.
// 29 февраля в невисокосный год превращается в 28 февраля.
func AgeCutoff(today time.Time, years int) time.Time {
	y, m, d := today.Date()
	y -= years
	if m == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func (s *Service) removeUploads(ctx context.Context, names ...string) {
	for _, name := range names {
		if err := s.uploads.Remove(ctx, name); err != nil {
			s.log.Error("failed to remove upload", slog.String("name", name), sl.Err(err))
		}
	}
}

// uniqueToForm превращает нарушение уникальности в ошибку поля.
func uniqueToForm(err error) error {
	var uv *repository.UniqueViolationError
	if !errors.As(err, &uv) {
		return err
	}
	switch uv.Field {
	case "username":
		return FormErrors{"username": {MsgUsernameTaken}}
	case "email":
		return FormErrors{"email": {MsgEmailTaken}}
	}
	return err
}
