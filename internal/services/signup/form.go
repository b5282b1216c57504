package signup

import (
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator"
)

// Сообщения об ошибках полей формы.
const (
	MsgRequired       = "This field is required."
	MsgUnderage       = "You must be at-least 18 years old to use this website."
	MsgPhone          = "Phone number must be entered in the format: '+999999999'. Up to 15 digits allowed."
	MsgEmail          = "Enter a valid email address."
	MsgPasswordShort  = "This password is too short. It must contain at least 8 characters."
	MsgPasswordMatch  = "You must type the same password each time."
	MsgInvalidChoice  = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidDate    = "Enter a valid date."
	MsgUsernameTaken  = "This username has already been taken."
	MsgEmailTaken     = "A user is already registered with this e-mail address."
	MsgInvalidField   = "Enter a valid value."
	MsgUsernameFormat = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
)

var (
	phoneRe    = regexp.MustCompile(`^\+?1?\d{9,15}$`)
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
)

// usStates коды штатов и территорий США.
var usStates = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "DC": {}, "FL": {},
	"GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {},
	"MD": {}, "MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {}, "NH": {},
	"NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {}, "OK": {}, "OR": {}, "PA": {}, "RI": {},
	"SC": {}, "SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {},
	"WY": {}, "AS": {}, "GU": {}, "MP": {}, "PR": {}, "VI": {},
}

// Upload загруженный файл.
type Upload struct {
	Filename string
	Content  io.Reader
}

// AccountForm поля, общие для обоих видов регистрации.
type AccountForm struct {
	Username    string `form:"username" validate:"required,max=150,username"`
	Email       string `form:"email" validate:"required,email"`
	Password1   string `form:"password1" validate:"required,min=8"`
	Password2   string `form:"password2" validate:"required,eqfield=Password1"`
	FirstName   string `form:"first_name" validate:"required,max=150"`
	LastName    string `form:"last_name" validate:"required,max=150"`
	Gender      *int   `form:"gender" validate:"required,min=0,max=2"`
	PhoneNumber string `form:"phone" validate:"required,phone"`
}

// CustomerForm регистрация пациента. DateOfBirth в формате YYYY-MM-DD.
type CustomerForm struct {
	AccountForm
	DateOfBirth string `form:"dob" validate:"required"`
}

// MedicalForm регистрация медицинского работника.
// Для врача обязателен DoctorSpecialty, для остальных OtherSpecialty.
type MedicalForm struct {
	AccountForm
	StaffType       *int    `form:"staff_type" validate:"required,min=0,max=2"`
	LicensingState  string  `form:"state_of_license" validate:"required,usstate"`
	DoctorSpecialty *int    `form:"doctor_specialty" validate:"omitempty,min=0,max=3"`
	OtherSpecialty  *int    `form:"other_specialty" validate:"omitempty,min=0,max=4"`
	ProfilePicture  *Upload `form:"profile_picture" validate:"required"`
	License         *Upload `form:"medical_license" validate:"required"`
}

// newValidator создает validator с правилами формы регистрации.
// Имена полей в ошибках берутся из тега form.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("usstate", func(fl validator.FieldLevel) bool {
		_, ok := usStates[strings.ToUpper(fl.Field().String())]
		return ok
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return v
}

// fieldMessage текст ошибки для нарушенного правила.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "phone":
		return MsgPhone
	case "email":
		return MsgEmail
	case "eqfield":
		return MsgPasswordMatch
	case "usstate":
		return MsgInvalidChoice
	case "username":
		return MsgUsernameFormat
	case "min", "max":
		if fe.Field() == "password1" {
			return MsgPasswordShort
		}
		if fe.Kind() == reflect.Int {
			return MsgInvalidChoice
		}
		return MsgInvalidField
	default:
		return MsgInvalidField
	}
}
