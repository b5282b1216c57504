// Package models содержит доменные модели пользователей, профилей
// и зеркальных записей платежного провайдера.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import (
	"strings"
	"time"
)

// Gender пол пользователя.
type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
	GenderOther
)

// Valid проверяет, что значение входит в перечисление.
func (g Gender) Valid() bool {
	return g >= GenderMale && g <= GenderOther
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	case GenderOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    `json:"uid"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Gender       Gender    `json:"gender"`
	PhoneNumber  string    `json:"phone_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName возвращает имя и фамилию через пробел.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// courtesyTitle обращение по полу.
func (u User) courtesyTitle() string {
	if u.Gender == GenderMale {
		return "Mr."
	}
	return "Ms."
}
