// Package profile определяет вид профиля пользователя для текущего запроса.
//
// Пользователь может иметь либо профиль пациента, либо профиль медицинского
// работника. Результат определения вычисляется один раз на запрос и
// передается дальше через context.
package profile

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/medico/internal/models"
)

// Kind вид профиля.
type Kind string

const (
	Anonymous  Kind = "anonymous"
	Customer   Kind = "customer"
	MedicalPro Kind = "medical_pro"
)

// Resolution результат определения профиля. Для Customer заполнено поле
// Customer, для MedicalPro поле MedicalPro. User заполнен для любого
// аутентифицированного пользователя, даже без профиля.
type Resolution struct {
	Kind       Kind
	User       *models.User
	Customer   *models.Customer
	MedicalPro *models.MedicalProfessional
}

// Authenticated сообщает, был ли запрос выполнен от имени пользователя.
func (r Resolution) Authenticated() bool {
	return r.User != nil
}

// Repository источник пользователей и профилей.
type Repository interface {
	FindUserByUID(ctx context.Context, userUID string) (models.User, bool, error)
	FindCustomer(ctx context.Context, userUID string) (models.Customer, bool, error)
	FindMedicalProfessional(ctx context.Context, userUID string) (models.MedicalProfessional, bool, error)
}

// Resolver определяет профиль пользователя.
type Resolver struct {
	repo Repository
}

// NewResolver создает Resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve возвращает вид профиля для пользователя с userUID.
// Пустой userUID означает анонимный запрос. Профиль пациента проверяется первым.
func (r *Resolver) Resolve(ctx context.Context, userUID string) (Resolution, error) {
	const op = "profile.Resolve"

	if userUID == "" {
		return Resolution{Kind: Anonymous}, nil
	}

	customer, found, err := r.repo.FindCustomer(ctx, userUID)
	if err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		return Resolution{Kind: Customer, User: &customer.User, Customer: &customer}, nil
	}

	pro, found, err := r.repo.FindMedicalProfessional(ctx, userUID)
	if err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		return Resolution{Kind: MedicalPro, User: &pro.User, MedicalPro: &pro}, nil
	}

	// аутентифицирован, но профиля нет
	user, found, err := r.repo.FindUserByUID(ctx, userUID)
	if err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return Resolution{Kind: Anonymous}, nil
	}
	return Resolution{Kind: Anonymous, User: &user}, nil
}

type ctxKey struct{}

// WithResolution сохраняет результат в context.
func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, ctxKey{}, res)
}

// FromContext возвращает результат, сохраненный WithResolution.
// Если его нет, запрос считается анонимным.
func FromContext(ctx context.Context) Resolution {
	res, ok := ctx.Value(ctxKey{}).(Resolution)
	if !ok {
		return Resolution{Kind: Anonymous}
	}
	return res
}
