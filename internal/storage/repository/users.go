package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/medico/internal/models"
)

const userColumns = `u.uid, u.email, u.username, u.password_hash, u.first_name, u.last_name,
	u.gender, u.phone_number, u.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (models.User, error) {
	var u models.User
	dest := append([]any{&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Gender, &u.PhoneNumber, &u.CreatedAt}, extra...)
	err := row.Scan(dest...)
	return u, err
}

func insertUser(ctx context.Context, tx *sql.Tx, user models.User) (models.User, error) {
	query := `INSERT INTO users (email, username, password_hash, first_name, last_name,
			      gender, phone_number)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid, created_at`
	if err := tx.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName,
		user.Gender, user.PhoneNumber).Scan(&user.UUID, &user.CreatedAt); err != nil {
		return models.User{}, uniqueField(err)
	}
	return user, nil
}

// CreateCustomer атомарно создает пользователя и профиль пациента.
func (s *Storage) CreateCustomer(ctx context.Context, user models.User, customer models.Customer) (models.Customer, error) {
	const op = "storage.CreateCustomer"
	select {
	case <-ctx.Done():
		return models.Customer{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		created, err := insertUser(ctx, tx, user)
		if err != nil {
			return err
		}
		customer.User = created

		query := `INSERT INTO customers (user_uid, dob) VALUES ($1, $2) RETURNING created_at`
		return tx.QueryRowContext(ctx, query, created.UUID, customer.DateOfBirth).Scan(&customer.CreatedAt)
	})
	if err != nil {
		return models.Customer{}, fmt.Errorf("%s: %w", op, err)
	}
	return customer, nil
}

// CreateMedicalProfessional атомарно создает пользователя и профиль медицинского работника.
func (s *Storage) CreateMedicalProfessional(ctx context.Context, user models.User, pro models.MedicalProfessional) (models.MedicalProfessional, error) {
	const op = "storage.CreateMedicalProfessional"
	select {
	case <-ctx.Done():
		return models.MedicalProfessional{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	doctor, other := pro.SpecialtyColumns()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		created, err := insertUser(ctx, tx, user)
		if err != nil {
			return err
		}
		pro.User = created

		query := `INSERT INTO medical_professionals (user_uid, staff_type, state_of_licensure,
				      is_verified, doctor_specialty, other_specialty, profile_picture, license)
				  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				  RETURNING created_at`
		return tx.QueryRowContext(ctx, query,
			created.UUID, pro.StaffType, pro.LicensingState, pro.IsVerified,
			doctor, other, pro.ProfilePicture, pro.LicenseFile).Scan(&pro.CreatedAt)
	})
	if err != nil {
		return models.MedicalProfessional{}, fmt.Errorf("%s: %w", op, err)
	}
	return pro, nil
}

// FindUserByUID возвращает пользователя по UID.
func (s *Storage) FindUserByUID(ctx context.Context, userUID string) (models.User, bool, error) {
	const op = "storage.FindUserByUID"
	select {
	case <-ctx.Done():
		return models.User{}, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, true, nil
}

// FindUserByUsername возвращает пользователя по username.
func (s *Storage) FindUserByUsername(ctx context.Context, username string) (models.User, bool, error) {
	const op = "storage.FindUserByUsername"
	select {
	case <-ctx.Done():
		return models.User{}, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, true, nil
}

// FindCustomer возвращает профиль пациента пользователя, если он есть.
func (s *Storage) FindCustomer(ctx context.Context, userUID string) (models.Customer, bool, error) {
	const op = "storage.FindCustomer"
	select {
	case <-ctx.Done():
		return models.Customer{}, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `, c.dob, c.created_at
			  FROM customers c JOIN users u ON u.uid = c.user_uid
			  WHERE c.user_uid = $1`
	var c models.Customer
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID), &c.DateOfBirth, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, false, nil
	}
	if err != nil {
		return models.Customer{}, false, fmt.Errorf("%s: %w", op, err)
	}
	c.User = u
	return c, true, nil
}

// FindMedicalProfessional возвращает профиль медицинского работника, если он есть.
func (s *Storage) FindMedicalProfessional(ctx context.Context, userUID string) (models.MedicalProfessional, bool, error) {
	const op = "storage.FindMedicalProfessional"
	select {
	case <-ctx.Done():
		return models.MedicalProfessional{}, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `, m.staff_type, m.state_of_licensure, m.is_verified,
			      m.doctor_specialty, m.other_specialty, m.profile_picture, m.license, m.created_at
			  FROM medical_professionals m JOIN users u ON u.uid = m.user_uid
			  WHERE m.user_uid = $1`
	var (
		m      models.MedicalProfessional
		doctor sql.NullInt16
		other  sql.NullInt16
	)
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID),
		&m.StaffType, &m.LicensingState, &m.IsVerified, &doctor, &other,
		&m.ProfilePicture, &m.LicenseFile, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MedicalProfessional{}, false, nil
	}
	if err != nil {
		return models.MedicalProfessional{}, false, fmt.Errorf("%s: %w", op, err)
	}
	m.User = u

	var doctorPtr *models.DoctorSpecialty
	var otherPtr *models.OtherSpecialty
	if doctor.Valid {
		d := models.DoctorSpecialty(doctor.Int16)
		doctorPtr = &d
	}
	if other.Valid {
		o := models.OtherSpecialty(other.Int16)
		otherPtr = &o
	}
	if m.Specialty, err = models.NewSpecialty(m.StaffType, doctorPtr, otherPtr); err != nil {
		return models.MedicalProfessional{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return m, true, nil
}
