// Package repository реализует хранилище данных на основе PostgreSQL:
// пользователи и их профили, зеркала записей платежного провайдера
// и журнал оформления консультаций.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

var (
	// ErrAttemptNotPending попытка оформления уже закрыта или не существует.
	ErrAttemptNotPending = errors.New("checkout attempt is not pending")
)

// UniqueViolationError нарушено ограничение уникальности; Field указывает поле формы.
type UniqueViolationError struct {
	Field string
	Err   error
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s already exists: %v", e.Field, e.Err)
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

// withTx выполняет fn в транзакции; при ошибке транзакция откатывается.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// uniqueField превращает нарушение уникальности users в ошибку с именем поля.
func uniqueField(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	field := pgErr.ColumnName
	switch pgErr.ConstraintName {
	case "users_username_key":
		field = "username"
	case "users_email_key":
		field = "email"
	}
	return &UniqueViolationError{Field: field, Err: err}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
