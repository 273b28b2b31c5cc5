package helper

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsDuplicateKey: unique violation (SQLSTATE 23505) dari pgx, fallback cek pesan
// untuk driver lain (sqlite di test).
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "violates unique constraint") ||
		strings.Contains(s, "unique constraint failed")
}

// Taxonomy error yang dipakai service (dibaca handler via FromFiberError).
func NotFound(msg string) error   { return fiber.NewError(fiber.StatusNotFound, msg) }
func Forbidden(msg string) error  { return fiber.NewError(fiber.StatusForbidden, msg) }
func BadRequest(msg string) error { return fiber.NewError(fiber.StatusBadRequest, msg) }

// Internal membungkus error persistence; pesan asli tidak dibocorkan ke client.
func Internal(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}

type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *InternalError) Unwrap() error { return e.Err }

// StatusOf mengembalikan HTTP status untuk error service.
func StatusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// IsStatus dipakai test & caller lain untuk cek kategori error.
func IsStatus(err error, code int) bool {
	return err != nil && StatusOf(err) == code
}
