package service

import (
	"context"
	"errors"
	"strings"
	"time"

	authRepo "attendance_backend/internals/features/users/auth/repository"
	helper "attendance_backend/internals/helpers"
	helperAuth "attendance_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const AccessTTLDefault = 12 * time.Hour

var errBadCredentials = fiber.NewError(fiber.StatusUnauthorized, "Identifier atau Password salah")

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
}

// Login: identifier = email atau username. Token hanya membawa id, role, exp;
// profil guru/siswa di-resolve ulang per request oleh AuthJWT.
func Login(ctx context.Context, db *gorm.DB, secret, identifier, password string, ttl time.Duration) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, helper.BadRequest("identifier dan password wajib diisi")
	}
	if ttl <= 0 {
		ttl = AccessTTLDefault
	}

	u, err := authRepo.FindUserByEmailOrUsernameLight(db.WithContext(ctx), identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadCredentials
		}
		return nil, helper.Internal("find user", err)
	}
	if !u.IsActive {
		return nil, helper.Forbidden("Akun Anda telah dinonaktifkan. Hubungi admin.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, errBadCredentials
	}

	now := time.Now().UTC()
	tok, err := helperAuth.SignAccessToken(secret, u.ID, u.Role, ttl)
	if err != nil {
		return nil, helper.Internal("sign token", err)
	}
	return &LoginResult{AccessToken: tok, ExpiresAt: now.Add(ttl), UserID: u.ID, Role: u.Role}, nil
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}
