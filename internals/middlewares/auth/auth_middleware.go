// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"errors"
	"log"
	"strings"

	userService "attendance_backend/internals/features/users/user/service"
	helperAuth "attendance_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ambil token dari Authorization header, fallback cookie access_token
func extractBearerToken(c *fiber.Ctx) (string, error) {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth == "" {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", errors.New("unauthorized - No token provided")
	}

	// toleransi spasi ganda & case-insensitive
	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errors.New("unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", errors.New("unauthorized - Empty token")
	}
	return tok, nil
}

// AuthJWT: verifikasi token lalu resolve identitas dari DB (role + profil guru/siswa).
func AuthJWT(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if secret == "" {
			log.Println("[ERROR] JWT_SECRET kosong")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		claims, err := helperAuth.ParseAccessToken(tokenString, secret)
		if err != nil {
			log.Println("[AUTH] token ditolak:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token tidak valid")
		}
		userID, err := helperAuth.ExtractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}

		id, err := userService.ResolveIdentity(c.UserContext(), db, userID)
		switch {
		case errors.Is(err, userService.ErrUserNotFound):
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - User not found")
		case errors.Is(err, userService.ErrUserInactive):
			return fiber.NewError(fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
		case err != nil:
			log.Println("[ERROR] resolve identity:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}

		StoreIdentity(c, id)
		return c.Next()
	}
}

// StoreIdentity menaruh identitas ke locals (dipakai juga oleh test controller).
func StoreIdentity(c *fiber.Ctx, id userService.Identity) {
	c.Locals(helperAuth.LocUserID, id.UserID)
	c.Locals(helperAuth.LocUserRole, id.Role)
	if id.IsTeacher() {
		c.Locals(helperAuth.LocTeacherID, id.TeacherID)
	}
	if id.IsStudent() {
		c.Locals(helperAuth.LocStudentID, id.StudentID)
	}
}
