package controller

import (
	"time"

	"attendance_backend/internals/features/users/auth/service"
	helper "attendance_backend/internals/helpers"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB       *gorm.DB
	Secret   string
	TTL      time.Duration
	Validate *validator.Validate
}

func NewAuthController(db *gorm.DB, secret string, ttl time.Duration) *AuthController {
	return &AuthController{DB: db, Secret: secret, TTL: ttl, Validate: validator.New()}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=3,max=255"`
	Password   string `json:"password" validate:"required,min=6"`
}

// POST /api/auth/login
func (ctl *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid input format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	out, err := service.Login(c.UserContext(), ctl.DB, ctl.Secret, req.Identifier, req.Password, ctl.TTL)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	setAuthCookie(c, out.AccessToken, out.ExpiresAt)
	return helper.JsonOK(c, "Login berhasil", out)
}

// POST /api/auth/logout: hapus cookie saja, token stateless tetap berlaku sampai exp.
func (ctl *AuthController) Logout(c *fiber.Ctx) error {
	setAuthCookie(c, "", time.Unix(0, 0))
	return helper.JsonOK(c, "Logout berhasil", nil)
}

func setAuthCookie(c *fiber.Ctx, accessToken string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  expires,
	})
}
