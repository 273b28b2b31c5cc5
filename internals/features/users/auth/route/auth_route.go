package route

import (
	"attendance_backend/internals/features/users/auth/controller"

	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(r fiber.Router, ctl *controller.AuthController, loginLimiter fiber.Handler) {
	g := r.Group("/auth")
	g.Post("/login", loginLimiter, ctl.Login)
	g.Post("/logout", ctl.Logout)
}
