package route

import (
	"attendance_backend/internals/features/users/user/controller"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserRoutes: grup /api/u (semua role yang login).
func UserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewMeController(db)
	r.Get("/me", ctl.Me)
}
