package route

import (
	"attendance_backend/internals/features/notifications/controller"

	"github.com/gofiber/fiber/v2"
)

// DeviceUserRoutes: grup /api/u (semua role yang login).
func DeviceUserRoutes(r fiber.Router, ctl *controller.DeviceController) {
	g := r.Group("/devices")
	g.Post("/", ctl.Register)
	g.Delete("/:token", ctl.Unregister)
}
