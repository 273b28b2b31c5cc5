package route

import (
	"attendance_backend/internals/features/attendance/sessions/controller"

	"github.com/gofiber/fiber/v2"
)

// SessionTeacherRoutes: grup /api/t (auth + role teacher dipasang di index route).
func SessionTeacherRoutes(r fiber.Router, ctl *controller.SessionController) {
	g := r.Group("/sessions")
	g.Post("/", ctl.Create)
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Delete("/:id", ctl.Delete)

	r.Get("/enrollments/:enrollment_id/sessions", ctl.ListByEnrollment)
}
