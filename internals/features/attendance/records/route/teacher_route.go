package route

import (
	"attendance_backend/internals/features/attendance/records/controller"

	"github.com/gofiber/fiber/v2"
)

// RecordTeacherRoutes: markLimiter dipasang khusus endpoint tulis massal.
func RecordTeacherRoutes(r fiber.Router, ctl *controller.RecordController, markLimiter fiber.Handler) {
	r.Get("/sessions/:id/students", ctl.SessionStudents)
	r.Post("/sessions/:id/attendance", markLimiter, ctl.Mark)

	rec := r.Group("/attendance/records")
	rec.Patch("/:id", markLimiter, ctl.Update)
	rec.Get("/:id/edits", ctl.Edits)
}
