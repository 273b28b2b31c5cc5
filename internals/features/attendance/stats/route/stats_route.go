package route

import (
	"attendance_backend/internals/features/attendance/stats/controller"

	"github.com/gofiber/fiber/v2"
)

// StatsTeacherRoutes: grup /api/t.
func StatsTeacherRoutes(r fiber.Router, ctl *controller.StatsController) {
	r.Get("/enrollments/:enrollment_id/summary", ctl.EnrollmentSummary)
}

// StatsStudentRoutes: grup /api/s.
func StatsStudentRoutes(r fiber.Router, ctl *controller.StatsController) {
	g := r.Group("/attendance")
	g.Get("/summary", ctl.MySummary)
	g.Get("/enrollments/:enrollment_id", ctl.MyEnrollment)
}
