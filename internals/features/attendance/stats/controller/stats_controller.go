package controller

import (
	"attendance_backend/internals/features/attendance/stats/service"
	helper "attendance_backend/internals/helpers"
	helperAuth "attendance_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
)

type StatsController struct {
	Service *service.StatsService
}

func NewStatsController(svc *service.StatsService) *StatsController {
	return &StatsController{Service: svc}
}

// GET /api/t/enrollments/:enrollment_id/summary
func (ctl *StatsController) EnrollmentSummary(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	enrollmentID, err := helper.ParseUUIDParam(c, "enrollment_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Service.EnrollmentSummary(c.UserContext(), teacherID, enrollmentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/s/attendance/summary
func (ctl *StatsController) MySummary(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Service.StudentSummary(c.UserContext(), studentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/s/attendance/enrollments/:enrollment_id
func (ctl *StatsController) MyEnrollment(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	enrollmentID, err := helper.ParseUUIDParam(c, "enrollment_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Service.StudentEnrollmentStats(c.UserContext(), studentID, enrollmentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}
