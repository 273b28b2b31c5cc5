package controller

import (
	"attendance_backend/internals/features/attendance/sessions/dto"
	"attendance_backend/internals/features/attendance/sessions/service"
	helper "attendance_backend/internals/helpers"
	helperAuth "attendance_backend/internals/helpers/auth"
	"attendance_backend/internals/helpers/dbtime"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type SessionController struct {
	Service  *service.SessionService
	Validate *validator.Validate
}

func NewSessionController(svc *service.SessionService, v *validator.Validate) *SessionController {
	if v == nil {
		v = validator.New()
	}
	return &SessionController{Service: svc, Validate: v}
}

// POST /api/t/sessions
func (ctl *SessionController) Create(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	in, err := req.Parse()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Format tanggal/jam tidak valid (YYYY-MM-DD, HH:MM)")
	}

	out, err := ctl.Service.CreateSession(c.UserContext(), teacherID, in)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Sesi berhasil dibuat", out)
}

// GET /api/t/sessions?page=&per_page=&enrollment_id=&from=&to=
func (ctl *SessionController) List(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var q dto.ListSessionsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Query tidak valid")
	}
	if err := ctl.Validate.Struct(q); err != nil {
		return helper.ValidationError(c, err)
	}

	filter := service.TeacherSessionsQuery{Paging: helper.ResolvePaging(c, 20, 100)}
	if filter.EnrollmentID, err = helper.ParseOptionalUUID(q.EnrollmentID); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "enrollment_id tidak valid")
	}
	if q.From != "" {
		from, err := dbtime.ParseDate(q.From)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "from tidak valid")
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := dbtime.ParseDate(q.To)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "to tidak valid")
		}
		filter.To = &to
	}

	items, pg, err := ctl.Service.GetTeacherSessions(c.UserContext(), teacherID, filter)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", items, pg)
}

// GET /api/t/sessions/:id
func (ctl *SessionController) Get(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Service.GetSessionByID(c.UserContext(), teacherID, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// DELETE /api/t/sessions/:id
func (ctl *SessionController) Delete(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.Service.DeleteSession(c.UserContext(), teacherID, id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "Sesi berhasil dihapus", fiber.Map{"id": id})
}

// GET /api/t/enrollments/:enrollment_id/sessions
func (ctl *SessionController) ListByEnrollment(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	enrollmentID, err := helper.ParseUUIDParam(c, "enrollment_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	items, err := ctl.Service.GetEnrollmentSessions(c.UserContext(), teacherID, enrollmentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", items)
}
