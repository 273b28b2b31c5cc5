package controller

import (
	"attendance_backend/internals/features/attendance/records/dto"
	"attendance_backend/internals/features/attendance/records/service"
	helper "attendance_backend/internals/helpers"
	helperAuth "attendance_backend/internals/helpers/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RecordController struct {
	Service  *service.RecordService
	Validate *validator.Validate
}

func NewRecordController(svc *service.RecordService, v *validator.Validate) *RecordController {
	if v == nil {
		v = validator.New()
	}
	return &RecordController{Service: svc, Validate: v}
}

// GET /api/t/sessions/:id/students
func (ctl *RecordController) SessionStudents(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	sessionID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Service.GetSessionStudents(c.UserContext(), teacherID, sessionID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /api/t/sessions/:id/attendance
func (ctl *RecordController) Mark(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	sessionID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.MarkAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	items := make([]service.MarkInput, 0, len(req.Records))
	for _, r := range req.Records {
		sid, err := uuid.Parse(r.StudentID)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "student_id tidak valid: "+r.StudentID)
		}
		items = append(items, service.MarkInput{StudentID: sid, Status: dto.NormalizeStatus(r.Status)})
	}

	out, err := ctl.Service.MarkAttendance(c.UserContext(), teacherID, sessionID, items)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Absensi berhasil disimpan", out)
}

// PATCH /api/t/attendance/records/:id
func (ctl *RecordController) Update(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	recordID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.UpdateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	out, err := ctl.Service.UpdateAttendanceRecord(c.UserContext(), teacherID, recordID, dto.NormalizeStatus(req.Status), req.Reason)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	msg := "Record absensi diperbarui"
	if !out.Changed {
		msg = "Status tidak berubah"
	}
	return helper.JsonUpdated(c, msg, out)
}

// GET /api/t/attendance/records/:id/edits
func (ctl *RecordController) Edits(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetTeacherID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	recordID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Service.ListRecordEdits(c.UserContext(), teacherID, recordID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}
