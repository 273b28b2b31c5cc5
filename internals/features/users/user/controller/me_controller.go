package controller

import (
	"attendance_backend/internals/features/users/user/service"
	helper "attendance_backend/internals/helpers"
	helperAuth "attendance_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeController struct {
	DB *gorm.DB
}

func NewMeController(db *gorm.DB) *MeController {
	return &MeController{DB: db}
}

// identitas dibangun ulang dari locals yang diisi AuthJWT
func identityFromLocals(c *fiber.Ctx) (service.Identity, error) {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return service.Identity{}, err
	}
	id := service.Identity{UserID: userID, Role: helperAuth.GetRole(c)}
	if tid, err := helperAuth.GetTeacherID(c); err == nil {
		id.TeacherID = tid
	}
	if sid, err := helperAuth.GetStudentID(c); err == nil {
		id.StudentID = sid
	}
	if id.TeacherID == uuid.Nil && id.StudentID == uuid.Nil {
		return id, helper.NotFound("Profil untuk akun ini belum tersedia")
	}
	return id, nil
}

// GET /api/u/me → {"role": "...", "profile": {...}}
func (ctl *MeController) Me(c *fiber.Ctx) error {
	id, err := identityFromLocals(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := service.GetProfile(c.UserContext(), ctl.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}
