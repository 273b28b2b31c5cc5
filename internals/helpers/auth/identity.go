package helper

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Nama locals mengikuti yang di-set middleware AuthJWT
const (
	LocUserID    = "user_id"
	LocUserRole  = "userRole"
	LocTeacherID = "teacher_id"
	LocStudentID = "student_id"
)

func uuidFromLocals(c *fiber.Ctx, key string) (uuid.UUID, bool) {
	switch v := c.Locals(key).(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil && id != uuid.Nil
	default:
		return uuid.Nil, false
	}
}

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := uuidFromLocals(c, LocUserID)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user_id tidak ditemukan pada token")
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocUserRole).(string)
	return role
}

// GetTeacherID: teacher_id hasil resolve middleware (profil guru user ini).
func GetTeacherID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := uuidFromLocals(c, LocTeacherID)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Profil guru tidak ditemukan")
	}
	return id, nil
}

func GetStudentID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := uuidFromLocals(c, LocStudentID)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Profil siswa tidak ditemukan")
	}
	return id, nil
}
