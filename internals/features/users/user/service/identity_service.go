package service

import (
	"context"
	"errors"

	userModel "attendance_backend/internals/features/users/user/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user tidak ditemukan")
	ErrUserInactive = errors.New("user nonaktif")
)

// Identity: identitas caller setelah token diverifikasi.
// TeacherID / StudentID terisi sesuai role.
type Identity struct {
	UserID    uuid.UUID
	Role      string
	TeacherID uuid.UUID
	StudentID uuid.UUID
	BatchID   *uuid.UUID
}

func (i Identity) IsTeacher() bool { return i.Role == userModel.RoleTeacher && i.TeacherID != uuid.Nil }
func (i Identity) IsStudent() bool { return i.Role == userModel.RoleStudent && i.StudentID != uuid.Nil }

// ResolveIdentity: cek user aktif lalu ambil profil guru/siswa-nya.
// Role diambil dari DB, bukan dari klaim token.
func ResolveIdentity(ctx context.Context, db *gorm.DB, userID uuid.UUID) (Identity, error) {
	var u userModel.UserModel
	if err := db.WithContext(ctx).
		Select("id", "role", "is_active").
		First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrUserNotFound
		}
		return Identity{}, err
	}
	if !u.IsActive {
		return Identity{}, ErrUserInactive
	}

	id := Identity{UserID: u.ID, Role: u.Role}
	switch u.Role {
	case userModel.RoleTeacher:
		var t userModel.TeacherModel
		err := db.WithContext(ctx).Select("teacher_id").
			Where("teacher_user_id = ?", u.ID).Take(&t).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, err
		}
		id.TeacherID = t.TeacherID
	case userModel.RoleStudent:
		var s userModel.StudentModel
		err := db.WithContext(ctx).Select("student_id", "student_batch_id").
			Where("student_user_id = ?", u.ID).Take(&s).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, err
		}
		id.StudentID = s.StudentID
		id.BatchID = s.StudentBatchID
	}
	return id, nil
}
