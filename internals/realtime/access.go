package realtime

import (
	"context"
	"errors"
	"strings"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	userService "attendance_backend/internals/features/users/user/service"
	helperAuth "attendance_backend/internals/helpers/auth"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Identity = userService.Identity

var ErrUnauthorized = errors.New("token tidak valid")

// Access: autentikasi koneksi ws + aturan siapa boleh masuk room mana.
type Access interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
	InitialRooms(ctx context.Context, id Identity) ([]string, error)
	CanJoin(ctx context.Context, id Identity, room string) bool
}

// DBAccess: JWT yang sama dengan REST + ownership dari tabel enrollment.
type DBAccess struct {
	DB     *gorm.DB
	Secret string
}

func NewDBAccess(db *gorm.DB, secret string) *DBAccess {
	return &DBAccess{DB: db, Secret: secret}
}

func (a *DBAccess) Authenticate(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	claims, err := helperAuth.ParseAccessToken(token, a.Secret)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	userID, err := helperAuth.ExtractUserID(claims)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	id, err := userService.ResolveIdentity(ctx, a.DB, userID)
	if err != nil {
		if errors.Is(err, userService.ErrUserNotFound) || errors.Is(err, userService.ErrUserInactive) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, err
	}
	return id, nil
}

// InitialRooms: user:<id> untuk semua; siswa + batch:<id>; guru + enrollment:<id> miliknya.
func (a *DBAccess) InitialRooms(ctx context.Context, id Identity) ([]string, error) {
	rooms := []string{UserRoom(id.UserID)}
	switch {
	case id.IsStudent():
		if id.BatchID != nil {
			rooms = append(rooms, BatchRoom(*id.BatchID))
		}
	case id.IsTeacher():
		ids, err := a.ownedEnrollmentIDs(ctx, id.TeacherID)
		if err != nil {
			return nil, err
		}
		for _, eid := range ids {
			rooms = append(rooms, EnrollmentRoom(eid))
		}
	}
	return rooms, nil
}

func (a *DBAccess) CanJoin(ctx context.Context, id Identity, room string) bool {
	kind, raw, ok := strings.Cut(room, ":")
	if !ok {
		return false
	}
	target, err := uuid.Parse(raw)
	if err != nil {
		return false
	}

	switch kind {
	case "user":
		return target == id.UserID
	case "batch":
		if id.IsStudent() {
			return id.BatchID != nil && *id.BatchID == target
		}
		if id.IsTeacher() {
			return a.teachesBatch(ctx, id.TeacherID, target)
		}
	case "enrollment":
		if id.IsTeacher() {
			return a.ownsEnrollment(ctx, id.TeacherID, target)
		}
	}
	return false
}

func (a *DBAccess) ownedEnrollmentIDs(ctx context.Context, teacherID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := a.DB.WithContext(ctx).
		Model(&enrollmentModel.SubjectEnrollmentModel{}).
		Where("subject_enrollment_teacher_id = ?", teacherID).
		Pluck("subject_enrollment_id", &ids).Error
	return ids, err
}

func (a *DBAccess) ownsEnrollment(ctx context.Context, teacherID, enrollmentID uuid.UUID) bool {
	var n int64
	err := a.DB.WithContext(ctx).
		Model(&enrollmentModel.SubjectEnrollmentModel{}).
		Where("subject_enrollment_id = ? AND subject_enrollment_teacher_id = ?", enrollmentID, teacherID).
		Count(&n).Error
	return err == nil && n > 0
}

func (a *DBAccess) teachesBatch(ctx context.Context, teacherID, batchID uuid.UUID) bool {
	var n int64
	err := a.DB.WithContext(ctx).
		Model(&enrollmentModel.SubjectEnrollmentModel{}).
		Where("subject_enrollment_batch_id = ? AND subject_enrollment_teacher_id = ?", batchID, teacherID).
		Count(&n).Error
	return err == nil && n > 0
}
