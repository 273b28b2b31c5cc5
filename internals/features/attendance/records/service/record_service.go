package service

import (
	"context"

	recordModel "attendance_backend/internals/features/attendance/records/model"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	userModel "attendance_backend/internals/features/users/user/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultEditReason = "Tidak ada alasan yang diberikan"

// Student: identitas siswa yang dibawa ke fan-out (room user:<UserID>, email).
type Student struct {
	StudentID  uuid.UUID
	UserID     uuid.UUID
	FullName   string
	Email      string
	RollNumber string
}

func studentFromModel(m *userModel.StudentModel) Student {
	s := Student{StudentID: m.StudentID, UserID: m.StudentUserID, RollNumber: m.StudentRollNumber}
	if m.User != nil {
		s.FullName = m.User.FullName
		s.Email = m.User.Email
	}
	return s
}

type MarkedStudent struct {
	Student
	Status recordModel.AttendanceStatus
}

// MarkEvent: dikirim ke Notifier setelah transaksi mark commit.
// Session.Enrollment sudah terisi (Subject, Batch, Teacher.User).
type MarkEvent struct {
	Session     *sessionModel.AttendanceSessionModel
	MarkedCount int
	// hanya siswa yang record-nya baru dibuat / status-nya berubah
	Changed []MarkedStudent
}

type EditEvent struct {
	Session   *sessionModel.AttendanceSessionModel
	RecordID  uuid.UUID
	Student   Student
	OldStatus recordModel.AttendanceStatus
	NewStatus recordModel.AttendanceStatus
	EditedBy  uuid.UUID
	Reason    string
}

// Notifier: fan-out pasca-commit. Implementasi wajib menelan error sendiri;
// mark/edit yang sudah commit tidak pernah gagal karenanya.
type Notifier interface {
	AttendanceMarked(ctx context.Context, ev MarkEvent)
	AttendanceEdited(ctx context.Context, ev EditEvent)
}

type RecordService struct {
	DB       *gorm.DB
	Notifier Notifier
}

func NewRecordService(db *gorm.DB, n Notifier) *RecordService {
	return &RecordService{DB: db, Notifier: n}
}

// batchStudents: siswa yang SAAT INI berada di batch, urut roll number.
func batchStudents(ctx context.Context, tx *gorm.DB, batchID uuid.UUID) ([]userModel.StudentModel, error) {
	var rows []userModel.StudentModel
	err := tx.WithContext(ctx).
		Preload("User").
		Where("student_batch_id = ?", batchID).
		Order("student_roll_number ASC").
		Find(&rows).Error
	return rows, err
}
