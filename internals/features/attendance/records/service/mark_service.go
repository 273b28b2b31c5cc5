package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"attendance_backend/internals/features/attendance/records/dto"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	sessionRepo "attendance_backend/internals/features/attendance/sessions/repository"
	helper "attendance_backend/internals/helpers"
	"attendance_backend/internals/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MarkInput struct {
	StudentID uuid.UUID
	Status    recordModel.AttendanceStatus
}

const maxMarkBatch = 500

func validateMarkInput(items []MarkInput) error {
	if len(items) == 0 {
		return helper.BadRequest("records wajib diisi")
	}
	if len(items) > maxMarkBatch {
		return helper.BadRequest(fmt.Sprintf("maksimal %d record per request", maxMarkBatch))
	}
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		if it.StudentID == uuid.Nil {
			return helper.BadRequest("student_id wajib diisi")
		}
		if !it.Status.Valid() {
			return helper.BadRequest("Status tidak valid: " + string(it.Status))
		}
		if _, dup := seen[it.StudentID]; dup {
			return helper.BadRequest("student_id duplikat dalam payload: " + it.StudentID.String())
		}
		seen[it.StudentID] = struct{}{}
	}
	return nil
}

var upsertOnSessionStudent = clause.OnConflict{
	Columns: []clause.Column{
		{Name: "attendance_record_session_id"},
		{Name: "attendance_record_student_id"},
	},
	DoUpdates: clause.AssignmentColumns([]string{
		"attendance_record_status",
		"attendance_record_marked_at",
		"attendance_record_marked_by",
		"attendance_record_updated_at",
	}),
}

// MarkAttendance: upsert per (session, student) dalam SATU transaksi.
// Satu student_id di luar batch → seluruh payload ditolak, tidak ada baris yang ditulis.
func (s *RecordService) MarkAttendance(ctx context.Context, teacherID, sessionID uuid.UUID, items []MarkInput) (*dto.MarkAttendanceResponse, error) {
	if err := validateMarkInput(items); err != nil {
		return nil, err
	}

	var (
		sess    *sessionModel.AttendanceSessionModel
		changed []MarkedStudent
		out     = &dto.MarkAttendanceResponse{SessionID: sessionID}
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sess, err = sessionRepo.FindOwnedSession(ctx, tx, teacherID, sessionID, sessionRepo.LockShare)
		if err != nil {
			return err
		}

		students, err := batchStudents(ctx, tx, sess.Enrollment.SubjectEnrollmentBatchID)
		if err != nil {
			return helper.Internal("load batch students", err)
		}
		inBatch := make(map[uuid.UUID]Student, len(students))
		for i := range students {
			inBatch[students[i].StudentID] = studentFromModel(&students[i])
		}

		var outsiders []string
		ids := make([]uuid.UUID, 0, len(items))
		for _, it := range items {
			if _, ok := inBatch[it.StudentID]; !ok {
				outsiders = append(outsiders, it.StudentID.String())
			}
			ids = append(ids, it.StudentID)
		}
		if len(outsiders) > 0 {
			return helper.BadRequest("Siswa tidak terdaftar di batch sesi ini: " + strings.Join(outsiders, ", "))
		}

		var existing []recordModel.AttendanceRecordModel
		if err := tx.Select("attendance_record_student_id", "attendance_record_status").
			Where("attendance_record_session_id = ? AND attendance_record_student_id IN ?", sessionID, ids).
			Find(&existing).Error; err != nil {
			return helper.Internal("load existing records", err)
		}
		prev := make(map[uuid.UUID]recordModel.AttendanceStatus, len(existing))
		for _, r := range existing {
			prev[r.AttendanceRecordStudentID] = r.AttendanceRecordStatus
		}

		now := time.Now().UTC()
		for _, it := range items {
			rec := recordModel.AttendanceRecordModel{
				AttendanceRecordSessionID: sessionID,
				AttendanceRecordStudentID: it.StudentID,
				AttendanceRecordStatus:    it.Status,
				AttendanceRecordMarkedAt:  now,
				AttendanceRecordMarkedBy:  teacherID,
			}
			if err := tx.Clauses(upsertOnSessionStudent).Create(&rec).Error; err != nil {
				return helper.Internal("upsert attendance record", err)
			}

			old, existed := prev[it.StudentID]
			switch {
			case !existed:
				out.Created++
			case old != it.Status:
				out.Updated++
			default:
				out.Unchanged++
				continue
			}
			changed = append(changed, MarkedStudent{Student: inBatch[it.StudentID], Status: it.Status})
		}

		var saved []recordModel.AttendanceRecordModel
		if err := tx.Where("attendance_record_session_id = ? AND attendance_record_student_id IN ?", sessionID, ids).
			Find(&saved).Error; err != nil {
			return helper.Internal("reload records", err)
		}
		out.Records = make([]dto.RecordResponse, 0, len(saved))
		for i := range saved {
			out.Records = append(out.Records, dto.FromRecord(&saved[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Marked = len(items)
	for _, it := range items {
		metrics.RecordsMarkedTotal.WithLabelValues(string(it.Status)).Inc()
	}
	log.Printf("[MARK] session=%s teacher=%s marked=%d created=%d updated=%d unchanged=%d",
		sessionID, teacherID, out.Marked, out.Created, out.Updated, out.Unchanged)

	if s.Notifier != nil {
		s.Notifier.AttendanceMarked(ctx, MarkEvent{
			Session:     sess,
			MarkedCount: out.Marked,
			Changed:     changed,
		})
	}
	return out, nil
}
