package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"attendance_backend/internals/features/attendance/records/dto"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	sessionRepo "attendance_backend/internals/features/attendance/sessions/repository"
	userModel "attendance_backend/internals/features/users/user/model"
	helper "attendance_backend/internals/helpers"
	"attendance_backend/internals/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func loadRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, forUpdate bool) (*recordModel.AttendanceRecordModel, error) {
	q := tx.WithContext(ctx)
	if forUpdate && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var rec recordModel.AttendanceRecordModel
	if err := q.First(&rec, "attendance_record_id = ?", recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("Record absensi tidak ditemukan")
		}
		return nil, helper.Internal("load record", err)
	}
	return &rec, nil
}

// UpdateAttendanceRecord: koreksi satu record. Baris audit + perubahan status
// ditulis dalam satu transaksi; status sama → no-op (changed=false).
func (s *RecordService) UpdateAttendanceRecord(ctx context.Context, teacherID, recordID uuid.UUID, newStatus recordModel.AttendanceStatus, reason *string) (*dto.UpdateRecordResponse, error) {
	if !newStatus.Valid() {
		return nil, helper.BadRequest("Status tidak valid: " + string(newStatus))
	}
	why := DefaultEditReason
	if reason != nil && strings.TrimSpace(*reason) != "" {
		why = strings.TrimSpace(*reason)
	}

	var (
		rec     *recordModel.AttendanceRecordModel
		sess    *sessionModel.AttendanceSessionModel
		edit    *recordModel.AttendanceEditModel
		student userModel.StudentModel
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = loadRecord(ctx, tx, recordID, true); err != nil {
			return err
		}
		if sess, err = sessionRepo.FindOwnedSession(ctx, tx, teacherID, rec.AttendanceRecordSessionID, sessionRepo.LockNone); err != nil {
			return err
		}
		if rec.AttendanceRecordStatus == newStatus {
			return nil
		}

		edit = &recordModel.AttendanceEditModel{
			AttendanceEditRecordID:  rec.AttendanceRecordID,
			AttendanceEditOldStatus: rec.AttendanceRecordStatus,
			AttendanceEditNewStatus: newStatus,
			AttendanceEditEditedBy:  teacherID,
			AttendanceEditReason:    why,
			AttendanceEditEditedAt:  time.Now().UTC(),
		}
		if err := tx.Create(edit).Error; err != nil {
			return helper.Internal("insert attendance edit", err)
		}

		res := tx.Model(&recordModel.AttendanceRecordModel{}).
			Where("attendance_record_id = ?", rec.AttendanceRecordID).
			Update("attendance_record_status", newStatus)
		if res.Error != nil {
			return helper.Internal("update attendance record", res.Error)
		}
		if res.RowsAffected == 0 {
			return helper.NotFound("Record absensi tidak ditemukan")
		}
		rec.AttendanceRecordStatus = newStatus

		if err := tx.Preload("User").First(&student, "student_id = ?", rec.AttendanceRecordStudentID).Error; err != nil {
			return helper.Internal("load student", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &dto.UpdateRecordResponse{Record: dto.FromRecord(rec), Changed: edit != nil}
	if edit == nil {
		return out, nil
	}
	e := dto.FromEdit(edit)
	out.Edit = &e

	metrics.EditsTotal.Inc()
	log.Printf("[MARK] edit record=%s %s→%s by=%s", rec.AttendanceRecordID, edit.AttendanceEditOldStatus, newStatus, teacherID)

	if s.Notifier != nil {
		s.Notifier.AttendanceEdited(ctx, EditEvent{
			Session:   sess,
			RecordID:  rec.AttendanceRecordID,
			Student:   studentFromModel(&student),
			OldStatus: edit.AttendanceEditOldStatus,
			NewStatus: newStatus,
			EditedBy:  teacherID,
			Reason:    why,
		})
	}
	return out, nil
}

// ListRecordEdits: jejak koreksi satu record, paling lama dulu.
func (s *RecordService) ListRecordEdits(ctx context.Context, teacherID, recordID uuid.UUID) ([]dto.EditResponse, error) {
	rec, err := loadRecord(ctx, s.DB, recordID, false)
	if err != nil {
		return nil, err
	}
	if _, err := sessionRepo.FindOwnedSession(ctx, s.DB, teacherID, rec.AttendanceRecordSessionID, sessionRepo.LockNone); err != nil {
		return nil, err
	}

	var rows []recordModel.AttendanceEditModel
	if err := s.DB.WithContext(ctx).
		Where("attendance_edit_record_id = ?", recordID).
		Order("attendance_edit_edited_at ASC").
		Find(&rows).Error; err != nil {
		return nil, helper.Internal("list edits", err)
	}
	out := make([]dto.EditResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromEdit(&rows[i]))
	}
	return out, nil
}
