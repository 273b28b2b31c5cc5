package repository

import (
	"context"
	"errors"
	"time"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	helper "attendance_backend/internals/helpers"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Kekuatan lock baris sesi di dalam transaksi (hanya diterapkan di Postgres).
const (
	LockNone   = ""
	LockUpdate = clause.LockingStrengthUpdate
	LockShare  = clause.LockingStrengthShare
)

func withLock(tx *gorm.DB, strength string) *gorm.DB {
	if strength == LockNone || tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: strength})
}

// FindEnrollment memuat enrollment + label subject/batch/guru.
func FindEnrollment(ctx context.Context, db *gorm.DB, enrollmentID uuid.UUID) (*enrollmentModel.SubjectEnrollmentModel, error) {
	var enr enrollmentModel.SubjectEnrollmentModel
	err := db.WithContext(ctx).
		Preload("Subject").Preload("Batch").Preload("Teacher.User").
		First(&enr, "subject_enrollment_id = ?", enrollmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("Enrollment tidak ditemukan")
		}
		return nil, helper.Internal("load enrollment", err)
	}
	return &enr, nil
}

// FindOwnedEnrollment: NotFound kalau tidak ada, Forbidden kalau guru sekarang bukan pemiliknya.
func FindOwnedEnrollment(ctx context.Context, db *gorm.DB, teacherID, enrollmentID uuid.UUID) (*enrollmentModel.SubjectEnrollmentModel, error) {
	enr, err := FindEnrollment(ctx, db, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enr.SubjectEnrollmentTeacherID != teacherID {
		return nil, helper.Forbidden("Anda bukan pengajar enrollment ini")
	}
	return enr, nil
}

// FindOwnedSession memuat sesi (opsional di-lock) lalu cek kepemilikan lewat enrollment-nya.
// Enrollment di-attach ke field Enrollment.
func FindOwnedSession(ctx context.Context, tx *gorm.DB, teacherID, sessionID uuid.UUID, lock string) (*sessionModel.AttendanceSessionModel, error) {
	var s sessionModel.AttendanceSessionModel
	err := withLock(tx.WithContext(ctx), lock).
		First(&s, "attendance_session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("Sesi tidak ditemukan")
		}
		return nil, helper.Internal("load session", err)
	}

	enr, err := FindOwnedEnrollment(ctx, tx, teacherID, s.AttendanceSessionEnrollmentID)
	if err != nil {
		return nil, err
	}
	s.Enrollment = enr
	return &s, nil
}

func SlotTaken(ctx context.Context, db *gorm.DB, enrollmentID uuid.UUID, date time.Time, start string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&sessionModel.AttendanceSessionModel{}).
		Where("attendance_session_enrollment_id = ? AND attendance_session_date = ? AND attendance_session_start_time = ?",
			enrollmentID, date, start).
		Count(&n).Error
	return n > 0, err
}

type ListFilter struct {
	EnrollmentID *uuid.UUID
	From         *time.Time
	To           *time.Time
	Offset       int
	Limit        int
}

// ListByTeacher: sesi dari enrollment yang SAAT INI diajar guru tsb,
// urut date DESC lalu start_time DESC.
func ListByTeacher(ctx context.Context, db *gorm.DB, teacherID uuid.UUID, f ListFilter) ([]sessionModel.AttendanceSessionModel, int64, error) {
	q := db.WithContext(ctx).
		Model(&sessionModel.AttendanceSessionModel{}).
		Joins("JOIN subject_enrollments e ON e.subject_enrollment_id = attendance_sessions.attendance_session_enrollment_id").
		Where("e.subject_enrollment_teacher_id = ?", teacherID)
	if f.EnrollmentID != nil {
		q = q.Where("attendance_sessions.attendance_session_enrollment_id = ?", *f.EnrollmentID)
	}
	if f.From != nil {
		q = q.Where("attendance_sessions.attendance_session_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("attendance_sessions.attendance_session_date <= ?", *f.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []sessionModel.AttendanceSessionModel
	q = q.Preload("Enrollment.Subject").Preload("Enrollment.Batch").
		Order("attendance_sessions.attendance_session_date DESC").
		Order("attendance_sessions.attendance_session_start_time DESC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func ListByEnrollment(ctx context.Context, db *gorm.DB, enrollmentID uuid.UUID) ([]sessionModel.AttendanceSessionModel, error) {
	var rows []sessionModel.AttendanceSessionModel
	err := db.WithContext(ctx).
		Where("attendance_session_enrollment_id = ?", enrollmentID).
		Order("attendance_session_date DESC").
		Order("attendance_session_start_time DESC").
		Find(&rows).Error
	return rows, err
}

type recordCount struct {
	SessionID uuid.UUID `gorm:"column:session_id"`
	N         int64     `gorm:"column:n"`
}

// RecordCounts: jumlah record per sesi (sesi tanpa record tidak muncul di map).
func RecordCounts(ctx context.Context, db *gorm.DB, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}
	var rows []recordCount
	err := db.WithContext(ctx).
		Table("attendance_records").
		Select("attendance_record_session_id AS session_id, COUNT(*) AS n").
		Where("attendance_record_session_id IN ?", sessionIDs).
		Group("attendance_record_session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.SessionID] = r.N
	}
	return out, nil
}
