// file: internals/features/attendance/sessions/model/session_model.go
package model

import (
	"time"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	"attendance_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionType string

const (
	SessionRegular SessionType = "REGULAR"
	SessionMakeup  SessionType = "MAKEUP"
	SessionExtra   SessionType = "EXTRA"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionRegular, SessionMakeup, SessionExtra:
		return true
	default:
		return false
	}
}

/*
=========================================================

	AttendanceSession: satu pertemuan dari sebuah enrollment.
	Unik per (enrollment, date, start_time).
	=========================================================
*/
type AttendanceSessionModel struct {
	AttendanceSessionID           uuid.UUID   `gorm:"type:uuid;primaryKey;column:attendance_session_id" json:"attendance_session_id"`
	AttendanceSessionEnrollmentID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_session_slot,priority:1;column:attendance_session_enrollment_id" json:"attendance_session_enrollment_id"`
	AttendanceSessionDate         time.Time   `gorm:"type:date;not null;uniqueIndex:uq_attendance_session_slot,priority:2;index;column:attendance_session_date" json:"attendance_session_date"`
	AttendanceSessionStartTime    dbtime.Tod  `gorm:"type:time;not null;uniqueIndex:uq_attendance_session_slot,priority:3;column:attendance_session_start_time" json:"attendance_session_start_time"`
	AttendanceSessionEndTime      dbtime.Tod  `gorm:"type:time;not null;column:attendance_session_end_time" json:"attendance_session_end_time"`
	AttendanceSessionType         SessionType `gorm:"type:varchar(16);not null;default:'REGULAR';column:attendance_session_type" json:"attendance_session_type"`

	// didenormalisasi dari enrollment saat dibuat, tidak pernah diubah
	AttendanceSessionTeacherID uuid.UUID `gorm:"type:uuid;not null;index;column:attendance_session_teacher_id;<-:create" json:"attendance_session_teacher_id"`

	AttendanceSessionCreatedAt time.Time `gorm:"autoCreateTime;column:attendance_session_created_at" json:"attendance_session_created_at"`
	AttendanceSessionUpdatedAt time.Time `gorm:"autoUpdateTime;column:attendance_session_updated_at" json:"attendance_session_updated_at"`

	Enrollment *enrollmentModel.SubjectEnrollmentModel `gorm:"foreignKey:AttendanceSessionEnrollmentID;references:SubjectEnrollmentID;constraint:OnDelete:RESTRICT" json:"enrollment,omitempty"`
}

func (AttendanceSessionModel) TableName() string { return "attendance_sessions" }

func (m *AttendanceSessionModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceSessionID == uuid.Nil {
		m.AttendanceSessionID = uuid.New()
	}
	if m.AttendanceSessionType == "" {
		m.AttendanceSessionType = SessionRegular
	}
	m.AttendanceSessionDate = dbtime.NormalizeDate(m.AttendanceSessionDate)
	return nil
}
