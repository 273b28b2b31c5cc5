// file: internals/features/attendance/records/model/record_model.go
package model

import (
	"time"

	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	userModel "attendance_backend/internals/features/users/user/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// AllStatuses urutannya dipakai untuk ringkasan/metrics.
var AllStatuses = []AttendanceStatus{AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused}

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

/*
=========================================================

	AttendanceRecord: tanda hadir satu siswa di satu sesi.
	Unik per (session, student) → marking idempotent (upsert).
	=========================================================
*/
type AttendanceRecordModel struct {
	AttendanceRecordID        uuid.UUID        `gorm:"type:uuid;primaryKey;column:attendance_record_id" json:"attendance_record_id"`
	AttendanceRecordSessionID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_record_session_student,priority:1;column:attendance_record_session_id" json:"attendance_record_session_id"`
	AttendanceRecordStudentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_record_session_student,priority:2;index;column:attendance_record_student_id" json:"attendance_record_student_id"`
	AttendanceRecordStatus    AttendanceStatus `gorm:"type:varchar(16);not null;column:attendance_record_status" json:"attendance_record_status"`
	AttendanceRecordMarkedAt  time.Time        `gorm:"not null;column:attendance_record_marked_at" json:"attendance_record_marked_at"`
	AttendanceRecordMarkedBy  uuid.UUID        `gorm:"type:uuid;not null;column:attendance_record_marked_by" json:"attendance_record_marked_by"`
	AttendanceRecordCreatedAt time.Time        `gorm:"autoCreateTime;column:attendance_record_created_at" json:"attendance_record_created_at"`
	AttendanceRecordUpdatedAt time.Time        `gorm:"autoUpdateTime;column:attendance_record_updated_at" json:"attendance_record_updated_at"`

	Session *sessionModel.AttendanceSessionModel `gorm:"foreignKey:AttendanceRecordSessionID;references:AttendanceSessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
	Student *userModel.StudentModel              `gorm:"foreignKey:AttendanceRecordStudentID;references:StudentID;constraint:OnDelete:RESTRICT" json:"student,omitempty"`
}

func (AttendanceRecordModel) TableName() string { return "attendance_records" }

func (m *AttendanceRecordModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceRecordID == uuid.Nil {
		m.AttendanceRecordID = uuid.New()
	}
	return nil
}

/*
=========================================================

	AttendanceEdit: ledger koreksi (append-only).
	Tidak pernah di-update / di-delete oleh aplikasi.
	=========================================================
*/
type AttendanceEditModel struct {
	AttendanceEditID        uuid.UUID        `gorm:"type:uuid;primaryKey;column:attendance_edit_id" json:"attendance_edit_id"`
	AttendanceEditRecordID  uuid.UUID        `gorm:"type:uuid;not null;index;column:attendance_edit_record_id" json:"attendance_edit_record_id"`
	AttendanceEditOldStatus AttendanceStatus `gorm:"type:varchar(16);not null;column:attendance_edit_old_status" json:"attendance_edit_old_status"`
	AttendanceEditNewStatus AttendanceStatus `gorm:"type:varchar(16);not null;column:attendance_edit_new_status" json:"attendance_edit_new_status"`
	AttendanceEditEditedBy  uuid.UUID        `gorm:"type:uuid;not null;column:attendance_edit_edited_by" json:"attendance_edit_edited_by"`
	AttendanceEditReason    string           `gorm:"type:text;not null;column:attendance_edit_reason" json:"attendance_edit_reason"`
	AttendanceEditEditedAt  time.Time        `gorm:"not null;column:attendance_edit_edited_at" json:"attendance_edit_edited_at"`

	Record *AttendanceRecordModel `gorm:"foreignKey:AttendanceEditRecordID;references:AttendanceRecordID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (AttendanceEditModel) TableName() string { return "attendance_edits" }

func (m *AttendanceEditModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceEditID == uuid.Nil {
		m.AttendanceEditID = uuid.New()
	}
	return nil
}
