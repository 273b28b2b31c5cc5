package dto

import (
	"strings"
	"time"

	recordModel "attendance_backend/internals/features/attendance/records/model"

	"github.com/google/uuid"
)

/* =========================================================
   REQUESTS
   ========================================================= */

type MarkItem struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Status    string `json:"status"     validate:"required,oneof=PRESENT ABSENT LATE EXCUSED present absent late excused"`
}

// MarkAttendanceRequest: POST /api/t/sessions/:id/attendance
type MarkAttendanceRequest struct {
	Records []MarkItem `json:"records" validate:"required,min=1,max=500,dive"`
}

type UpdateRecordRequest struct {
	Status string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED present absent late excused"`
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

func NormalizeStatus(s string) recordModel.AttendanceStatus {
	return recordModel.AttendanceStatus(strings.ToUpper(strings.TrimSpace(s)))
}

/* =========================================================
   RESPONSES
   ========================================================= */

// SessionStudent: satu baris untuk UI absensi. RecordID kosong = belum tersimpan.
type SessionStudent struct {
	RecordID   string                       `json:"record_id"`
	StudentID  uuid.UUID                    `json:"student_id"`
	UserID     uuid.UUID                    `json:"user_id"`
	FullName   string                       `json:"full_name"`
	RollNumber string                       `json:"roll_number"`
	Status     recordModel.AttendanceStatus `json:"status"`
	MarkedAt   *time.Time                   `json:"marked_at,omitempty"`
	IsMarked   bool                         `json:"is_marked"`
}

type SessionStudentsResponse struct {
	SessionID uuid.UUID        `json:"session_id"`
	IsMarked  bool             `json:"is_marked"`
	Students  []SessionStudent `json:"students"`
}

type RecordResponse struct {
	ID        uuid.UUID                    `json:"id"`
	SessionID uuid.UUID                    `json:"session_id"`
	StudentID uuid.UUID                    `json:"student_id"`
	Status    recordModel.AttendanceStatus `json:"status"`
	MarkedAt  time.Time                    `json:"marked_at"`
	MarkedBy  uuid.UUID                    `json:"marked_by"`
}

func FromRecord(m *recordModel.AttendanceRecordModel) RecordResponse {
	return RecordResponse{
		ID:        m.AttendanceRecordID,
		SessionID: m.AttendanceRecordSessionID,
		StudentID: m.AttendanceRecordStudentID,
		Status:    m.AttendanceRecordStatus,
		MarkedAt:  m.AttendanceRecordMarkedAt,
		MarkedBy:  m.AttendanceRecordMarkedBy,
	}
}

type MarkAttendanceResponse struct {
	SessionID uuid.UUID        `json:"session_id"`
	Marked    int              `json:"marked"`
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Unchanged int              `json:"unchanged"`
	Records   []RecordResponse `json:"records"`
}

type UpdateRecordResponse struct {
	Record  RecordResponse `json:"record"`
	Changed bool           `json:"changed"`
	Edit    *EditResponse  `json:"edit,omitempty"`
}

type EditResponse struct {
	ID        uuid.UUID                    `json:"id"`
	RecordID  uuid.UUID                    `json:"record_id"`
	OldStatus recordModel.AttendanceStatus `json:"old_status"`
	NewStatus recordModel.AttendanceStatus `json:"new_status"`
	EditedBy  uuid.UUID                    `json:"edited_by"`
	Reason    string                       `json:"reason"`
	EditedAt  time.Time                    `json:"edited_at"`
}

func FromEdit(m *recordModel.AttendanceEditModel) EditResponse {
	return EditResponse{
		ID:        m.AttendanceEditID,
		RecordID:  m.AttendanceEditRecordID,
		OldStatus: m.AttendanceEditOldStatus,
		NewStatus: m.AttendanceEditNewStatus,
		EditedBy:  m.AttendanceEditEditedBy,
		Reason:    m.AttendanceEditReason,
		EditedAt:  m.AttendanceEditEditedAt,
	}
}
