// Package events: nama event realtime + bentuk payload-nya (field camelCase, stabil untuk client).
package events

import (
	"github.com/google/uuid"
)

const (
	SessionCreated     = "SESSION_CREATED"
	AttendanceMarked   = "ATTENDANCE_MARKED"
	LiveSessionStatus  = "LIVE_SESSION_STATUS"
	AttendanceUpdated  = "ATTENDANCE_UPDATED"
	LowAttendanceAlert = "LOW_ATTENDANCE_ALERT"
	AttendanceEdited   = "ATTENDANCE_EDITED"
)

type SessionCreatedPayload struct {
	SessionID   uuid.UUID `json:"sessionId"`
	SubjectCode string    `json:"subjectCode"`
	SubjectName string    `json:"subjectName"`
	BatchCode   string    `json:"batchCode"`
	Date        string    `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
}

type AttendanceMarkedPayload struct {
	SessionID   uuid.UUID `json:"sessionId"`
	SubjectCode string    `json:"subjectCode"`
	SubjectName string    `json:"subjectName"`
	BatchCode   string    `json:"batchCode"`
	TeacherName string    `json:"teacherName"`
	Date        string    `json:"date"`
	MarkedCount int       `json:"markedCount"`
}

type LiveSessionStatusPayload struct {
	SessionID     uuid.UUID `json:"sessionId"`
	TotalStudents int64     `json:"totalStudents"`
	MarkedCount   int64     `json:"markedCount"`
	PresentCount  int64     `json:"presentCount"`
	AbsentCount   int64     `json:"absentCount"`
	// persen siswa yang sudah punya record (0..100)
	Progress float64 `json:"progress"`
}

type AttendanceUpdatedPayload struct {
	SubjectCode   string  `json:"subjectCode"`
	SubjectName   string  `json:"subjectName"`
	NewPercentage float64 `json:"newPercentage"`
	Status        string  `json:"status"`
	Stats         any     `json:"stats"`
}

type LowAttendanceAlertPayload struct {
	SubjectCode    string  `json:"subjectCode"`
	SubjectName    string  `json:"subjectName"`
	Percentage     float64 `json:"percentage"`
	SessionsNeeded int64   `json:"sessionsNeeded"`
	Status         string  `json:"status"`
	Message        string  `json:"message"`
}

type AttendanceEditedPayload struct {
	RecordID    uuid.UUID `json:"recordId"`
	SessionID   uuid.UUID `json:"sessionId"`
	SubjectCode string    `json:"subjectCode"`
	OldStatus   string    `json:"oldStatus"`
	NewStatus   string    `json:"newStatus"`
	EditedBy    uuid.UUID `json:"editedBy"`
	Reason      string    `json:"reason"`
}
