package dto

import (
	"strings"
	"time"

	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	"attendance_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

/* =========================================================
   REQUESTS
   ========================================================= */

type CreateSessionRequest struct {
	EnrollmentID string  `json:"enrollment_id" validate:"required,uuid"`
	Date         string  `json:"date"          validate:"required,datetime=2006-01-02"`
	StartTime    string  `json:"start_time"    validate:"required"`
	EndTime      string  `json:"end_time"      validate:"required"`
	Type         *string `json:"type"          validate:"omitempty,oneof=REGULAR MAKEUP EXTRA regular makeup extra"`
}

// Parsed: hasil normalisasi request (tanggal UTC midnight, jam HH:MM:SS).
type Parsed struct {
	EnrollmentID uuid.UUID
	Date         time.Time
	StartTime    dbtime.Tod
	EndTime      dbtime.Tod
	Type         sessionModel.SessionType
}

// Parse dipanggil setelah validator lolos; error-nya untuk pesan 400.
func (r CreateSessionRequest) Parse() (Parsed, error) {
	var p Parsed
	var err error
	if p.EnrollmentID, err = uuid.Parse(strings.TrimSpace(r.EnrollmentID)); err != nil {
		return p, err
	}
	if p.Date, err = dbtime.ParseDate(r.Date); err != nil {
		return p, err
	}
	if p.StartTime, err = dbtime.Parse(r.StartTime); err != nil {
		return p, err
	}
	if p.EndTime, err = dbtime.Parse(r.EndTime); err != nil {
		return p, err
	}
	p.Type = sessionModel.SessionRegular
	if r.Type != nil && strings.TrimSpace(*r.Type) != "" {
		p.Type = sessionModel.SessionType(strings.ToUpper(strings.TrimSpace(*r.Type)))
	}
	return p, nil
}

type ListSessionsQuery struct {
	EnrollmentID string `query:"enrollment_id" validate:"omitempty,uuid"`
	From         string `query:"from"          validate:"omitempty,datetime=2006-01-02"`
	To           string `query:"to"            validate:"omitempty,datetime=2006-01-02"`
}

/* =========================================================
   RESPONSES
   ========================================================= */

type SessionResponse struct {
	ID           uuid.UUID  `json:"id"`
	EnrollmentID uuid.UUID  `json:"enrollment_id"`
	SubjectCode  string     `json:"subject_code,omitempty"`
	SubjectName  string     `json:"subject_name,omitempty"`
	BatchCode    string     `json:"batch_code,omitempty"`
	Date         string     `json:"date"`
	StartTime    dbtime.Tod `json:"start_time"`
	EndTime      dbtime.Tod `json:"end_time"`
	Type         string     `json:"type"`
	TeacherID    uuid.UUID  `json:"teacher_id"`
	RecordCount  int64      `json:"record_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

func FromModel(m *sessionModel.AttendanceSessionModel, recordCount int64) SessionResponse {
	out := SessionResponse{
		ID:           m.AttendanceSessionID,
		EnrollmentID: m.AttendanceSessionEnrollmentID,
		Date:         dbtime.FormatDate(m.AttendanceSessionDate),
		StartTime:    m.AttendanceSessionStartTime,
		EndTime:      m.AttendanceSessionEndTime,
		Type:         string(m.AttendanceSessionType),
		TeacherID:    m.AttendanceSessionTeacherID,
		RecordCount:  recordCount,
		CreatedAt:    m.AttendanceSessionCreatedAt,
	}
	if m.Enrollment != nil {
		out.SubjectCode = m.Enrollment.SubjectCode()
		out.SubjectName = m.Enrollment.SubjectName()
		out.BatchCode = m.Enrollment.BatchCode()
	}
	return out
}

func FromModels(rows []sessionModel.AttendanceSessionModel, counts map[uuid.UUID]int64) []SessionResponse {
	out := make([]SessionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i], counts[rows[i].AttendanceSessionID]))
	}
	return out
}
