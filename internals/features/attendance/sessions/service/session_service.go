package service

import (
	"context"
	"errors"
	"log"
	"time"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	"attendance_backend/internals/features/attendance/events"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	"attendance_backend/internals/features/attendance/sessions/dto"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	repo "attendance_backend/internals/features/attendance/sessions/repository"
	userModel "attendance_backend/internals/features/users/user/model"
	helper "attendance_backend/internals/helpers"
	"attendance_backend/internals/helpers/dbtime"
	"attendance_backend/internals/metrics"
	"attendance_backend/internals/realtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errSlotTaken = helper.BadRequest("Sesi untuk enrollment, tanggal, dan jam mulai tersebut sudah ada")

type SessionService struct {
	DB        *gorm.DB
	Publisher realtime.Publisher
	// batas waktu publish SESSION_CREATED
	PublishTimeout time.Duration
}

func NewSessionService(db *gorm.DB, pub realtime.Publisher, publishTimeout time.Duration) *SessionService {
	if publishTimeout <= 0 {
		publishTimeout = 3 * time.Second
	}
	return &SessionService{DB: db, Publisher: pub, PublishTimeout: publishTimeout}
}

func (s *SessionService) ensureTeacher(ctx context.Context, teacherID uuid.UUID) error {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&userModel.TeacherModel{}).
		Where("teacher_id = ?", teacherID).Count(&n).Error; err != nil {
		return helper.Internal("load teacher", err)
	}
	if n == 0 {
		return helper.NotFound("Guru tidak ditemukan")
	}
	return nil
}

// CreateSession: satu sesi per (enrollment, date, start_time).
// teacher_id sesi diambil dari enrollment saat ini.
func (s *SessionService) CreateSession(ctx context.Context, teacherID uuid.UUID, in dto.Parsed) (*dto.SessionResponse, error) {
	if !in.Type.Valid() {
		return nil, helper.BadRequest("Tipe sesi tidak valid (REGULAR/MAKEUP/EXTRA)")
	}
	if !in.StartTime.Before(in.EndTime) {
		return nil, helper.BadRequest("end_time harus setelah start_time")
	}
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	enr, err := repo.FindOwnedEnrollment(ctx, s.DB, teacherID, in.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if enr.SubjectEnrollmentStatus != enrollmentModel.EnrollmentActive {
		return nil, helper.BadRequest("Enrollment tidak aktif")
	}

	date := dbtime.NormalizeDate(in.Date)
	taken, err := repo.SlotTaken(ctx, s.DB, enr.SubjectEnrollmentID, date, in.StartTime.String())
	if err != nil {
		return nil, helper.Internal("check session slot", err)
	}
	if taken {
		return nil, errSlotTaken
	}

	m := sessionModel.AttendanceSessionModel{
		AttendanceSessionEnrollmentID: enr.SubjectEnrollmentID,
		AttendanceSessionDate:         date,
		AttendanceSessionStartTime:    in.StartTime,
		AttendanceSessionEndTime:      in.EndTime,
		AttendanceSessionType:         in.Type,
		AttendanceSessionTeacherID:    enr.SubjectEnrollmentTeacherID,
	}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		// insert paralel lolos pre-check → unique index yang menolak
		if helper.IsDuplicateKey(err) {
			return nil, errSlotTaken
		}
		return nil, helper.Internal("create session", err)
	}
	m.Enrollment = enr
	metrics.SessionsCreatedTotal.Inc()

	s.publishCreated(ctx, &m)

	resp := dto.FromModel(&m, 0)
	return &resp, nil
}

func (s *SessionService) publishCreated(ctx context.Context, m *sessionModel.AttendanceSessionModel) {
	if s.Publisher == nil {
		return
	}
	payload := events.SessionCreatedPayload{
		SessionID:   m.AttendanceSessionID,
		SubjectCode: m.Enrollment.SubjectCode(),
		SubjectName: m.Enrollment.SubjectName(),
		BatchCode:   m.Enrollment.BatchCode(),
		Date:        dbtime.FormatDate(m.AttendanceSessionDate),
		StartTime:   m.AttendanceSessionStartTime.HHMM(),
		EndTime:     m.AttendanceSessionEndTime.HHMM(),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.PublishTimeout)
	defer cancel()
	room := realtime.EnrollmentRoom(m.AttendanceSessionEnrollmentID)
	if err := s.Publisher.Publish(pctx, room, events.SessionCreated, payload); err != nil {
		metrics.RecordNotification("realtime", false, 1)
		log.Printf("[SESSION] publish %s ke %s gagal: %v", events.SessionCreated, room, err)
		return
	}
	metrics.RecordNotification("realtime", true, 1)
}

// DeleteSession: hitung ulang record DI DALAM transaksi (row sesi di-lock di Postgres)
// supaya mark yang masuk bersamaan tidak ikut terhapus.
func (s *SessionService) DeleteSession(ctx context.Context, teacherID, sessionID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := repo.FindOwnedSession(ctx, tx, teacherID, sessionID, repo.LockUpdate)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&recordModel.AttendanceRecordModel{}).
			Where("attendance_record_session_id = ?", sess.AttendanceSessionID).
			Count(&n).Error; err != nil {
			return helper.Internal("count records", err)
		}
		if n > 0 {
			return helper.BadRequest("Sesi sudah memiliki data absensi dan tidak bisa dihapus")
		}

		res := tx.Where("attendance_session_id = ?", sess.AttendanceSessionID).
			Delete(&sessionModel.AttendanceSessionModel{})
		if res.Error != nil {
			return helper.Internal("delete session", res.Error)
		}
		if res.RowsAffected == 0 {
			return helper.NotFound("Sesi tidak ditemukan")
		}
		return nil
	})
}

func (s *SessionService) GetSessionByID(ctx context.Context, teacherID, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	sess, err := repo.FindOwnedSession(ctx, s.DB, teacherID, sessionID, repo.LockNone)
	if err != nil {
		return nil, err
	}
	counts, err := repo.RecordCounts(ctx, s.DB, []uuid.UUID{sess.AttendanceSessionID})
	if err != nil {
		return nil, helper.Internal("count records", err)
	}
	resp := dto.FromModel(sess, counts[sess.AttendanceSessionID])
	return &resp, nil
}

type TeacherSessionsQuery struct {
	EnrollmentID *uuid.UUID
	From         *time.Time
	To           *time.Time
	Paging       helper.Paging
}

func (s *SessionService) GetTeacherSessions(ctx context.Context, teacherID uuid.UUID, q TeacherSessionsQuery) ([]dto.SessionResponse, helper.Pagination, error) {
	rows, total, err := repo.ListByTeacher(ctx, s.DB, teacherID, repo.ListFilter{
		EnrollmentID: q.EnrollmentID,
		From:         q.From,
		To:           q.To,
		Offset:       q.Paging.Offset,
		Limit:        q.Paging.Limit,
	})
	if err != nil {
		return nil, helper.Pagination{}, helper.Internal("list sessions", err)
	}
	counts, err := repo.RecordCounts(ctx, s.DB, sessionIDs(rows))
	if err != nil {
		return nil, helper.Pagination{}, helper.Internal("count records", err)
	}
	items := dto.FromModels(rows, counts)
	return items, helper.BuildPaginationFromPage(total, q.Paging.Page, q.Paging.PerPage, len(items)), nil
}

func (s *SessionService) GetEnrollmentSessions(ctx context.Context, teacherID, enrollmentID uuid.UUID) ([]dto.SessionResponse, error) {
	enr, err := repo.FindOwnedEnrollment(ctx, s.DB, teacherID, enrollmentID)
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListByEnrollment(ctx, s.DB, enr.SubjectEnrollmentID)
	if err != nil {
		return nil, helper.Internal("list sessions", err)
	}
	for i := range rows {
		rows[i].Enrollment = enr
	}
	counts, err := repo.RecordCounts(ctx, s.DB, sessionIDs(rows))
	if err != nil {
		return nil, helper.Internal("count records", err)
	}
	return dto.FromModels(rows, counts), nil
}

func sessionIDs(rows []sessionModel.AttendanceSessionModel) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].AttendanceSessionID)
	}
	return ids
}

// IsSlotTaken: BadRequest karena slot (enrollment, date, start_time) sudah terpakai.
func IsSlotTaken(err error) bool {
	return errors.Is(err, errSlotTaken)
}
