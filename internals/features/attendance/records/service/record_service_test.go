package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"attendance_backend/internals/databases/testdb"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	helper "attendance_backend/internals/helpers"
	"attendance_backend/internals/helpers/dbtime"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	mu     sync.Mutex
	marked []MarkEvent
	edited []EditEvent
}

func (f *fakeNotifier) AttendanceMarked(_ context.Context, ev MarkEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, ev)
}

func (f *fakeNotifier) AttendanceEdited(_ context.Context, ev EditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, ev)
}

func createSession(t *testing.T, db *gorm.DB, fx *testdb.Fixture, date, start string) sessionModel.AttendanceSessionModel {
	t.Helper()
	d, err := dbtime.ParseDate(date)
	require.NoError(t, err)
	s := sessionModel.AttendanceSessionModel{
		AttendanceSessionEnrollmentID: fx.Enrollment.SubjectEnrollmentID,
		AttendanceSessionDate:         d,
		AttendanceSessionStartTime:    dbtime.MustParse(start),
		AttendanceSessionEndTime:      dbtime.MustParse("23:00"),
		AttendanceSessionTeacherID:    fx.Teacher.TeacherID,
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func allPresent(fx *testdb.Fixture) []MarkInput {
	out := make([]MarkInput, 0, len(fx.Students))
	for _, st := range fx.Students {
		out = append(out, MarkInput{StudentID: st.StudentID, Status: recordModel.AttendancePresent})
	}
	return out
}

func countRecords(t *testing.T, db *gorm.DB, sessionID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&recordModel.AttendanceRecordModel{}).
		Where("attendance_record_session_id = ?", sessionID).Count(&n).Error)
	return n
}

func TestMarkAttendance_Idempotent(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 3)
	n := &fakeNotifier{}
	svc := NewRecordService(db, n)
	sess := createSession(t, db, fx, "2026-03-02", "08:00")
	ctx := context.Background()

	first, err := svc.MarkAttendance(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID, allPresent(fx))
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)
	assert.Len(t, first.Records, 3)

	second, err := svc.MarkAttendance(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID, allPresent(fx))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Unchanged)
	assert.EqualValues(t, 3, countRecords(t, db, sess.AttendanceSessionID))

	require.Len(t, n.marked, 2)
	assert.Len(t, n.marked[0].Changed, 3)
	assert.Empty(t, n.marked[1].Changed)
	assert.Equal(t, 3, n.marked[1].MarkedCount)
	assert.Equal(t, fx.Subject.SubjectCode, n.marked[0].Session.Enrollment.SubjectCode())
}

func TestMarkAttendance_PartialRemarkTouchesOnlySubmitted(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 3)
	n := &fakeNotifier{}
	svc := NewRecordService(db, n)
	sess := createSession(t, db, fx, "2026-03-02", "08:00")
	ctx := context.Background()

	_, err := svc.MarkAttendance(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID, allPresent(fx))
	require.NoError(t, err)

	target := fx.Students[1].StudentID
	out, err := svc.MarkAttendance(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID, []MarkInput{
		{StudentID: target, Status: recordModel.AttendanceLate},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Updated)
	require.Len(t, out.Records, 1)
	assert.Equal(t, recordModel.AttendanceLate, out.Records[0].Status)

	var statuses []recordModel.AttendanceRecordModel
	require.NoError(t, db.Where("attendance_record_session_id = ?", sess.AttendanceSessionID).Find(&statuses).Error)
	for _, r := range statuses {
		if r.AttendanceRecordStudentID == target {
			assert.Equal(t, recordModel.AttendanceLate, r.AttendanceRecordStatus)
		} else {
			assert.Equal(t, recordModel.AttendancePresent, r.AttendanceRecordStatus)
		}
	}
	// marking ulang bukan koreksi: tidak ada baris audit
	var edits int64
	require.NoError(t, db.Model(&recordModel.AttendanceEditModel{}).Count(&edits).Error)
	assert.Zero(t, edits)

	last := n.marked[len(n.marked)-1]
	require.Len(t, last.Changed, 1)
	assert.Equal(t, target, last.Changed[0].StudentID)
}

func TestMarkAttendance_RejectsWholeBatch(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 3)
	n := &fakeNotifier{}
	svc := NewRecordService(db, n)
	sess := createSession(t, db, fx, "2026-03-02", "08:00")
	ctx := context.Background()

	stranger := testdb.CreateStudent(t, db, nil, "Orang Luar")
	payload := append(allPresent(fx), MarkInput{StudentID: stranger.StudentID, Status: recordModel.AttendancePresent})

	_, err := svc.MarkAttendance(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID, payload)
	require.Error(t, err)
	assert.True(t, helper.IsStatus(err, fiber.StatusBadRequest))
	assert.Zero(t, countRecords(t, db, sess.AttendanceSessionID))
	assert.Empty(t, n.marked)

	dup := []MarkInput{
		{StudentID: fx.Students[0].StudentID, Status: recordModel.AttendancePresent},
		{StudentID: fx.Students[0].StudentID, Status: recordModel.AttendanceAbsent},
	}
	_, err = svc.MarkAttendance(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID, dup)
	assert.True(t, helper.IsStatus(err, fiber.StatusBadRequest))

	_, err = svc.MarkAttendance(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID, []MarkInput{
		{StudentID: fx.Students[0].StudentID, Status: "SLEEPING"},
	})
	assert.True(t, helper.IsStatus(err, fiber.StatusBadRequest))
	assert.Zero(t, countRecords(t, db, sess.AttendanceSessionID))
}

func TestMarkAttendance_Ownership(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 1)
	svc := NewRecordService(db, nil)
	sess := createSession(t, db, fx, "2026-03-02", "08:00")
	_, other := testdb.CreateTeacher(t, db, "Pak Lain")

	_, err := svc.MarkAttendance(context.Background(), other.TeacherID, sess.AttendanceSessionID, allPresent(fx))
	assert.True(t, helper.IsStatus(err, fiber.StatusForbidden))

	_, err = svc.MarkAttendance(context.Background(), fx.Teacher.TeacherID, uuid.New(), allPresent(fx))
	assert.True(t, helper.IsStatus(err, fiber.StatusNotFound))
}

func markOne(t *testing.T, svc *RecordService, fx *testdb.Fixture, sessionID uuid.UUID) uuid.UUID {
	t.Helper()
	out, err := svc.MarkAttendance(context.Background(), fx.Teacher.TeacherID, sessionID, []MarkInput{
		{StudentID: fx.Students[0].StudentID, Status: recordModel.AttendancePresent},
	})
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	return out.Records[0].ID
}

func TestUpdateAttendanceRecord_WritesAuditRow(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 2)
	n := &fakeNotifier{}
	svc := NewRecordService(db, n)
	sess := createSession(t, db, fx, "2026-03-02", "08:00")
	ctx := context.Background()
	recordID := markOne(t, svc, fx, sess.AttendanceSessionID)

	reason := "salah input"
	out, err := svc.UpdateAttendanceRecord(ctx, fx.Teacher.TeacherID, recordID, recordModel.AttendanceAbsent, &reason)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, recordModel.AttendanceAbsent, out.Record.Status)

	var edits []recordModel.AttendanceEditModel
	require.NoError(t, db.Where("attendance_edit_record_id = ?", recordID).Find(&edits).Error)
	require.Len(t, edits, 1)
	assert.Equal(t, recordModel.AttendancePresent, edits[0].AttendanceEditOldStatus)
	assert.Equal(t, recordModel.AttendanceAbsent, edits[0].AttendanceEditNewStatus)
	assert.Equal(t, "salah input", edits[0].AttendanceEditReason)
	assert.Equal(t, fx.Teacher.TeacherID, edits[0].AttendanceEditEditedBy)

	var rec recordModel.AttendanceRecordModel
	require.NoError(t, db.First(&rec, "attendance_record_id = ?", recordID).Error)
	assert.Equal(t, recordModel.AttendanceAbsent, rec.AttendanceRecordStatus)

	require.Len(t, n.edited, 1)
	ev := n.edited[0]
	assert.Equal(t, recordModel.AttendancePresent, ev.OldStatus)
	assert.Equal(t, fx.Students[0].StudentUserID, ev.Student.UserID)
	assert.Equal(t, "salah input", ev.Reason)

	// status sama: tidak ada audit baru, tidak ada fan-out
	out, err = svc.UpdateAttendanceRecord(ctx, fx.Teacher.TeacherID, recordID, recordModel.AttendanceAbsent, nil)
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Nil(t, out.Edit)
	assert.Len(t, n.edited, 1)

	// alasan kosong → placeholder
	out, err = svc.UpdateAttendanceRecord(ctx, fx.Teacher.TeacherID, recordID, recordModel.AttendanceExcused, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Edit)
	assert.Equal(t, DefaultEditReason, out.Edit.Reason)

	history, err := svc.ListRecordEdits(ctx, fx.Teacher.TeacherID, recordID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, recordModel.AttendanceAbsent, history[1].OldStatus)
	assert.Equal(t, recordModel.AttendanceExcused, history[1].NewStatus)
}

func TestUpdateAttendanceRecord_Errors(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 1)
	svc := NewRecordService(db, nil)
	sess := createSession(t, db, fx, "2026-03-02", "08:00")
	recordID := markOne(t, svc, fx, sess.AttendanceSessionID)
	ctx := context.Background()

	_, err := svc.UpdateAttendanceRecord(ctx, fx.Teacher.TeacherID, uuid.New(), recordModel.AttendanceAbsent, nil)
	assert.True(t, helper.IsStatus(err, fiber.StatusNotFound))

	_, other := testdb.CreateTeacher(t, db, "Pak Lain")
	_, err = svc.UpdateAttendanceRecord(ctx, other.TeacherID, recordID, recordModel.AttendanceAbsent, nil)
	assert.True(t, helper.IsStatus(err, fiber.StatusForbidden))

	_, err = svc.UpdateAttendanceRecord(ctx, fx.Teacher.TeacherID, recordID, "MAYBE", nil)
	assert.True(t, helper.IsStatus(err, fiber.StatusBadRequest))

	_, err = svc.ListRecordEdits(ctx, other.TeacherID, recordID)
	assert.True(t, helper.IsStatus(err, fiber.StatusForbidden))
}

// Gagal di tengah transaksi: audit & perubahan status selalu bersama-sama.
func TestUpdateAttendanceRecord_AllOrNothing(t *testing.T) {
	cases := []struct {
		name     string
		register func(db *gorm.DB) error
	}{
		{"update record gagal", func(db *gorm.DB) error {
			return db.Callback().Update().Before("gorm:update").Register("test:fail_record_update", func(tx *gorm.DB) {
				if tx.Statement.Table == "attendance_records" {
					_ = tx.AddError(errors.New("disk penuh"))
				}
			})
		}},
		{"insert audit gagal", func(db *gorm.DB) error {
			return db.Callback().Create().Before("gorm:create").Register("test:fail_edit_insert", func(tx *gorm.DB) {
				if tx.Statement.Table == "attendance_edits" {
					_ = tx.AddError(errors.New("disk penuh"))
				}
			})
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := testdb.Open(t)
			fx := testdb.Seed(t, db, 1)
			n := &fakeNotifier{}
			svc := NewRecordService(db, n)
			sess := createSession(t, db, fx, "2026-03-02", "08:00")
			recordID := markOne(t, svc, fx, sess.AttendanceSessionID)

			require.NoError(t, tc.register(db))

			_, err := svc.UpdateAttendanceRecord(context.Background(), fx.Teacher.TeacherID, recordID, recordModel.AttendanceAbsent, nil)
			require.Error(t, err)
			assert.Equal(t, fiber.StatusInternalServerError, helper.StatusOf(err))

			var edits int64
			require.NoError(t, db.Model(&recordModel.AttendanceEditModel{}).Count(&edits).Error)
			assert.Zero(t, edits)

			var rec recordModel.AttendanceRecordModel
			require.NoError(t, db.First(&rec, "attendance_record_id = ?", recordID).Error)
			assert.Equal(t, recordModel.AttendancePresent, rec.AttendanceRecordStatus)
			assert.Empty(t, n.edited)
		})
	}
}

func TestGetSessionStudents(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 3)
	svc := NewRecordService(db, nil)
	sess := createSession(t, db, fx, "2026-03-02", "08:00")
	ctx := context.Background()

	view, err := svc.GetSessionStudents(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID)
	require.NoError(t, err)
	assert.False(t, view.IsMarked)
	require.Len(t, view.Students, 3)
	for _, st := range view.Students {
		assert.Empty(t, st.RecordID)
		assert.False(t, st.IsMarked)
		assert.Equal(t, recordModel.AttendancePresent, st.Status)
		assert.NotEmpty(t, st.FullName)
	}

	_, err = svc.MarkAttendance(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID, []MarkInput{
		{StudentID: fx.Students[2].StudentID, Status: recordModel.AttendanceAbsent},
	})
	require.NoError(t, err)

	view, err = svc.GetSessionStudents(ctx, fx.Teacher.TeacherID, sess.AttendanceSessionID)
	require.NoError(t, err)
	assert.True(t, view.IsMarked)
	require.Len(t, view.Students, 1)
	assert.NotEmpty(t, view.Students[0].RecordID)
	assert.Equal(t, recordModel.AttendanceAbsent, view.Students[0].Status)
	assert.Equal(t, fx.Students[2].StudentUserID, view.Students[0].UserID)
}

func TestGetSessionStudents_EmptyBatch(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 0)
	svc := NewRecordService(db, nil)
	sess := createSession(t, db, fx, "2026-03-02", "08:00")

	_, err := svc.GetSessionStudents(context.Background(), fx.Teacher.TeacherID, sess.AttendanceSessionID)
	assert.True(t, helper.IsStatus(err, fiber.StatusBadRequest))
}
