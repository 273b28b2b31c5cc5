package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"attendance_backend/internals/databases/testdb"
	"attendance_backend/internals/features/attendance/events"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	recordService "attendance_backend/internals/features/attendance/records/service"
	"attendance_backend/internals/features/attendance/sessions/dto"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	sessionService "attendance_backend/internals/features/attendance/sessions/service"
	statsService "attendance_backend/internals/features/attendance/stats/service"
	notifService "attendance_backend/internals/features/notifications/service"
	helper "attendance_backend/internals/helpers"
	"attendance_backend/internals/helpers/dbtime"
	"attendance_backend/internals/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type published struct {
	Room    string
	Type    string
	Payload any
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, room, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{Room: room, Type: eventType, Payload: payload})
	return nil
}

func (p *fakePublisher) find(room, eventType string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.msgs {
		if m.Room == room && m.Type == eventType {
			out = append(out, m)
		}
	}
	return out
}

func (p *fakePublisher) reset() {
	p.mu.Lock()
	p.msgs = nil
	p.mu.Unlock()
}

type sentEmail struct {
	UserID uuid.UUID
	To     string
}

type fakeDispatch struct {
	mu     sync.Mutex
	pushes []uuid.UUID
	emails []sentEmail
}

func (d *fakeDispatch) Push(_ context.Context, userID uuid.UUID, _, _, _ string, _ map[string]string) notifService.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushes = append(d.pushes, userID)
	return notifService.Result{Sent: 1}
}

func (d *fakeDispatch) Email(_ context.Context, userID uuid.UUID, to, _, _, _ string) notifService.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emails = append(d.emails, sentEmail{UserID: userID, To: to})
	return notifService.Result{Sent: 1}
}

type harness struct {
	db       *gorm.DB
	fx       *testdb.Fixture
	pub      *fakePublisher
	dispatch *fakeDispatch
	fo       *FanOut
	sessions *sessionService.SessionService
	records  *recordService.RecordService
	stats    *statsService.StatsService
	reports  []FanOutReport
}

func newHarness(t *testing.T, students int) *harness {
	t.Helper()
	h := &harness{db: testdb.Open(t), pub: &fakePublisher{}, dispatch: &fakeDispatch{}}
	h.fx = testdb.Seed(t, h.db, students)
	h.stats = statsService.NewStatsService(h.db)
	h.fo = New(h.db, h.stats, h.pub, h.dispatch, time.Second, false)
	h.fo.OnReport = func(r FanOutReport) { h.reports = append(h.reports, r) }
	h.sessions = sessionService.NewSessionService(h.db, h.pub, time.Second)
	h.records = recordService.NewRecordService(h.db, h.fo)
	return h
}

func (h *harness) createSession(t *testing.T, date string) uuid.UUID {
	t.Helper()
	d, err := dbtime.ParseDate(date)
	require.NoError(t, err)
	out, err := h.sessions.CreateSession(context.Background(), h.fx.Teacher.TeacherID, dto.Parsed{
		EnrollmentID: h.fx.Enrollment.SubjectEnrollmentID,
		Date:         d,
		StartTime:    dbtime.MustParse("08:00"),
		EndTime:      dbtime.MustParse("09:40"),
		Type:         sessionModel.SessionRegular,
	})
	require.NoError(t, err)
	return out.ID
}

func (h *harness) markAll(t *testing.T, sessionID uuid.UUID, statuses map[uuid.UUID]recordModel.AttendanceStatus) {
	t.Helper()
	items := make([]recordService.MarkInput, 0, len(h.fx.Students))
	for _, st := range h.fx.Students {
		status := recordModel.AttendancePresent
		if s, ok := statuses[st.StudentID]; ok {
			status = s
		}
		items = append(items, recordService.MarkInput{StudentID: st.StudentID, Status: status})
	}
	_, err := h.records.MarkAttendance(context.Background(), h.fx.Teacher.TeacherID, sessionID, items)
	require.NoError(t, err)
}

func TestEndToEnd_LowAttendanceAlert(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()
	x := h.fx.Students[0]
	xRoom := realtime.UserRoom(x.StudentUserID)

	s1 := h.createSession(t, "2026-03-02")
	require.Len(t, h.pub.find(realtime.EnrollmentRoom(h.fx.Enrollment.SubjectEnrollmentID), events.SessionCreated), 1)

	h.markAll(t, s1, nil)

	stats, err := h.stats.ComputeStats(ctx, x.StudentID, h.fx.Enrollment.SubjectEnrollmentID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalSessions)
	assert.Equal(t, 100.0, stats.Percentage)
	assert.Equal(t, statsService.StandingGood, stats.Status)

	assert.Len(t, h.pub.find(realtime.BatchRoom(h.fx.Batch.BatchID), events.AttendanceMarked), 1)
	live := h.pub.find(realtime.EnrollmentRoom(h.fx.Enrollment.SubjectEnrollmentID), events.LiveSessionStatus)
	require.Len(t, live, 1)
	lp := live[0].Payload.(events.LiveSessionStatusPayload)
	assert.EqualValues(t, 3, lp.TotalStudents)
	assert.EqualValues(t, 3, lp.MarkedCount)
	assert.EqualValues(t, 3, lp.PresentCount)
	assert.Equal(t, 100.0, lp.Progress)
	assert.Len(t, h.pub.find(xRoom, events.AttendanceUpdated), 1)
	assert.Empty(t, h.pub.find(xRoom, events.LowAttendanceAlert))
	assert.Empty(t, h.dispatch.emails)

	h.pub.reset()
	s2 := h.createSession(t, "2026-03-03")
	h.markAll(t, s2, map[uuid.UUID]recordModel.AttendanceStatus{x.StudentID: recordModel.AttendanceAbsent})

	stats, err = h.stats.ComputeStats(ctx, x.StudentID, h.fx.Enrollment.SubjectEnrollmentID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalSessions)
	assert.Equal(t, 50.0, stats.Percentage)
	assert.Equal(t, statsService.StandingCritical, stats.Status)

	updated := h.pub.find(xRoom, events.AttendanceUpdated)
	require.Len(t, updated, 1)
	up := updated[0].Payload.(events.AttendanceUpdatedPayload)
	assert.Equal(t, 50.0, up.NewPercentage)
	assert.Equal(t, "CRITICAL", up.Status)

	alerts := h.pub.find(xRoom, events.LowAttendanceAlert)
	require.Len(t, alerts, 1)
	alert := alerts[0].Payload.(events.LowAttendanceAlertPayload)
	assert.EqualValues(t, 2, alert.SessionsNeeded)
	assert.Equal(t, "CRITICAL", alert.Status)
	assert.Equal(t, 50.0, alert.Percentage)
	assert.Equal(t, h.fx.Subject.SubjectCode, alert.SubjectCode)

	// siswa lain tetap GOOD: tidak ada alert
	for _, st := range h.fx.Students[1:] {
		assert.Empty(t, h.pub.find(realtime.UserRoom(st.StudentUserID), events.LowAttendanceAlert))
	}

	assert.Equal(t, []uuid.UUID{x.StudentUserID}, h.dispatch.pushes)
	require.Len(t, h.dispatch.emails, 1)
	assert.Equal(t, x.User.Email, h.dispatch.emails[0].To)

	last := h.reports[len(h.reports)-1]
	assert.Equal(t, 1, last.PushSent)
	assert.Equal(t, 1, last.EmailSent)
	assert.Empty(t, last.Errors)
}

func TestFanOut_OnlyChangedStudentsNotified(t *testing.T) {
	h := newHarness(t, 3)
	s1 := h.createSession(t, "2026-03-02")
	h.markAll(t, s1, nil)
	h.pub.reset()

	// kirim ulang payload yang sama: tidak ada siswa berubah
	h.markAll(t, s1, nil)
	for _, st := range h.fx.Students {
		assert.Empty(t, h.pub.find(realtime.UserRoom(st.StudentUserID), events.AttendanceUpdated))
	}
	// event batch & live tetap terkirim
	assert.Len(t, h.pub.find(realtime.BatchRoom(h.fx.Batch.BatchID), events.AttendanceMarked), 1)
	assert.Len(t, h.pub.find(realtime.EnrollmentRoom(h.fx.Enrollment.SubjectEnrollmentID), events.LiveSessionStatus), 1)
}

func TestFanOut_WarningSendsPushWithoutEmail(t *testing.T) {
	h := newHarness(t, 1)
	st := h.fx.Students[0]

	// 7 hadir lalu 3 absen: 7/8 dan 7/9 masih GOOD, 7/10 → WARNING
	dates := []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06",
		"2026-03-09", "2026-03-10", "2026-03-11", "2026-03-12", "2026-03-13"}
	for i, d := range dates {
		sid := h.createSession(t, d)
		status := recordModel.AttendancePresent
		if i >= 7 {
			status = recordModel.AttendanceAbsent
		}
		h.markAll(t, sid, map[uuid.UUID]recordModel.AttendanceStatus{st.StudentID: status})
	}

	alerts := h.pub.find(realtime.UserRoom(st.StudentUserID), events.LowAttendanceAlert)
	require.NotEmpty(t, alerts)
	last := alerts[len(alerts)-1].Payload.(events.LowAttendanceAlertPayload)
	assert.Equal(t, "WARNING", last.Status)
	assert.Equal(t, 70.0, last.Percentage)
	// 3*10 - 4*7 = 2
	assert.EqualValues(t, 2, last.SessionsNeeded)
	assert.Empty(t, h.dispatch.emails)
	assert.NotEmpty(t, h.dispatch.pushes)
}

func TestFanOut_PublishFailureDoesNotFailMark(t *testing.T) {
	h := newHarness(t, 2)
	s1 := h.createSession(t, "2026-03-02")
	h.pub.err = errors.New("transport down")

	out, err := h.records.MarkAttendance(context.Background(), h.fx.Teacher.TeacherID, s1, []recordService.MarkInput{
		{StudentID: h.fx.Students[0].StudentID, Status: recordModel.AttendanceAbsent},
		{StudentID: h.fx.Students[1].StudentID, Status: recordModel.AttendancePresent},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Created)

	var n int64
	require.NoError(t, h.db.Model(&recordModel.AttendanceRecordModel{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	rep := h.reports[len(h.reports)-1]
	assert.Zero(t, rep.Published)
	assert.Positive(t, rep.PublishFailed)
	assert.NotEmpty(t, rep.Errors)
	// push/email tetap jalan walau realtime gagal (siswa 0: 0% CRITICAL)
	assert.Equal(t, 1, rep.PushSent)
	assert.Equal(t, 1, rep.EmailSent)
}

func TestFanOut_EditPublishesEditedEvent(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	x := h.fx.Students[0]
	s1 := h.createSession(t, "2026-03-02")
	h.markAll(t, s1, nil)
	h.pub.reset()

	var rec recordModel.AttendanceRecordModel
	require.NoError(t, h.db.First(&rec, "attendance_record_session_id = ? AND attendance_record_student_id = ?", s1, x.StudentID).Error)

	reason := "salah input"
	res, err := h.records.UpdateAttendanceRecord(ctx, h.fx.Teacher.TeacherID, rec.AttendanceRecordID, recordModel.AttendanceAbsent, &reason)
	require.NoError(t, err)
	require.True(t, res.Changed)

	edited := h.pub.find(realtime.UserRoom(x.StudentUserID), events.AttendanceEdited)
	require.Len(t, edited, 1)
	p := edited[0].Payload.(events.AttendanceEditedPayload)
	assert.Equal(t, "PRESENT", p.OldStatus)
	assert.Equal(t, "ABSENT", p.NewStatus)
	assert.Equal(t, h.fx.Teacher.TeacherID, p.EditedBy)
	assert.Equal(t, reason, p.Reason)
	assert.Len(t, h.pub.find(realtime.EnrollmentRoom(h.fx.Enrollment.SubjectEnrollmentID), events.AttendanceEdited), 1)

	alerts := h.pub.find(realtime.UserRoom(x.StudentUserID), events.LowAttendanceAlert)
	require.Len(t, alerts, 1)
	// total=1 attended=0 → 3
	assert.EqualValues(t, 3, alerts[0].Payload.(events.LowAttendanceAlertPayload).SessionsNeeded)
	assert.Len(t, h.dispatch.emails, 1)

	// status sama: no-op, tidak ada fan-out
	h.pub.reset()
	res, err = h.records.UpdateAttendanceRecord(ctx, h.fx.Teacher.TeacherID, rec.AttendanceRecordID, recordModel.AttendanceAbsent, nil)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, h.pub.find(realtime.UserRoom(x.StudentUserID), events.AttendanceEdited))
}

func TestFanOut_AsyncAndPanicRecovery(t *testing.T) {
	h := newHarness(t, 1)
	h.fo.Async = true
	s1 := h.createSession(t, "2026-03-02")
	h.markAll(t, s1, nil)
	h.fo.Wait()
	assert.Len(t, h.pub.find(realtime.BatchRoom(h.fx.Batch.BatchID), events.AttendanceMarked), 1)

	// stats source yang panic tidak boleh menjatuhkan proses
	h.fo.Async = false
	h.fo.Stats = panicStats{}
	assert.NotPanics(t, func() { h.markAll(t, s1, map[uuid.UUID]recordModel.AttendanceStatus{h.fx.Students[0].StudentID: recordModel.AttendanceLate}) })
}

type requestScopeKey struct{}

// ctxStats mencatat context yang diterima fan-out.
type ctxStats struct {
	inner StatsSource
	mu    sync.Mutex
	seen  []context.Context
}

func (s *ctxStats) ComputeStats(ctx context.Context, studentID, enrollmentID uuid.UUID) (statsService.Stats, error) {
	s.mu.Lock()
	s.seen = append(s.seen, ctx)
	s.mu.Unlock()
	return s.inner.ComputeStats(ctx, studentID, enrollmentID)
}

func TestDetach_KeepsOnlyRequestID(t *testing.T) {
	parent, cancel := context.WithCancel(context.WithValue(
		helper.WithRequestID(context.Background(), "req-42"), requestScopeKey{}, "pooled"))
	cancel()

	ctx := detach(parent)
	assert.NoError(t, ctx.Err())
	assert.Nil(t, ctx.Value(requestScopeKey{}))
	assert.Equal(t, "req-42", helper.RequestIDFrom(ctx))
}

func TestFanOut_AsyncOutlivesRequestContext(t *testing.T) {
	h := newHarness(t, 1)
	h.fo.Async = true
	spy := &ctxStats{inner: h.stats}
	h.fo.Stats = spy
	s1 := h.createSession(t, "2026-03-02")

	reqCtx, cancel := context.WithCancel(context.WithValue(
		helper.WithRequestID(context.Background(), "req-7"), requestScopeKey{}, "pooled"))
	_, err := h.records.MarkAttendance(reqCtx, h.fx.Teacher.TeacherID, s1, []recordService.MarkInput{
		{StudentID: h.fx.Students[0].StudentID, Status: recordModel.AttendanceAbsent},
	})
	require.NoError(t, err)
	cancel()
	h.fo.Wait()

	spy.mu.Lock()
	defer spy.mu.Unlock()
	require.NotEmpty(t, spy.seen)
	for _, ctx := range spy.seen {
		assert.Nil(t, ctx.Value(requestScopeKey{}))
		assert.Equal(t, "req-7", helper.RequestIDFrom(ctx))
	}
	assert.Len(t, h.pub.find(realtime.UserRoom(h.fx.Students[0].StudentUserID), events.LowAttendanceAlert), 1)
}

type panicStats struct{}

func (panicStats) ComputeStats(context.Context, uuid.UUID, uuid.UUID) (statsService.Stats, error) {
	panic("boom")
}

func TestCriticalEmailHTML_EscapesName(t *testing.T) {
	out := criticalEmailHTML("<script>x</script>", "CS101", "Struktur Data",
		statsService.Calculate(statsService.Counts{TotalSessions: 2, Present: 1, Absent: 1}), 2)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "<b>2</b>")
}
