// Package fanout: notifikasi pasca-commit untuk mark & edit absensi.
// Publish realtime, push, dan email semuanya best-effort; kegagalan hanya
// dicatat di FanOutReport + log, tidak pernah dikembalikan ke Mark Engine.
package fanout

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"attendance_backend/internals/features/attendance/events"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	recordService "attendance_backend/internals/features/attendance/records/service"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	statsService "attendance_backend/internals/features/attendance/stats/service"
	notifService "attendance_backend/internals/features/notifications/service"
	userModel "attendance_backend/internals/features/users/user/model"
	helper "attendance_backend/internals/helpers"
	"attendance_backend/internals/helpers/dbtime"
	"attendance_backend/internals/metrics"
	"attendance_backend/internals/realtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatsSource: cukup ComputeStats (StatsService memenuhinya).
type StatsSource interface {
	ComputeStats(ctx context.Context, studentID, enrollmentID uuid.UUID) (statsService.Stats, error)
}

// Dispatcher: push/email best-effort (notifService.Dispatcher memenuhinya).
type Dispatcher interface {
	Push(ctx context.Context, userID uuid.UUID, eventType, title, body string, data map[string]string) notifService.Result
	Email(ctx context.Context, userID uuid.UUID, to, eventType, subject, html string) notifService.Result
}

// FanOutReport: ringkasan satu putaran fan-out.
type FanOutReport struct {
	Published     int
	PublishFailed int
	PushSent      int
	PushFailed    int
	EmailSent     int
	EmailFailed   int
	Errors        []string
}

func (r *FanOutReport) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

type FanOut struct {
	DB        *gorm.DB
	Stats     StatsSource
	Publisher realtime.Publisher
	Dispatch  Dispatcher

	// batas waktu per panggilan eksternal (publish / push / email)
	CallTimeout time.Duration
	// true → jalan di goroutine setelah mark/edit return
	Async bool
	// opsional, dipanggil setiap fan-out selesai
	OnReport func(FanOutReport)

	wg sync.WaitGroup
}

var _ recordService.Notifier = (*FanOut)(nil)

func New(db *gorm.DB, stats StatsSource, pub realtime.Publisher, dispatch Dispatcher, callTimeout time.Duration, async bool) *FanOut {
	if callTimeout <= 0 {
		callTimeout = 3 * time.Second
	}
	return &FanOut{
		DB:          db,
		Stats:       stats,
		Publisher:   pub,
		Dispatch:    dispatch,
		CallTimeout: callTimeout,
		Async:       async,
	}
}

func (f *FanOut) AttendanceMarked(ctx context.Context, ev recordService.MarkEvent) {
	f.dispatch(ctx, "mark", func(ctx context.Context) FanOutReport { return f.RunMark(ctx, ev) })
}

func (f *FanOut) AttendanceEdited(ctx context.Context, ev recordService.EditEvent) {
	f.dispatch(ctx, "edit", func(ctx context.Context) FanOutReport { return f.RunEdit(ctx, ev) })
}

// Wait menunggu fan-out async yang masih berjalan (shutdown & test).
func (f *FanOut) Wait() { f.wg.Wait() }

func (f *FanOut) dispatch(ctx context.Context, kind string, run func(context.Context) FanOutReport) {
	ctx = detach(ctx)
	if !f.Async {
		f.runSafe(ctx, kind, run)
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.runSafe(ctx, kind, run)
	}()
}

// detach: context baru untuk fan-out, hanya request id yang dibawa.
// Fan-out boleh hidup lebih lama dari request asalnya.
func detach(parent context.Context) context.Context {
	return helper.WithRequestID(context.Background(), helper.RequestIDFrom(parent))
}

func (f *FanOut) runSafe(ctx context.Context, kind string, run func(context.Context) FanOutReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[FANOUT] panic (%s): %v\n%s", kind, r, debug.Stack())
		}
	}()
	rep := run(ctx)
	f.finish(ctx, kind, rep)
}

func (f *FanOut) finish(ctx context.Context, kind string, rep FanOutReport) {
	reqID := helper.RequestIDFrom(ctx)
	metrics.RecordNotification("realtime", true, rep.Published)
	metrics.RecordNotification("realtime", false, rep.PublishFailed)

	if len(rep.Errors) > 0 {
		log.Printf("[FANOUT] %s req=%s selesai dengan %d error: published=%d/%d push=%d/%d email=%d/%d errors=%v",
			kind, reqID, len(rep.Errors),
			rep.Published, rep.Published+rep.PublishFailed,
			rep.PushSent, rep.PushSent+rep.PushFailed,
			rep.EmailSent, rep.EmailSent+rep.EmailFailed,
			rep.Errors)
	} else {
		log.Printf("[FANOUT] %s req=%s ok: published=%d push=%d email=%d", kind, reqID, rep.Published, rep.PushSent, rep.EmailSent)
	}
	if f.OnReport != nil {
		f.OnReport(rep)
	}
}

/* ==========================
   Mark
========================== */

// RunMark: urutan batch → enrollment → per siswa yang berubah.
func (f *FanOut) RunMark(ctx context.Context, ev recordService.MarkEvent) FanOutReport {
	var rep FanOutReport
	sess := ev.Session
	if sess == nil || sess.Enrollment == nil {
		rep.fail("sesi/enrollment kosong")
		return rep
	}
	enr := sess.Enrollment

	f.publish(ctx, &rep, realtime.BatchRoom(enr.SubjectEnrollmentBatchID), events.AttendanceMarked, events.AttendanceMarkedPayload{
		SessionID:   sess.AttendanceSessionID,
		SubjectCode: enr.SubjectCode(),
		SubjectName: enr.SubjectName(),
		BatchCode:   enr.BatchCode(),
		TeacherName: enr.TeacherName(),
		Date:        dbtime.FormatDate(sess.AttendanceSessionDate),
		MarkedCount: ev.MarkedCount,
	})

	f.publishLiveStatus(ctx, &rep, sess)

	for _, st := range ev.Changed {
		f.studentUpdate(ctx, &rep, sess, st.Student)
	}
	return rep
}

/* ==========================
   Edit
========================== */

// RunEdit: status live + alert untuk satu siswa + ATTENDANCE_EDITED.
func (f *FanOut) RunEdit(ctx context.Context, ev recordService.EditEvent) FanOutReport {
	var rep FanOutReport
	sess := ev.Session
	if sess == nil || sess.Enrollment == nil {
		rep.fail("sesi/enrollment kosong")
		return rep
	}

	f.publishLiveStatus(ctx, &rep, sess)
	f.studentUpdate(ctx, &rep, sess, ev.Student)

	payload := events.AttendanceEditedPayload{
		RecordID:    ev.RecordID,
		SessionID:   sess.AttendanceSessionID,
		SubjectCode: sess.Enrollment.SubjectCode(),
		OldStatus:   string(ev.OldStatus),
		NewStatus:   string(ev.NewStatus),
		EditedBy:    ev.EditedBy,
		Reason:      ev.Reason,
	}
	f.publish(ctx, &rep, realtime.UserRoom(ev.Student.UserID), events.AttendanceEdited, payload)
	f.publish(ctx, &rep, realtime.EnrollmentRoom(sess.AttendanceSessionEnrollmentID), events.AttendanceEdited, payload)
	return rep
}

/* ==========================
   Langkah-langkah
========================== */

func (f *FanOut) publish(ctx context.Context, rep *FanOutReport, room, eventType string, payload any) {
	if f.Publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, f.CallTimeout)
	defer cancel()
	if err := f.Publisher.Publish(pctx, room, eventType, payload); err != nil {
		rep.PublishFailed++
		rep.fail("publish %s ke %s: %v", eventType, room, err)
		return
	}
	rep.Published++
}

type liveCounts struct {
	Status recordModel.AttendanceStatus `gorm:"column:status"`
	N      int64                        `gorm:"column:n"`
}

func (f *FanOut) publishLiveStatus(ctx context.Context, rep *FanOutReport, sess *sessionModel.AttendanceSessionModel) {
	qctx, cancel := context.WithTimeout(ctx, f.CallTimeout)
	defer cancel()

	var total int64
	if err := f.DB.WithContext(qctx).Model(&userModel.StudentModel{}).
		Where("student_batch_id = ?", sess.Enrollment.SubjectEnrollmentBatchID).
		Count(&total).Error; err != nil {
		rep.fail("hitung siswa batch: %v", err)
		return
	}

	var rows []liveCounts
	if err := f.DB.WithContext(qctx).Model(&recordModel.AttendanceRecordModel{}).
		Select("attendance_record_status AS status, COUNT(*) AS n").
		Where("attendance_record_session_id = ?", sess.AttendanceSessionID).
		Group("attendance_record_status").
		Scan(&rows).Error; err != nil {
		rep.fail("hitung record sesi: %v", err)
		return
	}

	p := events.LiveSessionStatusPayload{SessionID: sess.AttendanceSessionID, TotalStudents: total}
	for _, r := range rows {
		p.MarkedCount += r.N
		switch r.Status {
		case recordModel.AttendancePresent:
			p.PresentCount += r.N
		case recordModel.AttendanceAbsent:
			p.AbsentCount += r.N
		}
	}
	if total > 0 {
		p.Progress = statsService.Round2(float64(p.MarkedCount) / float64(total) * 100)
	}
	f.publish(ctx, rep, realtime.EnrollmentRoom(sess.AttendanceSessionEnrollmentID), events.LiveSessionStatus, p)
}

// studentUpdate: hitung ulang statistik, kirim ATTENDANCE_UPDATED, lalu alert bila WARNING/CRITICAL.
func (f *FanOut) studentUpdate(ctx context.Context, rep *FanOutReport, sess *sessionModel.AttendanceSessionModel, st recordService.Student) {
	if f.Stats == nil {
		return
	}
	enr := sess.Enrollment

	sctx, cancel := context.WithTimeout(ctx, f.CallTimeout)
	stats, err := f.Stats.ComputeStats(sctx, st.StudentID, sess.AttendanceSessionEnrollmentID)
	cancel()
	if err != nil {
		rep.fail("stats siswa %s: %v", st.StudentID, err)
		return
	}

	room := realtime.UserRoom(st.UserID)
	f.publish(ctx, rep, room, events.AttendanceUpdated, events.AttendanceUpdatedPayload{
		SubjectCode:   enr.SubjectCode(),
		SubjectName:   enr.SubjectName(),
		NewPercentage: stats.Percentage,
		Status:        string(stats.Status),
		Stats:         stats,
	})

	if stats.Status == statsService.StandingGood {
		return
	}

	needed := statsService.SessionsNeeded(stats.TotalSessions, stats.Attended)
	msg := alertMessage(enr.SubjectName(), stats, needed)
	f.publish(ctx, rep, room, events.LowAttendanceAlert, events.LowAttendanceAlertPayload{
		SubjectCode:    enr.SubjectCode(),
		SubjectName:    enr.SubjectName(),
		Percentage:     stats.Percentage,
		SessionsNeeded: needed,
		Status:         string(stats.Status),
		Message:        msg,
	})

	if f.Dispatch == nil {
		return
	}

	push := f.Dispatch.Push(ctx, st.UserID, events.LowAttendanceAlert,
		"Kehadiran rendah: "+enr.SubjectCode(), msg,
		map[string]string{
			"type":           events.LowAttendanceAlert,
			"subjectCode":    enr.SubjectCode(),
			"status":         string(stats.Status),
			"percentage":     fmt.Sprintf("%.2f", stats.Percentage),
			"sessionsNeeded": fmt.Sprintf("%d", needed),
		})
	rep.PushSent += push.Sent
	rep.PushFailed += push.Failed
	if push.Err != nil {
		rep.fail("push %s: %v", st.UserID, push.Err)
	}

	if stats.Status != statsService.StandingCritical {
		return
	}
	if st.Email == "" {
		rep.EmailFailed++
		rep.fail("email %s: alamat kosong", st.UserID)
		return
	}
	mail := f.Dispatch.Email(ctx, st.UserID, st.Email, events.LowAttendanceAlert,
		fmt.Sprintf("[PERINGATAN] Kehadiran %s %.2f%%", enr.SubjectCode(), stats.Percentage),
		criticalEmailHTML(st.FullName, enr.SubjectCode(), enr.SubjectName(), stats, needed))
	rep.EmailSent += mail.Sent
	rep.EmailFailed += mail.Failed
	if mail.Err != nil {
		rep.fail("email %s: %v", st.Email, mail.Err)
	}
}
