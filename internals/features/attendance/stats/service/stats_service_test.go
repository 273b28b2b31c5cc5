package service

import (
	"context"
	"testing"

	"attendance_backend/internals/databases/testdb"
	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
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

func addSession(t *testing.T, db *gorm.DB, fx *testdb.Fixture, date string) uuid.UUID {
	t.Helper()
	d, err := dbtime.ParseDate(date)
	require.NoError(t, err)
	s := sessionModel.AttendanceSessionModel{
		AttendanceSessionEnrollmentID: fx.Enrollment.SubjectEnrollmentID,
		AttendanceSessionDate:         d,
		AttendanceSessionStartTime:    dbtime.MustParse("08:00"),
		AttendanceSessionEndTime:      dbtime.MustParse("09:00"),
		AttendanceSessionTeacherID:    fx.Teacher.TeacherID,
	}
	require.NoError(t, db.Create(&s).Error)
	return s.AttendanceSessionID
}

func addRecord(t *testing.T, db *gorm.DB, fx *testdb.Fixture, sessionID, studentID uuid.UUID, st recordModel.AttendanceStatus) {
	t.Helper()
	require.NoError(t, db.Create(&recordModel.AttendanceRecordModel{
		AttendanceRecordSessionID: sessionID,
		AttendanceRecordStudentID: studentID,
		AttendanceRecordStatus:    st,
		AttendanceRecordMarkedAt:  dbtime.NowUTC(),
		AttendanceRecordMarkedBy:  fx.Teacher.TeacherID,
	}).Error)
}

func TestComputeStats_UnmarkedSessionCountsAsAbsence(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 2)
	svc := NewStatsService(db)
	a, b := fx.Students[0], fx.Students[1]

	s1 := addSession(t, db, fx, "2026-03-02")
	s2 := addSession(t, db, fx, "2026-03-03")
	addSession(t, db, fx, "2026-03-04")
	addRecord(t, db, fx, s1, a.StudentID, recordModel.AttendancePresent)
	addRecord(t, db, fx, s2, a.StudentID, recordModel.AttendanceLate)
	addRecord(t, db, fx, s1, b.StudentID, recordModel.AttendanceAbsent)

	got, err := svc.ComputeStats(context.Background(), a.StudentID, fx.Enrollment.SubjectEnrollmentID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.TotalSessions)
	assert.EqualValues(t, 1, got.Present)
	assert.EqualValues(t, 1, got.Late)
	assert.EqualValues(t, 1, got.Unmarked)
	assert.Equal(t, 66.67, got.Percentage)
	assert.Equal(t, StandingWarning, got.Status)

	// record siswa lain tidak ikut terhitung
	got, err = svc.ComputeStats(context.Background(), b.StudentID, fx.Enrollment.SubjectEnrollmentID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Absent)
	assert.Equal(t, 0.0, got.Percentage)
}

func TestEnrollmentSummary(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 3)
	svc := NewStatsService(db)
	ctx := context.Background()

	s1 := addSession(t, db, fx, "2026-03-02")
	addRecord(t, db, fx, s1, fx.Students[0].StudentID, recordModel.AttendancePresent)
	addRecord(t, db, fx, s1, fx.Students[1].StudentID, recordModel.AttendanceExcused)
	addRecord(t, db, fx, s1, fx.Students[2].StudentID, recordModel.AttendanceAbsent)

	out, err := svc.EnrollmentSummary(ctx, fx.Teacher.TeacherID, fx.Enrollment.SubjectEnrollmentID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.TotalSessions)
	require.Len(t, out.Students, 3)
	assert.Equal(t, 2, out.GoodCount)
	assert.Equal(t, 1, out.CriticalCount)
	assert.Equal(t, fx.Subject.SubjectCode, out.SubjectCode)

	_, other := testdb.CreateTeacher(t, db, "Pak Lain")
	_, err = svc.EnrollmentSummary(ctx, other.TeacherID, fx.Enrollment.SubjectEnrollmentID)
	assert.True(t, helper.IsStatus(err, fiber.StatusForbidden))

	_, err = svc.EnrollmentSummary(ctx, fx.Teacher.TeacherID, uuid.New())
	assert.True(t, helper.IsStatus(err, fiber.StatusNotFound))
}

func TestStudentSummary_ActiveEnrollmentsOnly(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 1)
	svc := NewStatsService(db)
	ctx := context.Background()
	st := fx.Students[0]

	s1 := addSession(t, db, fx, "2026-03-02")
	addRecord(t, db, fx, s1, st.StudentID, recordModel.AttendancePresent)

	// enrollment kedua untuk batch yang sama tapi sudah DROPPED
	sub := enrollmentModel.SubjectModel{SubjectCode: "MA201", SubjectName: "Kalkulus", SubjectCredits: 2}
	require.NoError(t, db.Create(&sub).Error)
	require.NoError(t, db.Create(&enrollmentModel.SubjectEnrollmentModel{
		SubjectEnrollmentSubjectID: sub.SubjectID,
		SubjectEnrollmentBatchID:   fx.Batch.BatchID,
		SubjectEnrollmentTeacherID: fx.Teacher.TeacherID,
		SubjectEnrollmentStatus:    enrollmentModel.EnrollmentDropped,
		SubjectEnrollmentSemester:  "2026-Ganjil",
	}).Error)

	out, err := svc.StudentSummary(ctx, st.StudentID)
	require.NoError(t, err)
	require.Len(t, out.Subjects, 1)
	assert.Equal(t, fx.Subject.SubjectCode, out.Subjects[0].SubjectCode)
	assert.Equal(t, "Bu Guru", out.Subjects[0].TeacherName)
	assert.Equal(t, 100.0, out.Overall.Percentage)

	one, err := svc.StudentEnrollmentStats(ctx, st.StudentID, fx.Enrollment.SubjectEnrollmentID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, one.Stats.Present)

	// siswa dari batch lain ditolak
	outsider := testdb.CreateStudent(t, db, nil, "Orang Luar")
	_, err = svc.StudentEnrollmentStats(ctx, outsider.StudentID, fx.Enrollment.SubjectEnrollmentID)
	assert.True(t, helper.IsStatus(err, fiber.StatusForbidden))

	_, err = svc.StudentSummary(ctx, uuid.New())
	assert.True(t, helper.IsStatus(err, fiber.StatusNotFound))
}
