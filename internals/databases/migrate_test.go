package database_test

import (
	"testing"
	"time"

	"attendance_backend/internals/databases/testdb"
	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	userModel "attendance_backend/internals/features/users/user/model"
	"attendance_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createSession(t *testing.T, db *gorm.DB, fx *testdb.Fixture, start string) sessionModel.AttendanceSessionModel {
	t.Helper()
	s := sessionModel.AttendanceSessionModel{
		AttendanceSessionEnrollmentID: fx.Enrollment.SubjectEnrollmentID,
		AttendanceSessionDate:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		AttendanceSessionStartTime:    dbtime.MustParse(start),
		AttendanceSessionEndTime:      dbtime.MustParse("23:00"),
		AttendanceSessionType:         sessionModel.SessionRegular,
		AttendanceSessionTeacherID:    fx.Teacher.TeacherID,
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func createRecord(t *testing.T, db *gorm.DB, fx *testdb.Fixture, sessionID, studentID uuid.UUID) recordModel.AttendanceRecordModel {
	t.Helper()
	r := recordModel.AttendanceRecordModel{
		AttendanceRecordSessionID: sessionID,
		AttendanceRecordStudentID: studentID,
		AttendanceRecordStatus:    recordModel.AttendancePresent,
		AttendanceRecordMarkedAt:  time.Now().UTC(),
		AttendanceRecordMarkedBy:  fx.Teacher.TeacherID,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestForeignKeys_AttendanceHistoryIsProtected(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 2)
	sess := createSession(t, db, fx, "08:00")
	rec := createRecord(t, db, fx, sess.AttendanceSessionID, fx.Students[0].StudentID)
	require.NoError(t, db.Create(&recordModel.AttendanceEditModel{
		AttendanceEditRecordID:  rec.AttendanceRecordID,
		AttendanceEditOldStatus: recordModel.AttendancePresent,
		AttendanceEditNewStatus: recordModel.AttendanceAbsent,
		AttendanceEditEditedBy:  fx.Teacher.TeacherID,
		AttendanceEditReason:    "koreksi",
		AttendanceEditEditedAt:  time.Now().UTC(),
	}).Error)

	// enrollment punya sesi
	assert.Error(t, db.Delete(&enrollmentModel.SubjectEnrollmentModel{}, "subject_enrollment_id = ?", fx.Enrollment.SubjectEnrollmentID).Error)
	// siswa punya record
	assert.Error(t, db.Delete(&userModel.StudentModel{}, "student_id = ?", fx.Students[0].StudentID).Error)
	// user siswa → cascade ke students → tertahan record
	assert.Error(t, db.Delete(&userModel.UserModel{}, "id = ?", fx.Students[0].StudentUserID).Error)
	// ledger edit append-only
	assert.Error(t, db.Delete(&recordModel.AttendanceRecordModel{}, "attendance_record_id = ?", rec.AttendanceRecordID).Error)
	assert.Error(t, db.Delete(&sessionModel.AttendanceSessionModel{}, "attendance_session_id = ?", sess.AttendanceSessionID).Error)

	assert.EqualValues(t, 1, count(t, db, &sessionModel.AttendanceSessionModel{}))
	assert.EqualValues(t, 1, count(t, db, &recordModel.AttendanceRecordModel{}))
	assert.EqualValues(t, 1, count(t, db, &recordModel.AttendanceEditModel{}))

	// siswa tanpa record tetap boleh dihapus
	assert.NoError(t, db.Delete(&userModel.StudentModel{}, "student_id = ?", fx.Students[1].StudentID).Error)
}

func TestForeignKeys_SessionDeleteCascadesRecords(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, 1)
	sess := createSession(t, db, fx, "10:00")
	createRecord(t, db, fx, sess.AttendanceSessionID, fx.Students[0].StudentID)

	require.NoError(t, db.Delete(&sessionModel.AttendanceSessionModel{}, "attendance_session_id = ?", sess.AttendanceSessionID).Error)
	assert.EqualValues(t, 0, count(t, db, &recordModel.AttendanceRecordModel{}))
}
