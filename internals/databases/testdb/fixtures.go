package testdb

import (
	"fmt"
	"testing"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	userModel "attendance_backend/internals/features/users/user/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fixture: satu guru + enrollment (subject x batch) + siswa di batch tsb.
type Fixture struct {
	Teacher     userModel.TeacherModel
	TeacherUser userModel.UserModel
	Subject     enrollmentModel.SubjectModel
	Batch       enrollmentModel.BatchModel
	Enrollment  enrollmentModel.SubjectEnrollmentModel
	Students    []userModel.StudentModel
}

var seq int

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}

func CreateTeacher(t testing.TB, db *gorm.DB, name string) (userModel.UserModel, userModel.TeacherModel) {
	t.Helper()
	seq++
	u := userModel.UserModel{
		UserName: fmt.Sprintf("teacher%d", seq),
		FullName: name,
		Email:    fmt.Sprintf("teacher%d@example.test", seq),
		Password: "x",
		Role:     userModel.RoleTeacher,
		IsActive: true,
	}
	must(t, db.Create(&u).Error)
	tm := userModel.TeacherModel{
		TeacherUserID:       u.ID,
		TeacherEmployeeCode: fmt.Sprintf("EMP-%03d", seq),
		TeacherDepartment:   "Informatika",
	}
	must(t, db.Create(&tm).Error)
	return u, tm
}

func CreateStudent(t testing.TB, db *gorm.DB, batchID *uuid.UUID, name string) userModel.StudentModel {
	t.Helper()
	seq++
	u := userModel.UserModel{
		UserName: fmt.Sprintf("student%d", seq),
		FullName: name,
		Email:    fmt.Sprintf("student%d@example.test", seq),
		Password: "x",
		Role:     userModel.RoleStudent,
		IsActive: true,
	}
	must(t, db.Create(&u).Error)
	s := userModel.StudentModel{
		StudentUserID:     u.ID,
		StudentRollNumber: fmt.Sprintf("R-%04d", seq),
		StudentBatchID:    batchID,
	}
	must(t, db.Create(&s).Error)
	s.User = &u
	return s
}

// Seed membuat fixture lengkap dengan n siswa.
func Seed(t testing.TB, db *gorm.DB, students int) *Fixture {
	t.Helper()
	f := &Fixture{}
	f.TeacherUser, f.Teacher = CreateTeacher(t, db, "Bu Guru")
	f.Teacher.User = &f.TeacherUser

	seq++
	f.Subject = enrollmentModel.SubjectModel{
		SubjectCode:    fmt.Sprintf("CS%03d", seq),
		SubjectName:    "Struktur Data",
		SubjectCredits: 3,
	}
	must(t, db.Create(&f.Subject).Error)
	f.Batch = enrollmentModel.BatchModel{
		BatchCode: fmt.Sprintf("B%03d", seq),
		BatchName: "Angkatan 2026",
		BatchYear: 2026,
	}
	must(t, db.Create(&f.Batch).Error)
	f.Enrollment = enrollmentModel.SubjectEnrollmentModel{
		SubjectEnrollmentSubjectID: f.Subject.SubjectID,
		SubjectEnrollmentBatchID:   f.Batch.BatchID,
		SubjectEnrollmentTeacherID: f.Teacher.TeacherID,
		SubjectEnrollmentStatus:    enrollmentModel.EnrollmentActive,
		SubjectEnrollmentSemester:  "2026-Ganjil",
	}
	must(t, db.Create(&f.Enrollment).Error)
	f.Enrollment.Subject = &f.Subject
	f.Enrollment.Batch = &f.Batch
	f.Enrollment.Teacher = &f.Teacher

	batchID := f.Batch.BatchID
	for i := 0; i < students; i++ {
		f.Students = append(f.Students, CreateStudent(t, db, &batchID, fmt.Sprintf("Siswa %d", i+1)))
	}
	return f
}
