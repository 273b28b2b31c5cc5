package service

import (
	"context"
	"errors"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	userModel "attendance_backend/internals/features/users/user/model"
	helper "attendance_backend/internals/helpers"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile: varian per role. Tiap varian hanya membawa field yang relevan.
type Profile interface {
	ProfileRole() string
}

type Account struct {
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
}

type BatchInfo struct {
	BatchID   uuid.UUID `json:"batchId"`
	BatchCode string    `json:"batchCode"`
	BatchName string    `json:"batchName"`
	BatchYear int       `json:"batchYear"`
}

type StudentProfile struct {
	Account
	StudentID  uuid.UUID  `json:"studentId"`
	RollNumber string     `json:"rollNumber"`
	Batch      *BatchInfo `json:"batch"`
}

func (StudentProfile) ProfileRole() string { return userModel.RoleStudent }

type TeachingAssignment struct {
	EnrollmentID uuid.UUID `json:"enrollmentId"`
	SubjectCode  string    `json:"subjectCode"`
	SubjectName  string    `json:"subjectName"`
	BatchCode    string    `json:"batchCode"`
	Semester     string    `json:"semester"`
	Status       string    `json:"status"`
}

type TeacherProfile struct {
	Account
	TeacherID    uuid.UUID            `json:"teacherId"`
	EmployeeCode string               `json:"employeeCode"`
	Department   string               `json:"department"`
	Enrollments  []TeachingAssignment `json:"enrollments"`
}

func (TeacherProfile) ProfileRole() string { return userModel.RoleTeacher }

// ProfileEnvelope: {"role": "...", "profile": {...varian...}}
type ProfileEnvelope struct {
	Role    string  `json:"role"`
	Profile Profile `json:"profile"`
}

func GetProfile(ctx context.Context, db *gorm.DB, id Identity) (*ProfileEnvelope, error) {
	var u userModel.UserModel
	if err := db.WithContext(ctx).First(&u, "id = ?", id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("User tidak ditemukan")
		}
		return nil, helper.Internal("load user", err)
	}
	acc := Account{UserID: u.ID, UserName: u.UserName, FullName: u.FullName, Email: u.Email}

	switch {
	case id.IsTeacher():
		p, err := teacherProfile(ctx, db, id.TeacherID, acc)
		if err != nil {
			return nil, err
		}
		return &ProfileEnvelope{Role: p.ProfileRole(), Profile: p}, nil
	case id.IsStudent():
		p, err := studentProfile(ctx, db, id.StudentID, acc)
		if err != nil {
			return nil, err
		}
		return &ProfileEnvelope{Role: p.ProfileRole(), Profile: p}, nil
	default:
		return nil, helper.NotFound("Profil untuk role ini belum tersedia")
	}
}

func teacherProfile(ctx context.Context, db *gorm.DB, teacherID uuid.UUID, acc Account) (*TeacherProfile, error) {
	var t userModel.TeacherModel
	if err := db.WithContext(ctx).First(&t, "teacher_id = ?", teacherID).Error; err != nil {
		return nil, helper.Internal("load teacher", err)
	}
	var enrollments []enrollmentModel.SubjectEnrollmentModel
	if err := db.WithContext(ctx).
		Preload("Subject").Preload("Batch").
		Where("subject_enrollment_teacher_id = ?", teacherID).
		Order("subject_enrollment_created_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, helper.Internal("load enrollments", err)
	}

	p := &TeacherProfile{
		Account:      acc,
		TeacherID:    t.TeacherID,
		EmployeeCode: t.TeacherEmployeeCode,
		Department:   t.TeacherDepartment,
		Enrollments:  make([]TeachingAssignment, 0, len(enrollments)),
	}
	for i := range enrollments {
		e := &enrollments[i]
		p.Enrollments = append(p.Enrollments, TeachingAssignment{
			EnrollmentID: e.SubjectEnrollmentID,
			SubjectCode:  e.SubjectCode(),
			SubjectName:  e.SubjectName(),
			BatchCode:    e.BatchCode(),
			Semester:     e.SubjectEnrollmentSemester,
			Status:       string(e.SubjectEnrollmentStatus),
		})
	}
	return p, nil
}

func studentProfile(ctx context.Context, db *gorm.DB, studentID uuid.UUID, acc Account) (*StudentProfile, error) {
	var s userModel.StudentModel
	if err := db.WithContext(ctx).First(&s, "student_id = ?", studentID).Error; err != nil {
		return nil, helper.Internal("load student", err)
	}
	p := &StudentProfile{Account: acc, StudentID: s.StudentID, RollNumber: s.StudentRollNumber}
	if s.StudentBatchID != nil {
		var b enrollmentModel.BatchModel
		if err := db.WithContext(ctx).First(&b, "batch_id = ?", *s.StudentBatchID).Error; err == nil {
			p.Batch = &BatchInfo{BatchID: b.BatchID, BatchCode: b.BatchCode, BatchName: b.BatchName, BatchYear: b.BatchYear}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.Internal("load batch", err)
		}
	}
	return p, nil
}
