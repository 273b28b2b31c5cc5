package demo

import (
	_ "embed"
	"fmt"
	"log"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	authService "attendance_backend/internals/features/users/auth/service"
	userModel "attendance_backend/internals/features/users/user/model"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

//go:embed data_demo.json
var demoJSON []byte

type userSeed struct {
	UserName string `json:"user_name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type teacherSeed struct {
	userSeed
	EmployeeCode string `json:"employee_code"`
	Department   string `json:"department"`
}

type studentSeed struct {
	userSeed
	RollNumber string `json:"roll_number"`
}

type demoSeed struct {
	Teacher teacherSeed `json:"teacher"`
	Subject struct {
		Code    string `json:"code"`
		Name    string `json:"name"`
		Credits int    `json:"credits"`
	} `json:"subject"`
	Batch struct {
		Code string `json:"code"`
		Name string `json:"name"`
		Year int    `json:"year"`
	} `json:"batch"`
	Semester string        `json:"semester"`
	Students []studentSeed `json:"students"`
}

// SeedDemo: idempotent, baris yang sudah ada (per email / code) dilewati.
func SeedDemo(db *gorm.DB) error {
	var in demoSeed
	if err := sonic.Unmarshal(demoJSON, &in); err != nil {
		return fmt.Errorf("decode data_demo.json: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		tu, err := ensureUser(tx, in.Teacher.userSeed, userModel.RoleTeacher)
		if err != nil {
			return err
		}
		teacher := userModel.TeacherModel{
			TeacherUserID:       tu.ID,
			TeacherEmployeeCode: in.Teacher.EmployeeCode,
			TeacherDepartment:   in.Teacher.Department,
		}
		if err := tx.Where("teacher_user_id = ?", tu.ID).FirstOrCreate(&teacher).Error; err != nil {
			return fmt.Errorf("seed teacher: %w", err)
		}

		subject := enrollmentModel.SubjectModel{SubjectCode: in.Subject.Code, SubjectName: in.Subject.Name, SubjectCredits: in.Subject.Credits}
		if err := tx.Where("subject_code = ?", in.Subject.Code).FirstOrCreate(&subject).Error; err != nil {
			return fmt.Errorf("seed subject: %w", err)
		}
		batch := enrollmentModel.BatchModel{BatchCode: in.Batch.Code, BatchName: in.Batch.Name, BatchYear: in.Batch.Year}
		if err := tx.Where("batch_code = ?", in.Batch.Code).FirstOrCreate(&batch).Error; err != nil {
			return fmt.Errorf("seed batch: %w", err)
		}

		enr := enrollmentModel.SubjectEnrollmentModel{
			SubjectEnrollmentSubjectID: subject.SubjectID,
			SubjectEnrollmentBatchID:   batch.BatchID,
			SubjectEnrollmentTeacherID: teacher.TeacherID,
			SubjectEnrollmentStatus:    enrollmentModel.EnrollmentActive,
			SubjectEnrollmentSemester:  in.Semester,
		}
		if err := tx.Where("subject_enrollment_subject_id = ? AND subject_enrollment_batch_id = ?", subject.SubjectID, batch.BatchID).
			FirstOrCreate(&enr).Error; err != nil {
			return fmt.Errorf("seed enrollment: %w", err)
		}

		for _, s := range in.Students {
			su, err := ensureUser(tx, s.userSeed, userModel.RoleStudent)
			if err != nil {
				return err
			}
			batchID := batch.BatchID
			st := userModel.StudentModel{StudentUserID: su.ID, StudentRollNumber: s.RollNumber, StudentBatchID: &batchID}
			if err := tx.Where("student_user_id = ?", su.ID).FirstOrCreate(&st).Error; err != nil {
				return fmt.Errorf("seed student %s: %w", s.Email, err)
			}
		}
		log.Printf("✅ Seed demo: enrollment %s (%s × %s), %d siswa", enr.SubjectEnrollmentID, subject.SubjectCode, batch.BatchCode, len(in.Students))
		return nil
	})
}

func ensureUser(tx *gorm.DB, in userSeed, role string) (*userModel.UserModel, error) {
	var existing userModel.UserModel
	if err := tx.Where("email = ?", in.Email).First(&existing).Error; err == nil {
		log.Printf("ℹ️ User dengan email '%s' sudah ada, dilewati.", in.Email)
		return &existing, nil
	}

	// 🔐 Hash password sebelum disimpan
	hashed, err := authService.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password %s: %w", in.Email, err)
	}
	u := userModel.UserModel{
		UserName: in.UserName,
		FullName: in.FullName,
		Email:    in.Email,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	if err := tx.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("insert user %s: %w", in.Email, err)
	}
	return &u, nil
}
