package model

import (
	"time"

	userModel "attendance_backend/internals/features/users/user/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
=========================================================

	Enums
	=========================================================
*/
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
)

/*
=========================================================

	Subject (institution-wide, tidak terikat guru)
	=========================================================
*/
type SubjectModel struct {
	SubjectID        uuid.UUID `gorm:"type:uuid;primaryKey;column:subject_id" json:"subject_id"`
	SubjectCode      string    `gorm:"size:30;not null;uniqueIndex;column:subject_code" json:"subject_code"`
	SubjectName      string    `gorm:"size:160;not null;column:subject_name" json:"subject_name"`
	SubjectCredits   int       `gorm:"not null;default:0;column:subject_credits" json:"subject_credits"`
	SubjectCreatedAt time.Time `gorm:"autoCreateTime;column:subject_created_at" json:"subject_created_at"`
	SubjectUpdatedAt time.Time `gorm:"autoUpdateTime;column:subject_updated_at" json:"subject_updated_at"`
}

func (SubjectModel) TableName() string { return "subjects" }

func (m *SubjectModel) BeforeCreate(tx *gorm.DB) error {
	if m.SubjectID == uuid.Nil {
		m.SubjectID = uuid.New()
	}
	return nil
}

/*
=========================================================

	Batch (kelas/angkatan)
	=========================================================
*/
type BatchModel struct {
	BatchID        uuid.UUID `gorm:"type:uuid;primaryKey;column:batch_id" json:"batch_id"`
	BatchCode      string    `gorm:"size:30;not null;uniqueIndex;column:batch_code" json:"batch_code"`
	BatchName      string    `gorm:"size:160;not null;column:batch_name" json:"batch_name"`
	BatchYear      int       `gorm:"not null;column:batch_year" json:"batch_year"`
	BatchCreatedAt time.Time `gorm:"autoCreateTime;column:batch_created_at" json:"batch_created_at"`
	BatchUpdatedAt time.Time `gorm:"autoUpdateTime;column:batch_updated_at" json:"batch_updated_at"`
}

func (BatchModel) TableName() string { return "batches" }

func (m *BatchModel) BeforeCreate(tx *gorm.DB) error {
	if m.BatchID == uuid.Nil {
		m.BatchID = uuid.New()
	}
	return nil
}

/*
=========================================================

	SubjectEnrollment: (subject, batch) diajar oleh satu guru.
	Guru bisa diganti dengan update baris ini.
	=========================================================
*/
type SubjectEnrollmentModel struct {
	SubjectEnrollmentID        uuid.UUID        `gorm:"type:uuid;primaryKey;column:subject_enrollment_id" json:"subject_enrollment_id"`
	SubjectEnrollmentSubjectID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_subject_enrollment_subject_batch,priority:1;column:subject_enrollment_subject_id" json:"subject_enrollment_subject_id"`
	SubjectEnrollmentBatchID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_subject_enrollment_subject_batch,priority:2;index;column:subject_enrollment_batch_id" json:"subject_enrollment_batch_id"`
	SubjectEnrollmentTeacherID uuid.UUID        `gorm:"type:uuid;not null;index;column:subject_enrollment_teacher_id" json:"subject_enrollment_teacher_id"`
	SubjectEnrollmentStatus    EnrollmentStatus `gorm:"type:varchar(16);not null;default:'ACTIVE';column:subject_enrollment_status" json:"subject_enrollment_status"`
	SubjectEnrollmentSemester  string           `gorm:"size:40;not null;column:subject_enrollment_semester" json:"subject_enrollment_semester"`
	SubjectEnrollmentCreatedAt time.Time        `gorm:"autoCreateTime;column:subject_enrollment_created_at" json:"subject_enrollment_created_at"`
	SubjectEnrollmentUpdatedAt time.Time        `gorm:"autoUpdateTime;column:subject_enrollment_updated_at" json:"subject_enrollment_updated_at"`

	Subject *SubjectModel           `gorm:"foreignKey:SubjectEnrollmentSubjectID;references:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
	Batch   *BatchModel             `gorm:"foreignKey:SubjectEnrollmentBatchID;references:BatchID;constraint:OnDelete:CASCADE" json:"batch,omitempty"`
	Teacher *userModel.TeacherModel `gorm:"foreignKey:SubjectEnrollmentTeacherID;references:TeacherID" json:"teacher,omitempty"`
}

func (SubjectEnrollmentModel) TableName() string { return "subject_enrollments" }

func (m *SubjectEnrollmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.SubjectEnrollmentID == uuid.Nil {
		m.SubjectEnrollmentID = uuid.New()
	}
	if m.SubjectEnrollmentStatus == "" {
		m.SubjectEnrollmentStatus = EnrollmentActive
	}
	return nil
}

// SubjectCode / SubjectName / BatchCode aman dipanggil walau relasi belum di-preload.
func (m *SubjectEnrollmentModel) SubjectCode() string {
	if m.Subject == nil {
		return ""
	}
	return m.Subject.SubjectCode
}

func (m *SubjectEnrollmentModel) SubjectName() string {
	if m.Subject == nil {
		return ""
	}
	return m.Subject.SubjectName
}

func (m *SubjectEnrollmentModel) BatchCode() string {
	if m.Batch == nil {
		return ""
	}
	return m.Batch.BatchCode
}

func (m *SubjectEnrollmentModel) TeacherName() string {
	if m.Teacher == nil || m.Teacher.User == nil {
		return ""
	}
	return m.Teacher.User.FullName
}
