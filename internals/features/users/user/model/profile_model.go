package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentModel: profil siswa (1:1 dengan users). Batch boleh kosong
// sampai siswa di-import/di-assign oleh guru.
type StudentModel struct {
	StudentID         uuid.UUID  `gorm:"type:uuid;primaryKey;column:student_id" json:"student_id"`
	StudentUserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex;column:student_user_id" json:"student_user_id"`
	StudentRollNumber string     `gorm:"size:40;not null;uniqueIndex;column:student_roll_number" json:"student_roll_number"`
	StudentBatchID    *uuid.UUID `gorm:"type:uuid;index;column:student_batch_id" json:"student_batch_id,omitempty"`
	StudentCreatedAt  time.Time  `gorm:"autoCreateTime;column:student_created_at" json:"student_created_at"`
	StudentUpdatedAt  time.Time  `gorm:"autoUpdateTime;column:student_updated_at" json:"student_updated_at"`

	User *UserModel `gorm:"foreignKey:StudentUserID;references:ID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (StudentModel) TableName() string { return "students" }

func (m *StudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	return nil
}

// TeacherModel: profil guru (1:1 dengan users)
type TeacherModel struct {
	TeacherID           uuid.UUID `gorm:"type:uuid;primaryKey;column:teacher_id" json:"teacher_id"`
	TeacherUserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:teacher_user_id" json:"teacher_user_id"`
	TeacherEmployeeCode string    `gorm:"size:40;not null;uniqueIndex;column:teacher_employee_code" json:"teacher_employee_code"`
	TeacherDepartment   string    `gorm:"size:100;not null;default:'';column:teacher_department" json:"teacher_department"`
	TeacherCreatedAt    time.Time `gorm:"autoCreateTime;column:teacher_created_at" json:"teacher_created_at"`
	TeacherUpdatedAt    time.Time `gorm:"autoUpdateTime;column:teacher_updated_at" json:"teacher_updated_at"`

	User *UserModel `gorm:"foreignKey:TeacherUserID;references:ID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (TeacherModel) TableName() string { return "teachers" }

func (m *TeacherModel) BeforeCreate(tx *gorm.DB) error {
	if m.TeacherID == uuid.Nil {
		m.TeacherID = uuid.New()
	}
	return nil
}
