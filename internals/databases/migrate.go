package database

import (
	"log"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	notifModel "attendance_backend/internals/features/notifications/model"
	userModel "attendance_backend/internals/features/users/user/model"

	"gorm.io/gorm"
)

// AutoMigrate: urutan penting (FK parent dulu).
func AutoMigrate(db *gorm.DB) error {
	log.Println("[INFO] AutoMigrate schema attendance...")
	return db.AutoMigrate(
		&userModel.UserModel{},
		&userModel.TeacherModel{},
		&enrollmentModel.SubjectModel{},
		&enrollmentModel.BatchModel{},
		&userModel.StudentModel{},
		&enrollmentModel.SubjectEnrollmentModel{},
		&sessionModel.AttendanceSessionModel{},
		&recordModel.AttendanceRecordModel{},
		&recordModel.AttendanceEditModel{},
		&notifModel.DeviceTokenModel{},
		&notifModel.NotificationLogModel{},
	)
}
