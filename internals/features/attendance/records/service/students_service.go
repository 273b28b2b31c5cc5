package service

import (
	"context"

	"attendance_backend/internals/features/attendance/records/dto"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	sessionRepo "attendance_backend/internals/features/attendance/sessions/repository"
	helper "attendance_backend/internals/helpers"

	"github.com/google/uuid"
)

// GetSessionStudents: kalau sesi sudah punya record → record + identitas siswa;
// kalau belum → tiap siswa batch default PRESENT dengan record_id kosong.
func (s *RecordService) GetSessionStudents(ctx context.Context, teacherID, sessionID uuid.UUID) (*dto.SessionStudentsResponse, error) {
	sess, err := sessionRepo.FindOwnedSession(ctx, s.DB, teacherID, sessionID, sessionRepo.LockNone)
	if err != nil {
		return nil, err
	}

	var records []recordModel.AttendanceRecordModel
	if err := s.DB.WithContext(ctx).
		Preload("Student.User").
		Joins("JOIN students st ON st.student_id = attendance_records.attendance_record_student_id").
		Where("attendance_records.attendance_record_session_id = ?", sessionID).
		Order("st.student_roll_number ASC").
		Find(&records).Error; err != nil {
		return nil, helper.Internal("load records", err)
	}

	out := &dto.SessionStudentsResponse{SessionID: sessionID}
	if len(records) > 0 {
		out.IsMarked = true
		out.Students = make([]dto.SessionStudent, 0, len(records))
		for i := range records {
			r := &records[i]
			row := dto.SessionStudent{
				RecordID:  r.AttendanceRecordID.String(),
				StudentID: r.AttendanceRecordStudentID,
				Status:    r.AttendanceRecordStatus,
				MarkedAt:  &r.AttendanceRecordMarkedAt,
				IsMarked:  true,
			}
			if r.Student != nil {
				st := studentFromModel(r.Student)
				row.UserID, row.FullName, row.RollNumber = st.UserID, st.FullName, st.RollNumber
			}
			out.Students = append(out.Students, row)
		}
		return out, nil
	}

	students, err := batchStudents(ctx, s.DB, sess.Enrollment.SubjectEnrollmentBatchID)
	if err != nil {
		return nil, helper.Internal("load batch students", err)
	}
	if len(students) == 0 {
		return nil, helper.BadRequest("Batch belum memiliki siswa")
	}
	out.Students = make([]dto.SessionStudent, 0, len(students))
	for i := range students {
		st := studentFromModel(&students[i])
		out.Students = append(out.Students, dto.SessionStudent{
			RecordID:   "",
			StudentID:  st.StudentID,
			UserID:     st.UserID,
			FullName:   st.FullName,
			RollNumber: st.RollNumber,
			Status:     recordModel.AttendancePresent,
		})
	}
	return out, nil
}
