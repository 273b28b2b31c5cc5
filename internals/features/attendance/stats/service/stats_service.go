package service

import (
	"context"

	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	recordModel "attendance_backend/internals/features/attendance/records/model"
	sessionModel "attendance_backend/internals/features/attendance/sessions/model"
	userModel "attendance_backend/internals/features/users/user/model"
	helper "attendance_backend/internals/helpers"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatsService: loader data untuk Calculate. Dipakai fan-out setelah mark/edit
// dan oleh read path dashboard, supaya keduanya selalu sepakat.
type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

type statusCount struct {
	StudentID uuid.UUID                    `gorm:"column:student_id"`
	Status    recordModel.AttendanceStatus `gorm:"column:status"`
	N         int64                        `gorm:"column:n"`
}

func (s *StatsService) countSessions(ctx context.Context, enrollmentID uuid.UUID) (int64, error) {
	var total int64
	err := s.DB.WithContext(ctx).
		Model(&sessionModel.AttendanceSessionModel{}).
		Where("attendance_session_enrollment_id = ?", enrollmentID).
		Count(&total).Error
	return total, err
}

func (s *StatsService) statusCounts(ctx context.Context, enrollmentID uuid.UUID, studentID *uuid.UUID) ([]statusCount, error) {
	q := s.DB.WithContext(ctx).
		Table("attendance_records AS r").
		Select("r.attendance_record_student_id AS student_id, r.attendance_record_status AS status, COUNT(*) AS n").
		Joins("JOIN attendance_sessions AS s ON s.attendance_session_id = r.attendance_record_session_id").
		Where("s.attendance_session_enrollment_id = ?", enrollmentID)
	if studentID != nil {
		q = q.Where("r.attendance_record_student_id = ?", *studentID)
	}

	var rows []statusCount
	err := q.Group("r.attendance_record_student_id, r.attendance_record_status").Scan(&rows).Error
	return rows, err
}

func applyCount(c *Counts, status recordModel.AttendanceStatus, n int64) {
	switch status {
	case recordModel.AttendancePresent:
		c.Present += n
	case recordModel.AttendanceAbsent:
		c.Absent += n
	case recordModel.AttendanceLate:
		c.Late += n
	case recordModel.AttendanceExcused:
		c.Excused += n
	}
}

// ComputeStats: statistik satu siswa untuk satu enrollment.
func (s *StatsService) ComputeStats(ctx context.Context, studentID, enrollmentID uuid.UUID) (Stats, error) {
	total, err := s.countSessions(ctx, enrollmentID)
	if err != nil {
		return Stats{}, helper.Internal("count sessions", err)
	}
	rows, err := s.statusCounts(ctx, enrollmentID, &studentID)
	if err != nil {
		return Stats{}, helper.Internal("count records", err)
	}

	c := Counts{TotalSessions: total}
	for _, r := range rows {
		applyCount(&c, r.Status, r.N)
	}
	return Calculate(c), nil
}

/* ==========================
   Read path: dashboard
========================== */

type StudentStats struct {
	StudentID  uuid.UUID `json:"studentId"`
	UserID     uuid.UUID `json:"userId"`
	FullName   string    `json:"fullName"`
	RollNumber string    `json:"rollNumber"`
	Stats      Stats     `json:"stats"`
}

type EnrollmentSummary struct {
	EnrollmentID  uuid.UUID      `json:"enrollmentId"`
	SubjectCode   string         `json:"subjectCode"`
	SubjectName   string         `json:"subjectName"`
	BatchCode     string         `json:"batchCode"`
	TotalSessions int64          `json:"totalSessions"`
	Students      []StudentStats `json:"students"`
	GoodCount     int            `json:"goodCount"`
	WarningCount  int            `json:"warningCount"`
	CriticalCount int            `json:"criticalCount"`
}

// EnrollmentSummary: statistik semua siswa batch untuk satu enrollment milik guru.
func (s *StatsService) EnrollmentSummary(ctx context.Context, teacherID, enrollmentID uuid.UUID) (*EnrollmentSummary, error) {
	var enr enrollmentModel.SubjectEnrollmentModel
	if err := s.DB.WithContext(ctx).
		Preload("Subject").Preload("Batch").
		First(&enr, "subject_enrollment_id = ?", enrollmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, helper.NotFound("Enrollment tidak ditemukan")
		}
		return nil, helper.Internal("load enrollment", err)
	}
	if enr.SubjectEnrollmentTeacherID != teacherID {
		return nil, helper.Forbidden("Anda bukan pengajar enrollment ini")
	}

	var students []userModel.StudentModel
	if err := s.DB.WithContext(ctx).
		Preload("User").
		Where("student_batch_id = ?", enr.SubjectEnrollmentBatchID).
		Order("student_roll_number ASC").
		Find(&students).Error; err != nil {
		return nil, helper.Internal("load students", err)
	}

	total, err := s.countSessions(ctx, enrollmentID)
	if err != nil {
		return nil, helper.Internal("count sessions", err)
	}
	rows, err := s.statusCounts(ctx, enrollmentID, nil)
	if err != nil {
		return nil, helper.Internal("count records", err)
	}

	byStudent := make(map[uuid.UUID]*Counts, len(students))
	for _, r := range rows {
		c, ok := byStudent[r.StudentID]
		if !ok {
			c = &Counts{}
			byStudent[r.StudentID] = c
		}
		applyCount(c, r.Status, r.N)
	}

	out := &EnrollmentSummary{
		EnrollmentID:  enr.SubjectEnrollmentID,
		SubjectCode:   enr.SubjectCode(),
		SubjectName:   enr.SubjectName(),
		BatchCode:     enr.BatchCode(),
		TotalSessions: total,
		Students:      make([]StudentStats, 0, len(students)),
	}
	for _, st := range students {
		c := Counts{TotalSessions: total}
		if got, ok := byStudent[st.StudentID]; ok {
			c.Present, c.Absent, c.Late, c.Excused = got.Present, got.Absent, got.Late, got.Excused
		}
		stats := Calculate(c)
		switch stats.Status {
		case StandingGood:
			out.GoodCount++
		case StandingWarning:
			out.WarningCount++
		case StandingCritical:
			out.CriticalCount++
		}
		item := StudentStats{
			StudentID:  st.StudentID,
			UserID:     st.StudentUserID,
			RollNumber: st.StudentRollNumber,
			Stats:      stats,
		}
		if st.User != nil {
			item.FullName = st.User.FullName
		}
		out.Students = append(out.Students, item)
	}
	return out, nil
}

type SubjectStats struct {
	EnrollmentID uuid.UUID `json:"enrollmentId"`
	SubjectCode  string    `json:"subjectCode"`
	SubjectName  string    `json:"subjectName"`
	TeacherName  string    `json:"teacherName"`
	Semester     string    `json:"semester"`
	Stats        Stats     `json:"stats"`
}

type StudentSummary struct {
	StudentID uuid.UUID      `json:"studentId"`
	Subjects  []SubjectStats `json:"subjects"`
	Overall   Stats          `json:"overall"`
}

// StudentSummary: statistik siswa untuk semua enrollment ACTIVE di batch-nya.
func (s *StatsService) StudentSummary(ctx context.Context, studentID uuid.UUID) (*StudentSummary, error) {
	st, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := &StudentSummary{StudentID: studentID, Subjects: []SubjectStats{}}
	if st.StudentBatchID == nil {
		out.Overall = Calculate(Counts{})
		return out, nil
	}

	var enrollments []enrollmentModel.SubjectEnrollmentModel
	if err := s.DB.WithContext(ctx).
		Preload("Subject").Preload("Teacher.User").
		Where("subject_enrollment_batch_id = ? AND subject_enrollment_status = ?", *st.StudentBatchID, enrollmentModel.EnrollmentActive).
		Find(&enrollments).Error; err != nil {
		return nil, helper.Internal("load enrollments", err)
	}

	var overall Counts
	for i := range enrollments {
		e := &enrollments[i]
		stats, err := s.ComputeStats(ctx, studentID, e.SubjectEnrollmentID)
		if err != nil {
			return nil, err
		}
		overall.TotalSessions += stats.TotalSessions
		overall.Present += stats.Present
		overall.Absent += stats.Absent
		overall.Late += stats.Late
		overall.Excused += stats.Excused

		out.Subjects = append(out.Subjects, SubjectStats{
			EnrollmentID: e.SubjectEnrollmentID,
			SubjectCode:  e.SubjectCode(),
			SubjectName:  e.SubjectName(),
			TeacherName:  e.TeacherName(),
			Semester:     e.SubjectEnrollmentSemester,
			Stats:        stats,
		})
	}
	out.Overall = Calculate(overall)
	return out, nil
}

// StudentEnrollmentStats: satu enrollment; siswa harus berada di batch enrollment tsb.
func (s *StatsService) StudentEnrollmentStats(ctx context.Context, studentID, enrollmentID uuid.UUID) (*SubjectStats, error) {
	st, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	var enr enrollmentModel.SubjectEnrollmentModel
	if err := s.DB.WithContext(ctx).
		Preload("Subject").Preload("Teacher.User").
		First(&enr, "subject_enrollment_id = ?", enrollmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, helper.NotFound("Enrollment tidak ditemukan")
		}
		return nil, helper.Internal("load enrollment", err)
	}
	if st.StudentBatchID == nil || *st.StudentBatchID != enr.SubjectEnrollmentBatchID {
		return nil, helper.Forbidden("Enrollment bukan untuk batch Anda")
	}

	stats, err := s.ComputeStats(ctx, studentID, enrollmentID)
	if err != nil {
		return nil, err
	}
	return &SubjectStats{
		EnrollmentID: enr.SubjectEnrollmentID,
		SubjectCode:  enr.SubjectCode(),
		SubjectName:  enr.SubjectName(),
		TeacherName:  enr.TeacherName(),
		Semester:     enr.SubjectEnrollmentSemester,
		Stats:        stats,
	}, nil
}

func (s *StatsService) loadStudent(ctx context.Context, studentID uuid.UUID) (*userModel.StudentModel, error) {
	var st userModel.StudentModel
	if err := s.DB.WithContext(ctx).First(&st, "student_id = ?", studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, helper.NotFound("Siswa tidak ditemukan")
		}
		return nil, helper.Internal("load student", err)
	}
	return &st, nil
}
