package demo

import (
	"testing"

	"attendance_backend/internals/databases/testdb"
	enrollmentModel "attendance_backend/internals/features/academics/enrollments/model"
	userModel "attendance_backend/internals/features/users/user/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedDemo_Idempotent(t *testing.T) {
	db := testdb.Open(t)
	require.NoError(t, SeedDemo(db))
	require.NoError(t, SeedDemo(db))

	var users, students, enrollments int64
	require.NoError(t, db.Model(&userModel.UserModel{}).Count(&users).Error)
	require.NoError(t, db.Model(&userModel.StudentModel{}).Count(&students).Error)
	require.NoError(t, db.Model(&enrollmentModel.SubjectEnrollmentModel{}).Count(&enrollments).Error)
	assert.EqualValues(t, 4, users)
	assert.EqualValues(t, 3, students)
	assert.EqualValues(t, 1, enrollments)

	var u userModel.UserModel
	require.NoError(t, db.First(&u, "email = ?", "andi@kampus.test").Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("siswa12345")))
}
