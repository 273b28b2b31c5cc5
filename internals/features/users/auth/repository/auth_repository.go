// internals/features/users/auth/repository/auth_repository.go
package repository

import (
	userModel "attendance_backend/internals/features/users/user/model"

	"gorm.io/gorm"
)

func FindUserByEmailOrUsernameLight(db *gorm.DB, identifier string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.Select("id", "password", "role", "is_active").
		Where("email = ? OR user_name = ?", identifier, identifier).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
