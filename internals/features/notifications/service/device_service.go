package service

import (
	"context"
	"strings"
	"time"

	notifModel "attendance_backend/internals/features/notifications/model"
	helper "attendance_backend/internals/helpers"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceService struct {
	DB *gorm.DB
}

func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{DB: db}
}

// Register: token unik global; token yang pindah device/akun diambil alih user terbaru
// dan dianggap valid lagi.
func (s *DeviceService) Register(ctx context.Context, userID uuid.UUID, token, platform string) (*notifModel.DeviceTokenModel, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, helper.BadRequest("token wajib diisi")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		platform = "android"
	}

	row := notifModel.DeviceTokenModel{
		DeviceTokenUserID:   userID,
		DeviceTokenToken:    token,
		DeviceTokenPlatform: platform,
		DeviceTokenIsValid:  true,
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "device_token_token"}},
		DoUpdates: clause.Assignments(map[string]any{
			"device_token_user_id":    userID,
			"device_token_platform":   platform,
			"device_token_is_valid":   true,
			"device_token_last_error": nil,
			"device_token_failed_at":  nil,
			"device_token_updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, helper.Internal("register device token", err)
	}

	var saved notifModel.DeviceTokenModel
	if err := s.DB.WithContext(ctx).First(&saved, "device_token_token = ?", token).Error; err != nil {
		return nil, helper.Internal("reload device token", err)
	}
	return &saved, nil
}

func (s *DeviceService) Unregister(ctx context.Context, userID uuid.UUID, token string) error {
	res := s.DB.WithContext(ctx).
		Where("device_token_user_id = ? AND device_token_token = ?", userID, strings.TrimSpace(token)).
		Delete(&notifModel.DeviceTokenModel{})
	if res.Error != nil {
		return helper.Internal("delete device token", res.Error)
	}
	if res.RowsAffected == 0 {
		return helper.NotFound("Token tidak ditemukan")
	}
	return nil
}

// CleanupInvalid menghapus token invalid yang gagal sebelum olderThan.
func (s *DeviceService) CleanupInvalid(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("device_token_is_valid = ? AND device_token_failed_at < ?", false, olderThan).
		Delete(&notifModel.DeviceTokenModel{})
	return res.RowsAffected, res.Error
}
