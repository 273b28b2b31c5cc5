package dto

import (
	"time"

	notifModel "attendance_backend/internals/features/notifications/model"

	"github.com/google/uuid"
)

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required,min=8,max=4096"`
	Platform string `json:"platform" validate:"omitempty,oneof=android ios web"`
}

type DeviceResponse struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	IsValid   bool      `json:"is_valid"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromDevice(m *notifModel.DeviceTokenModel) DeviceResponse {
	return DeviceResponse{
		ID:        m.DeviceTokenID,
		Token:     m.DeviceTokenToken,
		Platform:  m.DeviceTokenPlatform,
		IsValid:   m.DeviceTokenIsValid,
		UpdatedAt: m.DeviceTokenUpdatedAt,
	}
}
