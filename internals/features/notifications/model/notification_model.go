package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// DeviceTokenModel: token FCM per device user.
type DeviceTokenModel struct {
	DeviceTokenID        uuid.UUID  `gorm:"type:uuid;primaryKey;column:device_token_id" json:"device_token_id"`
	DeviceTokenUserID    uuid.UUID  `gorm:"type:uuid;not null;index;column:device_token_user_id" json:"device_token_user_id"`
	DeviceTokenToken     string     `gorm:"type:text;not null;uniqueIndex;column:device_token_token" json:"device_token_token"`
	DeviceTokenPlatform  string     `gorm:"type:varchar(16);not null;default:'android';column:device_token_platform" json:"device_token_platform"`
	DeviceTokenIsValid   bool       `gorm:"not null;default:true;column:device_token_is_valid" json:"device_token_is_valid"`
	DeviceTokenLastError *string    `gorm:"type:text;column:device_token_last_error" json:"device_token_last_error,omitempty"`
	DeviceTokenFailedAt  *time.Time `gorm:"column:device_token_failed_at" json:"device_token_failed_at,omitempty"`
	DeviceTokenCreatedAt time.Time  `gorm:"autoCreateTime;column:device_token_created_at" json:"device_token_created_at"`
	DeviceTokenUpdatedAt time.Time  `gorm:"autoUpdateTime;column:device_token_updated_at" json:"device_token_updated_at"`
}

func (DeviceTokenModel) TableName() string { return "device_tokens" }

func (m *DeviceTokenModel) BeforeCreate(tx *gorm.DB) error {
	if m.DeviceTokenID == uuid.Nil {
		m.DeviceTokenID = uuid.New()
	}
	return nil
}

// NotificationLogModel: jejak setiap percobaan kirim push/email (best-effort).
type NotificationLogModel struct {
	NotificationLogID        uuid.UUID      `gorm:"type:uuid;primaryKey;column:notification_log_id" json:"notification_log_id"`
	NotificationLogChannel   Channel        `gorm:"type:varchar(16);not null;index;column:notification_log_channel" json:"notification_log_channel"`
	NotificationLogUserID    *uuid.UUID     `gorm:"type:uuid;index;column:notification_log_user_id" json:"notification_log_user_id,omitempty"`
	NotificationLogTarget    string         `gorm:"type:text;not null;default:'';column:notification_log_target" json:"notification_log_target"`
	NotificationLogEventType string         `gorm:"type:varchar(40);not null;column:notification_log_event_type" json:"notification_log_event_type"`
	NotificationLogSent      int            `gorm:"not null;default:0;column:notification_log_sent" json:"notification_log_sent"`
	NotificationLogFailed    int            `gorm:"not null;default:0;column:notification_log_failed" json:"notification_log_failed"`
	NotificationLogError     *string        `gorm:"type:text;column:notification_log_error" json:"notification_log_error,omitempty"`
	NotificationLogPayload   datatypes.JSON `gorm:"column:notification_log_payload" json:"notification_log_payload"`
	NotificationLogCreatedAt time.Time      `gorm:"autoCreateTime;column:notification_log_created_at" json:"notification_log_created_at"`
}

func (NotificationLogModel) TableName() string { return "notification_logs" }

func (m *NotificationLogModel) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationLogID == uuid.Nil {
		m.NotificationLogID = uuid.New()
	}
	return nil
}
