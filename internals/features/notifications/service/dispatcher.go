package service

import (
	"context"
	"log"
	"time"

	notifModel "attendance_backend/internals/features/notifications/model"
	"attendance_backend/internals/metrics"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dispatcher: pengiriman best-effort. Setiap percobaan dicatat di notification_logs
// dan metrics; error tidak pernah dilempar ke pemanggil, hanya dikembalikan di Result.
type Dispatcher struct {
	DB     *gorm.DB
	Pusher PushSender
	Mailer EmailSender
	// batas waktu per panggilan sender
	CallTimeout time.Duration
}

func NewDispatcher(db *gorm.DB, push PushSender, email EmailSender, callTimeout time.Duration) *Dispatcher {
	if callTimeout <= 0 {
		callTimeout = 3 * time.Second
	}
	return &Dispatcher{DB: db, Pusher: push, Mailer: email, CallTimeout: callTimeout}
}

func (d *Dispatcher) Push(ctx context.Context, userID uuid.UUID, eventType, title, body string, data map[string]string) Result {
	if d.Pusher == nil {
		return Result{Err: ErrPushNotConfigured}
	}
	cctx, cancel := context.WithTimeout(ctx, d.CallTimeout)
	res := d.Pusher.SendPush(cctx, userID, title, body, data)
	cancel()

	metrics.RecordNotification(string(notifModel.ChannelPush), true, res.Sent)
	metrics.RecordNotification(string(notifModel.ChannelPush), false, res.Failed)
	d.record(ctx, notifModel.ChannelPush, &userID, userID.String(), eventType, res, map[string]any{
		"title": title, "body": body, "data": data,
	})
	return res
}

func (d *Dispatcher) Email(ctx context.Context, userID uuid.UUID, to, eventType, subject, html string) Result {
	if d.Mailer == nil {
		return Result{Err: ErrEmailNotConfigured}
	}
	cctx, cancel := context.WithTimeout(ctx, d.CallTimeout)
	res := d.Mailer.SendEmail(cctx, to, subject, html)
	cancel()

	metrics.RecordNotification(string(notifModel.ChannelEmail), true, res.Sent)
	metrics.RecordNotification(string(notifModel.ChannelEmail), false, res.Failed)
	d.record(ctx, notifModel.ChannelEmail, &userID, to, eventType, res, map[string]any{
		"subject": subject,
	})
	return res
}

func (d *Dispatcher) record(ctx context.Context, ch notifModel.Channel, userID *uuid.UUID, target, eventType string, res Result, payload map[string]any) {
	if res.Err != nil {
		log.Printf("[NOTIFY] %s %s target=%s sent=%d failed=%d err=%v", ch, eventType, target, res.Sent, res.Failed, res.Err)
	}
	if d.DB == nil {
		return
	}

	row := notifModel.NotificationLogModel{
		NotificationLogChannel:   ch,
		NotificationLogUserID:    userID,
		NotificationLogTarget:    target,
		NotificationLogEventType: eventType,
		NotificationLogSent:      res.Sent,
		NotificationLogFailed:    res.Failed,
	}
	if res.Err != nil {
		msg := res.Err.Error()
		row.NotificationLogError = &msg
	}
	if b, err := sonic.Marshal(payload); err == nil {
		row.NotificationLogPayload = datatypes.JSON(b)
	}

	// context terpisah: log tetap tercatat walau ctx request sudah selesai
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := d.DB.WithContext(lctx).Create(&row).Error; err != nil {
		log.Printf("[NOTIFY] simpan notification_log gagal: %v", err)
	}
}
