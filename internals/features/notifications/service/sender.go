package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPushNotConfigured  = errors.New("push sender belum dikonfigurasi (FCM_ENDPOINT/FCM_SERVER_KEY)")
	ErrEmailNotConfigured = errors.New("email sender belum dikonfigurasi (SMTP_HOST/SMTP_FROM)")
)

// Result: hasil kirim best-effort. Err berisi ringkasan kegagalan terakhir (opsional).
type Result struct {
	Sent   int
	Failed int
	Err    error
}

func (r Result) OK() bool { return r.Failed == 0 && r.Err == nil }

type PushSender interface {
	SendPush(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) Result
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) Result
}
