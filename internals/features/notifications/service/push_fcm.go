package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	notifModel "attendance_backend/internals/features/notifications/model"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type FCMConfig struct {
	Endpoint   string
	ServerKey  string
	RatePerSec float64
	Timeout    time.Duration
}

// FCMPusher: satu request per device token, dibungkus rate limiter + circuit breaker.
type FCMPusher struct {
	DB      *gorm.DB
	cfg     FCMConfig
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*fcmResponse]
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

func (r *fcmResponse) tokenError() string {
	for _, x := range r.Results {
		if x.Error != "" {
			return x.Error
		}
	}
	return ""
}

func NewFCMPusher(db *gorm.DB, cfg FCMConfig) *FCMPusher {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	burst := int(cfg.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	p := &FCMPusher{
		DB:      db,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst),
	}
	p.cb = gobreaker.NewCircuitBreaker[*fcmResponse](gobreaker.Settings{
		Name:        "fcm-push",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= 10 && float64(c.TotalFailures)/float64(c.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[PUSH] circuit %s: %s → %s", name, from, to)
		},
	})
	return p
}

func (p *FCMPusher) configured() bool {
	return strings.TrimSpace(p.cfg.Endpoint) != "" && strings.TrimSpace(p.cfg.ServerKey) != ""
}

func (p *FCMPusher) SendPush(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) Result {
	if !p.configured() {
		return Result{Err: ErrPushNotConfigured}
	}

	var tokens []notifModel.DeviceTokenModel
	if err := p.DB.WithContext(ctx).
		Where("device_token_user_id = ? AND device_token_is_valid = ?", userID, true).
		Find(&tokens).Error; err != nil {
		return Result{Err: fmt.Errorf("load device tokens: %w", err)}
	}

	var res Result
	for i := range tokens {
		tok := &tokens[i]
		if err := p.limiter.Wait(ctx); err != nil {
			res.Failed += len(tokens) - i
			res.Err = err
			break
		}

		resp, err := p.cb.Execute(func() (*fcmResponse, error) {
			return p.post(ctx, fcmMessage{
				To:           tok.DeviceTokenToken,
				Notification: fcmNotification{Title: title, Body: body},
				Data:         data,
			})
		})
		if err != nil {
			res.Failed++
			res.Err = err
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				// circuit terbuka: sisa token dianggap gagal tanpa request
				res.Failed += len(tokens) - i - 1
				break
			}
			continue
		}

		if tokenErr := resp.tokenError(); tokenErr != "" || resp.Success == 0 {
			res.Failed++
			res.Err = fmt.Errorf("fcm: %s", tokenErr)
			if isStaleToken(tokenErr) {
				p.markInvalid(ctx, tok, tokenErr)
			}
			continue
		}
		res.Sent++
	}
	return res
}

func (p *FCMPusher) post(ctx context.Context, msg fcmMessage) (*fcmResponse, error) {
	raw, err := sonic.Marshal(msg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+p.cfg.ServerKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fcm status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out fcmResponse
	if err := sonic.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("fcm decode: %w", err)
	}
	return &out, nil
}

func isStaleToken(code string) bool {
	switch code {
	case "NotRegistered", "InvalidRegistration", "MismatchSenderId":
		return true
	}
	return false
}

func (p *FCMPusher) markInvalid(ctx context.Context, tok *notifModel.DeviceTokenModel, reason string) {
	now := time.Now().UTC()
	err := p.DB.WithContext(ctx).
		Model(&notifModel.DeviceTokenModel{}).
		Where("device_token_id = ?", tok.DeviceTokenID).
		Updates(map[string]any{
			"device_token_is_valid":   false,
			"device_token_last_error": reason,
			"device_token_failed_at":  now,
		}).Error
	if err != nil {
		log.Printf("[PUSH] tandai token invalid gagal id=%s: %v", tok.DeviceTokenID, err)
	}
}
