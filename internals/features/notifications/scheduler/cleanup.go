package scheduler

import (
	"context"
	"log"
	"time"

	"attendance_backend/internals/features/notifications/service"

	"github.com/robfig/cron/v3"
)

type CleanupConfig struct {
	CronSchedule string
	TTLDays      int
}

// StartDeviceTokenCleanup: hapus token push invalid yang sudah lewat TTL.
// Kembalikan *cron.Cron supaya main bisa Stop() saat shutdown.
func StartDeviceTokenCleanup(devices *service.DeviceService, cfg CleanupConfig) (*cron.Cron, error) {
	if cfg.CronSchedule == "" {
		cfg.CronSchedule = "@daily"
	}
	if cfg.TTLDays <= 0 {
		cfg.TTLDays = 30
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(cfg.CronSchedule, func() {
		RunDeviceTokenCleanup(devices, cfg.TTLDays)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[CLEANUP] device token cleanup schedule=%q ttl=%dd", cfg.CronSchedule, cfg.TTLDays)
	c.Start()
	return c, nil
}

func RunDeviceTokenCleanup(devices *service.DeviceService, ttlDays int) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleteBefore := time.Now().UTC().Add(-time.Duration(ttlDays) * 24 * time.Hour)
	n, err := devices.CleanupInvalid(ctx, deleteBefore)
	if err != nil {
		log.Printf("[CLEANUP ERROR] hapus device token invalid gagal: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[CLEANUP] %d device token invalid dihapus", n)
	} else {
		log.Println("[CLEANUP] Tidak ada device token yang memenuhi syarat dihapus")
	}
}
