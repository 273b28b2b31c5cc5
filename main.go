package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"

	"attendance_backend/internals/configs"
	database "attendance_backend/internals/databases"
	"attendance_backend/internals/features/attendance/fanout"
	helper "attendance_backend/internals/helpers"
	recordService "attendance_backend/internals/features/attendance/records/service"
	sessionService "attendance_backend/internals/features/attendance/sessions/service"
	statsService "attendance_backend/internals/features/attendance/stats/service"
	notifScheduler "attendance_backend/internals/features/notifications/scheduler"
	notifService "attendance_backend/internals/features/notifications/service"
	authService "attendance_backend/internals/features/users/auth/service"
	"attendance_backend/internals/metrics"
	middlewares "attendance_backend/internals/middlewares"
	"attendance_backend/internals/middlewares/logger"
	"attendance_backend/internals/realtime"
	routes "attendance_backend/internals/route"
	"attendance_backend/internals/seeds"
)

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// 🔎 Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("requestid", id)
		start := time.Now()
		// HTTP timeout guard (selaras dengan statement_timeout di DB).
		// Bukan dari c.Context(): RequestCtx fasthttp di-pool dan dipakai ulang setelah handler selesai.
		ctx, cancel := context.WithTimeout(helper.WithRequestID(context.Background(), id), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	})

	allowedOrigins := splitCSV(configs.GetEnv("CORS_ALLOWED_ORIGINS"))
	app.Use(metrics.Middleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(middlewares.RecoveryMiddleware())
	app.Use(middlewares.CorsMiddleware(allowedOrigins))
	app.Use(middlewares.GlobalRateLimiter(configs.GetEnvInt("RATE_LIMIT_GLOBAL", 300)))

	// 🔌 DB connect + pool + migrate + warm-up
	database.ConnectDB()
	database.TunePool()
	if configs.GetEnvBool("DB_AUTO_MIGRATE", true) {
		if err := database.AutoMigrate(database.DB); err != nil {
			log.Fatalf("❌ AutoMigrate gagal: %v", err)
		}
	}
	database.WarmUpQueries()

	if configs.GetEnvBool("RUN_SEEDS", false) {
		seeds.RunAllSeeds(database.DB)
	}

	// 📡 realtime hub + websocket listener terpisah
	hub := realtime.NewHub()
	hub.OnClientCount = func(n int) { metrics.RealtimeClients.Set(float64(n)) }
	wsServer := realtime.NewHTTPServer(
		":"+configs.GetEnv("REALTIME_PORT", "3001"),
		realtime.NewServer(hub, realtime.NewDBAccess(database.DB, configs.JWTSecret), allowedOrigins),
	)

	// 🔔 notifikasi keluar
	callTimeout := configs.GetEnvDuration("NOTIFY_CALL_TIMEOUT", 5*time.Second)
	pusher := notifService.NewFCMPusher(database.DB, notifService.FCMConfig{
		Endpoint:   configs.GetEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
		ServerKey:  configs.GetEnv("FCM_SERVER_KEY"),
		RatePerSec: float64(configs.GetEnvInt("FCM_RATE_PER_SEC", 20)),
		Timeout:    callTimeout,
	})
	mailer := notifService.NewSMTPMailer(notifService.SMTPConfig{
		Host:     configs.GetEnv("SMTP_HOST"),
		Port:     configs.GetEnvInt("SMTP_PORT", 587),
		Username: configs.GetEnv("SMTP_USERNAME"),
		Password: configs.GetEnv("SMTP_PASSWORD"),
		From:     configs.GetEnv("SMTP_FROM"),
		FromName: configs.GetEnv("SMTP_FROM_NAME"),
		Timeout:  configs.GetEnvDuration("SMTP_TIMEOUT", 10*time.Second),
	})
	dispatcher := notifService.NewDispatcher(database.DB, pusher, mailer, callTimeout)

	// 🧮 service inti
	stats := statsService.NewStatsService(database.DB)
	fan := fanout.New(database.DB, stats, hub, dispatcher, callTimeout, configs.GetEnvBool("NOTIFY_ASYNC", true))
	sessions := sessionService.NewSessionService(database.DB, hub, callTimeout)
	records := recordService.NewRecordService(database.DB, fan)
	devices := notifService.NewDeviceService(database.DB)

	// ⏱ scheduler setelah DB siap
	cleanup, err := notifScheduler.StartDeviceTokenCleanup(devices, notifScheduler.CleanupConfig{
		CronSchedule: configs.GetEnv("DEVICE_TOKEN_CLEANUP_CRON", "@daily"),
		TTLDays:      configs.GetEnvInt("DEVICE_TOKEN_TTL_DAYS", 30),
	})
	if err != nil {
		log.Fatalf("❌ Jadwal cleanup device token tidak valid: %v", err)
	}

	// ✅ Routes
	routes.SetupRoutes(app, routes.Deps{
		DB:              database.DB,
		JWTSecret:       configs.JWTSecret,
		TokenTTL:        configs.GetEnvDuration("JWT_ACCESS_TTL", authService.AccessTTLDefault),
		Sessions:        sessions,
		Records:         records,
		Stats:           stats,
		Devices:         devices,
		MarkRateLimit:   configs.GetEnvInt("RATE_LIMIT_MARK", 60),
		RealtimeClients: hub.ClientCount,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	// Start server non-blocking
	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()
	go func() {
		log.Printf("✅ Realtime listening on %s", wsServer.Addr)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("realtime server error: %v", err)
		}
	}()

	// graceful shutdown: stop terima request, tunggu fan-out, baru tutup hub + pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[SHUTDOWN] menutup server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	_ = wsServer.Shutdown(ctx)
	<-cleanup.Stop().Done()
	fan.Wait()
	hub.Close()
	database.Close()
	log.Println("[SHUTDOWN] selesai")
}
