// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	recordController "attendance_backend/internals/features/attendance/records/controller"
	recordRoute "attendance_backend/internals/features/attendance/records/route"
	recordService "attendance_backend/internals/features/attendance/records/service"
	sessionController "attendance_backend/internals/features/attendance/sessions/controller"
	sessionRoute "attendance_backend/internals/features/attendance/sessions/route"
	sessionService "attendance_backend/internals/features/attendance/sessions/service"
	statsController "attendance_backend/internals/features/attendance/stats/controller"
	statsRoute "attendance_backend/internals/features/attendance/stats/route"
	statsService "attendance_backend/internals/features/attendance/stats/service"
	notifController "attendance_backend/internals/features/notifications/controller"
	notifRoute "attendance_backend/internals/features/notifications/route"
	notifService "attendance_backend/internals/features/notifications/service"
	authController "attendance_backend/internals/features/users/auth/controller"
	authRoute "attendance_backend/internals/features/users/auth/route"
	userModel "attendance_backend/internals/features/users/user/model"
	userRoute "attendance_backend/internals/features/users/user/route"
	middlewares "attendance_backend/internals/middlewares"
	authMiddleware "attendance_backend/internals/middlewares/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var startTime time.Time

// Deps: service yang sudah dirakit di main (hub, fan-out, sender ikut di dalamnya).
type Deps struct {
	DB        *gorm.DB
	JWTSecret string
	TokenTTL  time.Duration

	Sessions *sessionService.SessionService
	Records  *recordService.RecordService
	Stats    *statsService.StatsService
	Devices  *notifService.DeviceService

	MarkRateLimit   int
	RealtimeClients func() int
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()
	v := validator.New()

	BaseRoutes(app, d.RealtimeClients)

	api := app.Group("/api")

	// ===================== AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	authRoute.AuthRoutes(api, authController.NewAuthController(d.DB, d.JWTSecret, d.TokenTTL), middlewares.LoginRateLimiter())

	authJWT := authMiddleware.AuthJWT(d.DB, d.JWTSecret)

	// ===================== USER (semua role) =====================
	log.Println("[INFO] Setting up USER group...")
	user := api.Group("/u", authJWT)
	userRoute.UserRoutes(user, d.DB)
	notifRoute.DeviceUserRoutes(user, notifController.NewDeviceController(d.Devices, v))

	// ===================== TEACHER =====================
	log.Println("[INFO] Setting up TEACHER group...")
	teacher := api.Group("/t", authJWT, authMiddleware.RequireRole(userModel.RoleTeacher))
	sessionRoute.SessionTeacherRoutes(teacher, sessionController.NewSessionController(d.Sessions, v))
	recordRoute.RecordTeacherRoutes(teacher, recordController.NewRecordController(d.Records, v), middlewares.MarkRateLimiter(d.MarkRateLimit))

	stats := statsController.NewStatsController(d.Stats)
	statsRoute.StatsTeacherRoutes(teacher, stats)

	// ===================== STUDENT =====================
	log.Println("[INFO] Setting up STUDENT group...")
	student := api.Group("/s", authJWT, authMiddleware.RequireRole(userModel.RoleStudent))
	statsRoute.StatsStudentRoutes(student, stats)
}
