package routes

import (
	"os"
	"time"

	databases "attendance_backend/internals/databases"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func BaseRoutes(app *fiber.App, realtimeClients func() int) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Attendance backend jalan 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if err := databases.Ping(); err != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		body := fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    os.Getenv("RAILWAY_ENVIRONMENT"),
		}
		if realtimeClients != nil {
			body["realtime_clients"] = realtimeClients()
		}
		return c.Status(httpStatus).JSON(body)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
