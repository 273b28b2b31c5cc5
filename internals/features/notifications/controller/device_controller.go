package controller

import (
	"net/url"

	"attendance_backend/internals/features/notifications/dto"
	"attendance_backend/internals/features/notifications/service"
	helper "attendance_backend/internals/helpers"
	helperAuth "attendance_backend/internals/helpers/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type DeviceController struct {
	Service  *service.DeviceService
	Validate *validator.Validate
}

func NewDeviceController(svc *service.DeviceService, v *validator.Validate) *DeviceController {
	if v == nil {
		v = validator.New()
	}
	return &DeviceController{Service: svc, Validate: v}
}

// POST /api/u/devices
func (ctl *DeviceController) Register(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.RegisterDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	row, err := ctl.Service.Register(c.UserContext(), userID, req.Token, req.Platform)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Device terdaftar", dto.FromDevice(row))
}

// DELETE /api/u/devices/:token
func (ctl *DeviceController) Unregister(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	token, err := url.PathUnescape(c.Params("token"))
	if err != nil || token == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "token tidak valid")
	}
	if err := ctl.Service.Unregister(c.UserContext(), userID, token); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "Device dihapus", fiber.Map{"token": token})
}
