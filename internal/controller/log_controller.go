package controller

import (
	"strconv"

	"vr-scene-sync/internal/pkg/serverutils"
	"vr-scene-sync/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILogController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type logController struct {
	service service.ILogService
	auth    fiber.Handler
}

func NewLogController(service service.ILogService, auth fiber.Handler) ILogController {
	return &logController{service: service, auth: auth}
}

func (c *logController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/logs")
	if c.auth != nil {
		h.Use(c.auth)
	}
	h.Get("", c.GetLogs)
	h.Get(":id", c.GetLogDetail)
}

func (c *logController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "10"))
	level := ctx.Query("level", "")

	logs, err := c.service.GetSystemLogs(ctx.UserContext(), page, limit, level)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *logController) GetLogDetail(ctx *fiber.Ctx) error {
	logId := ctx.Params("id") // MD5 of the raw line

	l, err := c.service.GetLogDetail(ctx.UserContext(), logId)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Log not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", l))
}
