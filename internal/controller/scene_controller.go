package controller

import (
	"errors"

	"vr-scene-sync/internal/pkg/serverutils"
	"vr-scene-sync/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISceneController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
	Interactables(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type sceneController struct {
	service service.ISceneQueryService
	auth    fiber.Handler
}

func NewSceneController(service service.ISceneQueryService, auth fiber.Handler) ISceneController {
	return &sceneController{service: service, auth: auth}
}

func (c *sceneController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/scene/v1")
	if c.auth != nil {
		h.Use(c.auth)
	}
	h.Get("entities", c.GetAll)
	h.Get("entities/:id", c.Show)
	h.Get("session", c.Session)
	h.Get("interactables", c.Interactables)
	h.Get("stats", c.Stats)
}

func (c *sceneController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.ListEntities(ctx.UserContext())
	if err != nil {
		return loopError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all entities", res))
}

func (c *sceneController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.GetEntity(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrEntityNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return loopError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show entity", res))
}

func (c *sceneController) Session(ctx *fiber.Ctx) error {
	res, err := c.service.Session(ctx.UserContext())
	if err != nil {
		return loopError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sceneController) Interactables(ctx *fiber.Ctx) error {
	res, err := c.service.Interactables(ctx.UserContext())
	if err != nil {
		return loopError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get interactables", res))
}

func (c *sceneController) Stats(ctx *fiber.Ctx) error {
	res, err := c.service.Stats(ctx.UserContext())
	if err != nil {
		return loopError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get stats", res))
}

// loopError maps a stopped loop to 503.
func loopError(err error) error {
	return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
}
