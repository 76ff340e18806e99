package controller

import (
	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/pkg/serverutils"
	"swift-ai-market/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDiscoveryController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	RecordActivity(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
}

type discoveryController struct {
	service service.IDiscoveryService
}

func NewDiscoveryController(service service.IDiscoveryService) IDiscoveryController {
	return &discoveryController{service: service}
}

func (c *discoveryController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat/v1", c.Chat)
	r.Post("/search/v1", c.Search)

	s := r.Group("/sessions/v1")
	s.Post(":id/activity", c.RecordActivity)
	s.Post(":id/close", c.CloseSession)
}

func (c *discoveryController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}

func (c *discoveryController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search", res))
}

func (c *discoveryController) RecordActivity(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	if err := c.service.RecordActivity(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success record activity", nil))
}

func (c *discoveryController) CloseSession(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.service.CloseSession(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success close session", res))
}
