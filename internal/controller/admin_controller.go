package controller

import (
	"encoding/json"

	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/pkg/serverutils"
	"swift-ai-market/internal/service"
	internalWS "swift-ai-market/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const defaultPopularLimit = 10

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	ActiveSessions(ctx *fiber.Ctx) error
	PopularProducts(ctx *fiber.Ctx) error
	ActiveUsers(ctx *fiber.Ctx) error
	Reap(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type adminController struct {
	service   service.IAdminService
	discovery service.IDiscoveryService
	realtime  service.IRealtimeService
	hub       *internalWS.Hub
	admin     fiber.Handler
	logger    logger.ILogger
}

func NewAdminController(
	service service.IAdminService,
	discovery service.IDiscoveryService,
	realtime service.IRealtimeService,
	hub *internalWS.Hub,
	admin fiber.Handler,
	logger logger.ILogger,
) IAdminController {
	return &adminController{
		service:   service,
		discovery: discovery,
		realtime:  realtime,
		hub:       hub,
		admin:     admin,
		logger:    logger,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(c.admin)
	h.Get("sessions/active", c.ActiveSessions)
	h.Post("sessions/reap", c.Reap)
	h.Get("products/popular", c.PopularProducts)
	h.Get("users/active", c.ActiveUsers)
	h.Get("logs", c.GetLogs)
	h.Get("logs/:id", c.GetLogDetail)
	h.Get("ws", c.ServeWs)
}

func (c *adminController) ActiveSessions(ctx *fiber.Ctx) error {
	res, err := c.service.ActiveSessions(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get active sessions", res))
}

func (c *adminController) PopularProducts(ctx *fiber.Ctx) error {
	var req dto.PopularProductsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = defaultPopularLimit
	}

	res, err := c.discovery.GetPopularProducts(ctx.UserContext(), req.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get popular products", res))
}

func (c *adminController) ActiveUsers(ctx *fiber.Ctx) error {
	res, err := c.service.ActiveUsers(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get active users", res))
}

func (c *adminController) Reap(ctx *fiber.Ctx) error {
	res, err := c.service.Reap(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reap idle sessions", res))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.GetLogs(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get logs", res))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	res, err := c.service.GetLogDetail(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get log detail", res))
}

// ServeWs upgrades to a websocket that receives a snapshot right away and
// then one on every session start or end.
func (c *adminController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	var initial []byte
	snapshot, err := c.realtime.Snapshot(ctx.UserContext(), "connect")
	if err != nil {
		c.logger.Warn("AdminController", "Initial snapshot failed", map[string]interface{}{"error": err.Error()})
	} else {
		initial, _ = json.Marshal(internalWS.Message{Type: service.MetricsSnapshotMessage, Data: snapshot})
	}

	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(c.hub, conn, initial)
	})(ctx)
}
