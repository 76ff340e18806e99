package controller

import (
	"strconv"

	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/pkg/serverutils"
	"swift-ai-market/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IProductController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Categories(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type productController struct {
	service service.IProductService
	admin   fiber.Handler
}

// NewProductController takes the middleware that guards catalog writes.
func NewProductController(service service.IProductService, admin fiber.Handler) IProductController {
	return &productController{service: service, admin: admin}
}

func (c *productController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/products/v1")
	h.Get("", c.List)
	h.Get("categories", c.Categories)
	h.Get(":id", c.Show)
	h.Post("", c.admin, c.Create)
	h.Delete(":id", c.admin, c.Delete)
}

func (c *productController) List(ctx *fiber.Ctx) error {
	var req dto.ListProductsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all product", res))
}

func (c *productController) Show(ctx *fiber.Ctx) error {
	id, err := productId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show product", res))
}

func (c *productController) Categories(ctx *fiber.Ctx) error {
	res, err := c.service.Categories(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get categories", res))
}

func (c *productController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create product", res))
}

func (c *productController) Delete(ctx *fiber.Ctx) error {
	id, err := productId(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete product", nil))
}

func productId(ctx *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
	}
	return id, nil
}
