package controller

import (
	"ai-docchat-be/internal/pkg/serverutils"
	"ai-docchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	IngestAll(ctx *fiber.Ctx) error
	IngestDocument(ctx *fiber.Ctx) error
	GetChunks(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IIngestionService
}

func NewDocumentController(service service.IIngestionService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("/ingest", c.IngestAll)
	h.Post("/:name/ingest", c.IngestDocument)
	h.Get("/:name/chunks", c.GetChunks)
}

func (c *documentController) IngestAll(ctx *fiber.Ctx) error {
	if err := c.service.IngestAll(ctx.Context()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success ingest documents", nil))
}

func (c *documentController) IngestDocument(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing document name")
	}

	if err := c.service.IngestDocument(ctx.Context(), name); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success ingest document", nil))
}

func (c *documentController) GetChunks(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing document name")
	}

	res, err := c.service.ListChunks(ctx.Context(), name)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get document chunks", res))
}
