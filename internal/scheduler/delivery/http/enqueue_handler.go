package http

import (
	"net/http"

	"github.com/squammynoodles/influenza/internal/scheduler/dto"
	"github.com/squammynoodles/influenza/internal/scheduler/service"
	"github.com/squammynoodles/influenza/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EnqueueHandler handles HTTP requests for ad-hoc task publishing.
type EnqueueHandler struct {
	enqueueService service.EnqueueService
	logger         *logger.Logger
}

// NewEnqueueHandler creates a new EnqueueHandler.
func NewEnqueueHandler(enqueueService service.EnqueueService, logger *logger.Logger) *EnqueueHandler {
	return &EnqueueHandler{enqueueService: enqueueService, logger: logger}
}

// RegisterRoutes registers the enqueue routes to the Echo group.
func (h *EnqueueHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/extraction", h.EnqueueExtraction)
	g.POST("/account-sync", h.EnqueueAccountSync)
	g.POST("/price-fetch", h.EnqueuePriceFetch)
}

// EnqueueExtraction publishes a call extraction task for one content row.
func (h *EnqueueHandler) EnqueueExtraction(c echo.Context) error {
	var req dto.EnqueueExtractionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	resp, err := h.enqueueService.EnqueueExtraction(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusAccepted, resp)
}

// EnqueueAccountSync publishes a sync task for one tracked account.
func (h *EnqueueHandler) EnqueueAccountSync(c echo.Context) error {
	var req dto.EnqueueAccountSyncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	resp, err := h.enqueueService.EnqueueAccountSync(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusAccepted, resp)
}

// EnqueuePriceFetch publishes a price fetch task for one asset.
func (h *EnqueueHandler) EnqueuePriceFetch(c echo.Context) error {
	var req dto.EnqueuePriceFetchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	resp, err := h.enqueueService.EnqueuePriceFetch(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusAccepted, resp)
}
