package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/barcodelens/backend/internal/domain"
)

const (
	serviceName    = "barcodelens-backend"
	serviceVersion = "1.0.0"
)

// BarcodeService is the usecase surface the handlers depend on
type BarcodeService interface {
	Resolve(ctx context.Context, barcode string) *domain.Resolution
	AddToCache(ctx context.Context, request *domain.AddProductRequest) *domain.CacheResult
	ClearCache(ctx context.Context) *domain.CacheResult
	CacheName() string
	ProviderNames() []string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service BarcodeService
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler.
// A nil service makes the barcode endpoints answer 501.
func NewHandler(service BarcodeService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.With("component", "http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	cacheName := "none"
	providers := []string{}
	if h.service != nil {
		cacheName = h.service.CacheName()
		providers = h.service.ProviderNames()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"cache":     cacheName,
		"providers": providers,
	})
}

// ResolveBarcode handles GET /api/v1/barcodes/:barcode
func (h *Handler) ResolveBarcode(c *gin.Context) {
	if h.service == nil {
		h.notConfigured(c)
		return
	}

	res := h.service.Resolve(c.Request.Context(), c.Param("barcode"))
	c.JSON(resolutionStatus(res), res)
}

// AddToCache handles POST /api/v1/cache/products
func (h *Handler) AddToCache(c *gin.Context) {
	if h.service == nil {
		h.notConfigured(c)
		return
	}

	var request domain.AddProductRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Info("Rejected cache add payload", "error", err)
		c.JSON(http.StatusBadRequest, domain.CacheResult{
			Result: domain.ResultFailed,
			Error:  domain.ErrInvalidRequest.Error() + ": " + err.Error(),
		})
		return
	}

	res := h.service.AddToCache(c.Request.Context(), &request)
	c.JSON(cacheAddStatus(res), res)
}

// ClearCache handles DELETE /api/v1/cache/products
func (h *Handler) ClearCache(c *gin.Context) {
	if h.service == nil {
		h.notConfigured(c)
		return
	}

	res := h.service.ClearCache(c.Request.Context())
	status := http.StatusOK
	if res.Result != domain.ResultSuccess {
		status = http.StatusInternalServerError
	}
	c.JSON(status, res)
}

func (h *Handler) notConfigured(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "barcode service not configured",
	})
}

func resolutionStatus(res *domain.Resolution) int {
	switch res.Result {
	case domain.ResultSuccess:
		return http.StatusOK
	case domain.ResultUnknown:
		return http.StatusNotFound
	}

	switch {
	case errors.Is(res.Cause, domain.ErrInvalidBarcode):
		return http.StatusBadRequest
	case errors.Is(res.Cause, domain.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func cacheAddStatus(res *domain.CacheResult) int {
	switch {
	case res.Result == domain.ResultSuccess:
		return http.StatusCreated
	case errors.Is(res.Cause, domain.ErrInvalidBarcode), errors.Is(res.Cause, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
