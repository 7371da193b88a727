package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/gym-api/internal/service"
	"github.com/fitdesk/gym-api/pkg/response"
)

// MetricsHandler exposes Prometheus scrape and summary endpoints.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler creates a new handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Prometheus serves the raw scrape endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.service.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary godoc
// @Summary Runtime metrics summary
// @Description Aggregated request, cache and database counters
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Snapshot(), nil)
}
