package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/gym-api/internal/service"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
	"github.com/fitdesk/gym-api/pkg/response"
)

// FinanceHandler exposes the billing endpoints: member standing, payment
// registration and report exports.
type FinanceHandler struct {
	service *service.FinanceService
}

// NewFinanceHandler creates a new handler.
func NewFinanceHandler(svc *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{service: svc}
}

// List godoc
// @Summary List member billing standings
// @Description Returns every active member with their derived due date and situation
// @Tags Finance
// @Produce json
// @Param search query string false "Search by name, email or document"
// @Success 200 {object} response.Envelope
// @Router /finance/members [get]
func (h *FinanceHandler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Get member billing standing
// @Description Returns one member with their derived due date and situation
// @Tags Finance
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /finance/members/{id} [get]
func (h *FinanceHandler) Get(c *gin.Context) {
	row, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Summary godoc
// @Summary Billing summary
// @Description Aggregated counts of current and delinquent members
// @Tags Finance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /finance/summary [get]
func (h *FinanceHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RegisterPayment godoc
// @Summary Register payment
// @Description Record a payment of whole months and advance the member's coverage
// @Tags Finance
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body service.RegisterPaymentRequest false "Payment payload, defaults to one month"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /finance/members/{id}/payments [post]
func (h *FinanceHandler) RegisterPayment(c *gin.Context) {
	// An empty body is a valid single-month payment.
	var req service.RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	row, err := h.service.RegisterPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// ListPayments godoc
// @Summary List payments
// @Description Payment history for a member, newest first
// @Tags Finance
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /finance/members/{id}/payments [get]
func (h *FinanceHandler) ListPayments(c *gin.Context) {
	payments, err := h.service.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Export godoc
// @Summary Export finance report
// @Description Download the finance roster as CSV or PDF
// @Tags Finance
// @Produce octet-stream
// @Param format query string true "Export format (csv or pdf)"
// @Param search query string false "Search by name, email or document"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /finance/export [get]
func (h *FinanceHandler) Export(c *gin.Context) {
	var (
		payload     []byte
		filename    string
		contentType string
		err         error
	)
	switch c.Query("format") {
	case "csv":
		payload, filename, err = h.service.ExportCSV(c.Request.Context(), c.Query("search"))
		contentType = "text/csv"
	case "pdf":
		payload, filename, err = h.service.ExportPDF(c.Request.Context(), c.Query("search"))
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
