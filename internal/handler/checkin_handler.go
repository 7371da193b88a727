package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/gym-api/internal/models"
	"github.com/fitdesk/gym-api/internal/service"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
	"github.com/fitdesk/gym-api/pkg/response"
)

// CheckInHandler exposes gym entry endpoints.
type CheckInHandler struct {
	service *service.CheckInService
}

// NewCheckInHandler creates a new handler.
func NewCheckInHandler(svc *service.CheckInService) *CheckInHandler {
	return &CheckInHandler{service: svc}
}

// CheckIn godoc
// @Summary Record check-in
// @Description Record a member's gym entry, at most one per day
// @Tags CheckIns
// @Accept json
// @Produce json
// @Param payload body service.CheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /check-ins [post]
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check-in payload"))
		return
	}
	checkIn, err := h.service.CheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, checkIn)
}

// List godoc
// @Summary List check-ins
// @Description List check-ins filtered by member and day
// @Tags CheckIns
// @Produce json
// @Param member_id query string false "Filter by member"
// @Param date query string false "Filter by calendar day (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /check-ins [get]
func (h *CheckInHandler) List(c *gin.Context) {
	filter := models.CheckInFilter{MemberID: c.Query("member_id")}
	if date := c.Query("date"); date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		filter.Date = &t
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	checkIns, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checkIns, pagination)
}
