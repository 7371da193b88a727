package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/gym-api/internal/models"
	"github.com/fitdesk/gym-api/internal/service"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
	"github.com/fitdesk/gym-api/pkg/response"
)

// EnrollmentHandler exposes class registration endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// List godoc
// @Summary List enrollments
// @Description List enrollments with filters and pagination
// @Tags Enrollments
// @Produce json
// @Param member_id query string false "Filter by member"
// @Param class_id query string false "Filter by class"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		MemberID:  c.Query("member_id"),
		ClassID:   c.Query("class_id"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	enrollments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Enroll godoc
// @Summary Enroll member
// @Description Register a member in a class, guarded by capacity and start time
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Cancel godoc
// @Summary Cancel enrollment
// @Description Remove a member's enrollment before the class starts
// @Tags Enrollments
// @Produce json
// @Param member_id query string true "Member ID"
// @Param class_id query string true "Class ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	memberID := c.Query("member_id")
	classID := c.Query("class_id")
	if memberID == "" || classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "member_id and class_id are required"))
		return
	}
	if err := h.service.Cancel(c.Request.Context(), memberID, classID, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByMember godoc
// @Summary List member enrollments
// @Description A member's enrollments ordered by class start time
// @Tags Enrollments
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /members/{id}/enrollments [get]
func (h *EnrollmentHandler) ListByMember(c *gin.Context) {
	enrollments, err := h.service.ListByMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
