package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/gym-api/internal/service"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
	"github.com/fitdesk/gym-api/pkg/response"
)

// WorkoutHandler exposes training plan endpoints.
type WorkoutHandler struct {
	service *service.WorkoutService
}

// NewWorkoutHandler creates a new handler.
func NewWorkoutHandler(svc *service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{service: svc}
}

// ListTemplates godoc
// @Summary List workout templates
// @Description Templates visible to the caller (instructors see their own)
// @Tags Workouts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workouts/templates [get]
func (h *WorkoutHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// GetTemplate godoc
// @Summary Get workout template
// @Description A template with its ordered exercises
// @Tags Workouts
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workouts/templates/{id} [get]
func (h *WorkoutHandler) GetTemplate(c *gin.Context) {
	template, err := h.service.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// CreateTemplate godoc
// @Summary Create workout template
// @Description Create a training plan with its exercises
// @Tags Workouts
// @Accept json
// @Produce json
// @Param payload body service.WorkoutTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /workouts/templates [post]
func (h *WorkoutHandler) CreateTemplate(c *gin.Context) {
	var req service.WorkoutTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	template, err := h.service.CreateTemplate(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// UpdateTemplate godoc
// @Summary Update workout template
// @Description Rewrite a training plan and its exercise set
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body service.WorkoutTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workouts/templates/{id} [put]
func (h *WorkoutHandler) UpdateTemplate(c *gin.Context) {
	var req service.WorkoutTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	template, err := h.service.UpdateTemplate(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// DeleteTemplate godoc
// @Summary Delete workout template
// @Description Remove a training plan and its assignments
// @Tags Workouts
// @Produce json
// @Param id path string true "Template ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workouts/templates/{id} [delete]
func (h *WorkoutHandler) DeleteTemplate(c *gin.Context) {
	if err := h.service.DeleteTemplate(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign workout
// @Description Link a template to a member
// @Tags Workouts
// @Accept json
// @Produce json
// @Param payload body service.AssignWorkoutRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workouts/assignments [post]
func (h *WorkoutHandler) Assign(c *gin.Context) {
	var req service.AssignWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// ListMemberAssignments godoc
// @Summary List member workouts
// @Description Workouts assigned to a member, newest first
// @Tags Workouts
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /members/{id}/workouts [get]
func (h *WorkoutHandler) ListMemberAssignments(c *gin.Context) {
	assignments, err := h.service.ListMemberAssignments(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Unassign godoc
// @Summary Remove workout assignment
// @Description Unlink a template from a member
// @Tags Workouts
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workouts/assignments/{id} [delete]
func (h *WorkoutHandler) Unassign(c *gin.Context) {
	if err := h.service.Unassign(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
