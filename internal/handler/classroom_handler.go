package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
	"github.com/classdesk/classdesk-api/pkg/response"
)

type classroomService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateClassroomRequest) (*models.Classroom, error)
	Join(ctx context.Context, actor *models.JWTClaims, code string) (*models.Classroom, error)
	Invite(ctx context.Context, actor *models.JWTClaims, classroomID string, emails []string) error
	ListForActor(ctx context.Context, actor *models.JWTClaims) ([]models.Classroom, error)
	Get(ctx context.Context, actor *models.JWTClaims, classroomID string) (*models.Classroom, error)
}

// ClassroomHandler manages classroom HTTP endpoints.
type ClassroomHandler struct {
	service classroomService
}

// NewClassroomHandler constructs the handler.
func NewClassroomHandler(service classroomService) *ClassroomHandler {
	return &ClassroomHandler{service: service}
}

// Create godoc
// @Summary Create a classroom
// @Tags Classrooms
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Router /classrooms [post]
func (h *ClassroomHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid classroom payload"))
		return
	}
	classroom, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, classroom, nil)
}

// Join godoc
// @Summary Join a classroom by code
// @Tags Classrooms
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.JoinClassroomRequest true "Join payload"
// @Success 200 {object} response.Envelope
// @Router /classrooms/join [post]
func (h *ClassroomHandler) Join(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.JoinClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classroom code is required"))
		return
	}
	classroom, err := h.service.Join(c.Request.Context(), claims, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom, nil)
}

// Invite godoc
// @Summary Invite students to a classroom
// @Tags Classrooms
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Classroom ID"
// @Param payload body dto.InviteRequest true "Invite payload"
// @Success 204
// @Router /classrooms/{id}/invites [post]
func (h *ClassroomHandler) Invite(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one email is required"))
		return
	}
	if err := h.service.Invite(c.Request.Context(), claims, c.Param("id"), req.Emails); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List the caller's classrooms
// @Tags Classrooms
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *ClassroomHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classrooms, err := h.service.ListForActor(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if classrooms == nil {
		classrooms = []models.Classroom{}
	}
	response.JSON(c, http.StatusOK, classrooms, nil)
}

// Get godoc
// @Summary Fetch one classroom
// @Tags Classrooms
// @Security BearerAuth
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id} [get]
func (h *ClassroomHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classroom, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom, nil)
}
