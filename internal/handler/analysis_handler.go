package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
	"github.com/classdesk/classdesk-api/pkg/response"
)

type analysisService interface {
	Trigger(ctx context.Context, actor *models.JWTClaims, assignmentID string) (*models.AnalysisReport, error)
	Report(ctx context.Context, actor *models.JWTClaims, assignmentID string) (*models.AnalysisReport, error)
}

// AnalysisHandler manages similarity analysis endpoints.
type AnalysisHandler struct {
	service analysisService
}

// NewAnalysisHandler constructs the handler.
func NewAnalysisHandler(service analysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// Trigger godoc
// @Summary Queue a similarity analysis run
// @Tags Analysis
// @Security BearerAuth
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 202 {object} response.Envelope
// @Router /assignments/{id}/analysis [post]
func (h *AnalysisHandler) Trigger(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Trigger(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, report, nil)
}

// Report godoc
// @Summary Fetch the latest similarity report
// @Tags Analysis
// @Security BearerAuth
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/analysis [get]
func (h *AnalysisHandler) Report(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Report(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
