package handler

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
	"github.com/classdesk/classdesk-api/pkg/response"
)

type submissionService interface {
	SubmitUpload(ctx context.Context, actor *models.JWTClaims, assignmentID, filename string, pdf []byte) (*dto.SubmissionReceipt, error)
	SubmitScan(ctx context.Context, actor *models.JWTClaims, assignmentID string, pages [][]byte) (*dto.SubmissionReceipt, error)
	ListForReview(ctx context.Context, actor *models.JWTClaims, assignmentID string) ([]dto.SubmissionResponse, error)
	ExportReview(ctx context.Context, actor *models.JWTClaims, assignmentID, format string) (*dto.ExportResult, error)
	GetOwn(ctx context.Context, actor *models.JWTClaims, assignmentID string) (*dto.SubmissionResponse, error)
	OpenArtifact(token string) (*os.File, string, error)
}

// SubmissionHandler manages submission HTTP endpoints.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// Upload godoc
// @Summary Submit an assignment PDF
// @Tags Submissions
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Assignment ID"
// @Param file formData file true "PDF document"
// @Success 201 {object} response.Envelope
// @Router /assignments/{id}/submissions [post]
func (h *SubmissionHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrAcquisition, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	pdf, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
		return
	}

	receipt, err := h.service.SubmitUpload(c.Request.Context(), claims, c.Param("id"), fileHeader.Filename, pdf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, receipt, nil)
}

// Scan godoc
// @Summary Submit captured page images
// @Tags Submissions
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Assignment ID"
// @Param pages formData file true "Page images in order"
// @Success 201 {object} response.Envelope
// @Router /assignments/{id}/submissions/scan [post]
func (h *SubmissionHandler) Scan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrAcquisition, "page images are required"))
		return
	}
	files := form.File["pages"]
	if len(files) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrAcquisition, "page images are required"))
		return
	}

	pages := make([][]byte, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open page image"))
			return
		}
		page, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer page image"))
			return
		}
		pages = append(pages, page)
	}

	receipt, err := h.service.SubmitScan(c.Request.Context(), claims, c.Param("id"), pages)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, receipt, nil)
}

// ListForReview godoc
// @Summary List submissions for review
// @Tags Submissions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions [get]
func (h *SubmissionHandler) ListForReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	submissions, err := h.service.ListForReview(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if submissions == nil {
		submissions = []dto.SubmissionResponse{}
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// ExportReview godoc
// @Summary Export the submission roster as CSV or PDF
// @Tags Submissions
// @Security BearerAuth
// @Produce text/csv
// @Param id path string true "Assignment ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} binary
// @Router /assignments/{id}/submissions/export [get]
func (h *SubmissionHandler) ExportReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := c.DefaultQuery("format", "csv")
	result, err := h.service.ExportReview(c.Request.Context(), claims, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// GetOwn godoc
// @Summary Fetch the caller's submission
// @Tags Submissions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions/mine [get]
func (h *SubmissionHandler) GetOwn(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	submission, err := h.service.GetOwn(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// DownloadArtifact godoc
// @Summary Download a submission artifact via a signed token
// @Tags Submissions
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /submissions/artifacts/{token} [get]
func (h *SubmissionHandler) DownloadArtifact(c *gin.Context) {
	file, filename, err := h.service.OpenArtifact(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat artifact"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
