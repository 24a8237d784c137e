package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/intransparency/platform-api/internal/dto"
	"github.com/intransparency/platform-api/internal/models"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
	"github.com/intransparency/platform-api/pkg/response"
	"github.com/intransparency/platform-api/pkg/storage"
)

type reportService interface {
	Enqueue(ctx context.Context, userID string, tier models.SubscriptionTier, req dto.CreateReportRequest) (*dto.ReportJobResponse, error)
	Status(ctx context.Context, jobID, requesterID string, requesterRole models.UserRole) (*dto.ReportJobResponse, error)
}

type exportFileOpener interface {
	Open(relPath string) (io.ReadCloser, error)
}

type downloadTokenParser interface {
	Parse(token string) (*storage.SignedToken, error)
}

// ReportHandler serves analytics export jobs and signed downloads.
type ReportHandler struct {
	reports reportService
	files   exportFileOpener
	signer  downloadTokenParser
}

// NewReportHandler constructs a report handler.
func NewReportHandler(reports reportService, files exportFileOpener, signer downloadTokenParser) *ReportHandler {
	return &ReportHandler{reports: reports, files: files, signer: signer}
}

// Create godoc
// @Summary Enqueue an analytics export
// @Tags reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Export request"
// @Success 201 {object} response.Envelope{data=dto.ReportJobResponse}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	job, err := h.reports.Enqueue(c.Request.Context(), claims.UserID, claims.Tier, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// Status godoc
// @Summary Export job status
// @Tags reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope{data=dto.ReportJobResponse}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	job, err := h.reports.Status(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Download streams a finished export through a signed token. No session is
// required; the token itself is the credential.
func (h *ReportHandler) Download(c *gin.Context) {
	parsed, err := h.signer.Parse(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.files.Open(parsed.Path)
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	defer file.Close()

	name := filepath.Base(parsed.Path)
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Header("Content-Type", contentTypeFor(name))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}

func contentTypeFor(name string) string {
	switch filepath.Ext(name) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
