package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intransparency/platform-api/internal/dto"
	"github.com/intransparency/platform-api/internal/models"
	"github.com/intransparency/platform-api/internal/repository"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
	"github.com/intransparency/platform-api/pkg/jobs"
)

type reportStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error
	ListPending(ctx context.Context) ([]models.ReportJob, error)
}

type analyticsProvider interface {
	StudentAnalytics(ctx context.Context, userID string, tier models.SubscriptionTier, timeRange string) (*dto.StudentAnalyticsResponse, bool, error)
}

type documentRenderer interface {
	Render(analytics *dto.StudentAnalyticsResponse, format string) ([]byte, error)
}

type reportStorage interface {
	Save(relPath string, content []byte) (string, error)
	CleanupOlderThan(cutoff time.Time) (int, error)
}

type downloadSigner interface {
	Generate(jobID, relPath string) (string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type reportMetricsRecorder interface {
	RecordReportJob(outcome string)
}

// ReportServiceConfig tunes report generation.
type ReportServiceConfig struct {
	DownloadPathPrefix string
	CleanupMaxAge      time.Duration
}

// ReportService manages asynchronous analytics exports.
type ReportService struct {
	reports   reportStore
	analytics analyticsProvider
	renderer  documentRenderer
	storage   reportStorage
	signer    downloadSigner
	queue     jobEnqueuer
	metrics   reportMetricsRecorder
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Reports   reportStore
	Analytics analyticsProvider
	Renderer  documentRenderer
	Storage   reportStorage
	Signer    downloadSigner
	Queue     jobEnqueuer
	Metrics   reportMetricsRecorder
	Logger    *zap.Logger
	Config    ReportServiceConfig
}

// NewReportService constructs a ReportService with sane defaults.
func NewReportService(params ReportServiceParams) *ReportService {
	cfg := params.Config
	if cfg.DownloadPathPrefix == "" {
		cfg.DownloadPathPrefix = "/api/v1/export"
	}
	if cfg.CleanupMaxAge <= 0 {
		cfg.CleanupMaxAge = 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:   params.Reports,
		analytics: params.Analytics,
		renderer:  params.Renderer,
		storage:   params.Storage,
		signer:    params.Signer,
		queue:     params.Queue,
		metrics:   params.Metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Enqueue persists a new export job and pushes it to the worker queue.
func (s *ReportService) Enqueue(ctx context.Context, userID string, tier models.SubscriptionTier, req dto.CreateReportRequest) (*dto.ReportJobResponse, error) {
	timeRange := req.TimeRange
	if timeRange == "" {
		timeRange = "1month"
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		RequestedBy: userID,
		Type:        models.ReportTypeStudentAnalytics,
		Params: models.ReportJobParams{
			UserID:    userID,
			TimeRange: timeRange,
			Tier:      string(models.NormalizeTier(tier)),
			Format:    req.Format,
		},
		Status:    models.ReportStatusQueued,
		CreatedAt: s.now().UTC(),
	}
	if err := s.reports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: job.Type, Payload: job.Params}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return s.toResponse(job), nil
}

// Status returns the job view for its owner. Admins may inspect any job.
func (s *ReportService) Status(ctx context.Context, jobID, requesterID string, requesterRole models.UserRole) (*dto.ReportJobResponse, error) {
	job, err := s.reports.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RequestedBy != requesterID && requesterRole != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	return s.toResponse(job), nil
}

// Process is the queue handler: it renders and stores one export.
func (s *ReportService) Process(ctx context.Context, job jobs.Job) error {
	params, ok := job.Payload.(models.ReportJobParams)
	if !ok {
		return fmt.Errorf("report job %s has unexpected payload type %T", job.ID, job.Payload)
	}

	if err := s.reports.UpdateStatus(ctx, repository.UpdateStatusParams{ID: job.ID, Status: models.ReportStatusProcessing}); err != nil {
		return err
	}

	analytics, _, err := s.analytics.StudentAnalytics(ctx, params.UserID, models.SubscriptionTier(params.Tier), params.TimeRange)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}
	content, err := s.renderer.Render(analytics, params.Format)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	relPath := fmt.Sprintf("reports/%s.%s", job.ID, params.Format)
	if _, err := s.storage.Save(relPath, content); err != nil {
		return s.fail(ctx, job.ID, err)
	}

	finished := s.now().UTC()
	if err := s.reports.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:         job.ID,
		Status:     models.ReportStatusFinished,
		FilePath:   &relPath,
		FinishedAt: &finished,
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob("finished")
	}
	s.logger.Info("report job finished", zap.String("job_id", job.ID), zap.String("format", params.Format))
	return nil
}

// RecoverPendingJobs re-enqueues work interrupted by a restart.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) error {
	pending, err := s.reports.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: job.Type, Payload: job.Params}); err != nil {
			return err
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered pending report jobs", zap.Int("count", len(pending)))
	}
	return nil
}

// StartCleanup removes expired export files on an interval until the
// context is cancelled.
func (s *ReportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := s.now().Add(-s.cfg.CleanupMaxAge)
				removed, err := s.storage.CleanupOlderThan(cutoff)
				if err != nil {
					s.logger.Warn("report cleanup failed", zap.Error(err))
				} else if removed > 0 {
					s.logger.Info("expired report files removed", zap.Int("count", removed))
				}
			}
		}
	}()
}

func (s *ReportService) fail(ctx context.Context, jobID string, cause error) error {
	message := cause.Error()
	finished := s.now().UTC()
	if err := s.reports.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:         jobID,
		Status:     models.ReportStatusFailed,
		ErrorText:  &message,
		FinishedAt: &finished,
	}); err != nil {
		s.logger.Error("report failure status write failed", zap.String("job_id", jobID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob("failed")
	}
	return cause
}

func (s *ReportService) toResponse(job *models.ReportJob) *dto.ReportJobResponse {
	resp := &dto.ReportJobResponse{
		ID:         job.ID,
		Type:       job.Type,
		Format:     job.Params.Format,
		Status:     job.Status,
		Error:      job.ErrorText,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.Status == models.ReportStatusFinished && job.FilePath != nil && s.signer != nil {
		token, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Warn("signed url generation failed", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			url := fmt.Sprintf("%s/%s", s.cfg.DownloadPathPrefix, token)
			resp.DownloadURL = &url
		}
	}
	return resp
}
