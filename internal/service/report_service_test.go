package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intransparency/platform-api/internal/dto"
	"github.com/intransparency/platform-api/internal/models"
	"github.com/intransparency/platform-api/internal/repository"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
	"github.com/intransparency/platform-api/pkg/jobs"
)

type fakeReportStore struct {
	jobs    map[string]*models.ReportJob
	updates []repository.UpdateStatusParams
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{jobs: map[string]*models.ReportJob{}}
}

func (f *fakeReportStore) Create(_ context.Context, job *models.ReportJob) error {
	clone := *job
	f.jobs[job.ID] = &clone
	return nil
}

func (f *fakeReportStore) FindByID(_ context.Context, id string) (*models.ReportJob, error) {
	if job, ok := f.jobs[id]; ok {
		return job, nil
	}
	return nil, appErrors.ErrNotFound
}

func (f *fakeReportStore) UpdateStatus(_ context.Context, params repository.UpdateStatusParams) error {
	f.updates = append(f.updates, params)
	if job, ok := f.jobs[params.ID]; ok {
		job.Status = params.Status
		job.FilePath = params.FilePath
		job.ErrorText = params.ErrorText
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (f *fakeReportStore) ListPending(_ context.Context) ([]models.ReportJob, error) {
	var pending []models.ReportJob
	for _, job := range f.jobs {
		if job.Status == models.ReportStatusQueued || job.Status == models.ReportStatusProcessing {
			pending = append(pending, *job)
		}
	}
	return pending, nil
}

type fakeAnalyticsProvider struct {
	resp *dto.StudentAnalyticsResponse
	err  error
}

func (f *fakeAnalyticsProvider) StudentAnalytics(_ context.Context, _ string, _ models.SubscriptionTier, _ string) (*dto.StudentAnalyticsResponse, bool, error) {
	return f.resp, false, f.err
}

type fakeRenderer struct {
	out []byte
	err error
}

func (f *fakeRenderer) Render(_ *dto.StudentAnalyticsResponse, _ string) ([]byte, error) {
	return f.out, f.err
}

type fakeReportStorage struct {
	saved map[string][]byte
}

func (f *fakeReportStorage) Save(relPath string, content []byte) (string, error) {
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[relPath] = content
	return "/tmp/" + relPath, nil
}

func (f *fakeReportStorage) CleanupOlderThan(_ time.Time) (int, error) { return 0, nil }

type fakeSigner struct{}

func (fakeSigner) Generate(jobID, relPath string) (string, error) {
	return jobID + ".token", nil
}

type captureQueue struct {
	enqueued []jobs.Job
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newTestReportService(store *fakeReportStore, queue *captureQueue, analytics *fakeAnalyticsProvider, renderer *fakeRenderer, storage *fakeReportStorage) *ReportService {
	return NewReportService(ReportServiceParams{
		Reports:   store,
		Analytics: analytics,
		Renderer:  renderer,
		Storage:   storage,
		Signer:    fakeSigner{},
		Queue:     queue,
	})
}

func TestReportServiceEnqueue(t *testing.T) {
	store := newFakeReportStore()
	queue := &captureQueue{}
	svc := newTestReportService(store, queue, &fakeAnalyticsProvider{}, &fakeRenderer{}, &fakeReportStorage{})

	resp, err := svc.Enqueue(context.Background(), "user-1", models.TierPremium, dto.CreateReportRequest{
		Type:   models.ReportTypeStudentAnalytics,
		Format: "csv",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	assert.Equal(t, "csv", resp.Format)
	require.Len(t, queue.enqueued, 1)

	params, ok := queue.enqueued[0].Payload.(models.ReportJobParams)
	require.True(t, ok)
	assert.Equal(t, "1month", params.TimeRange)
	assert.Equal(t, "PREMIUM", params.Tier)
}

func TestReportServiceProcessFinishesJob(t *testing.T) {
	store := newFakeReportStore()
	queue := &captureQueue{}
	storage := &fakeReportStorage{}
	svc := newTestReportService(store, queue, &fakeAnalyticsProvider{resp: &dto.StudentAnalyticsResponse{}}, &fakeRenderer{out: []byte("data")}, storage)

	created, err := svc.Enqueue(context.Background(), "user-1", models.TierFree, dto.CreateReportRequest{
		Type:   models.ReportTypeStudentAnalytics,
		Format: "csv",
	})
	require.NoError(t, err)

	err = svc.Process(context.Background(), queue.enqueued[0])
	require.NoError(t, err)

	job := store.jobs[created.ID]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	require.NotNil(t, job.FilePath)
	assert.Contains(t, *job.FilePath, created.ID)
	assert.Contains(t, storage.saved, *job.FilePath)
}

func TestReportServiceProcessRecordsFailure(t *testing.T) {
	store := newFakeReportStore()
	queue := &captureQueue{}
	svc := newTestReportService(store, queue, &fakeAnalyticsProvider{err: assert.AnError}, &fakeRenderer{}, &fakeReportStorage{})

	created, err := svc.Enqueue(context.Background(), "user-1", models.TierFree, dto.CreateReportRequest{
		Type:   models.ReportTypeStudentAnalytics,
		Format: "pdf",
	})
	require.NoError(t, err)

	err = svc.Process(context.Background(), queue.enqueued[0])
	require.Error(t, err)

	job := store.jobs[created.ID]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorText)
}

func TestReportServiceStatusOwnership(t *testing.T) {
	store := newFakeReportStore()
	queue := &captureQueue{}
	svc := newTestReportService(store, queue, &fakeAnalyticsProvider{}, &fakeRenderer{}, &fakeReportStorage{})

	created, err := svc.Enqueue(context.Background(), "user-1", models.TierFree, dto.CreateReportRequest{
		Type:   models.ReportTypeStudentAnalytics,
		Format: "csv",
	})
	require.NoError(t, err)

	_, err = svc.Status(context.Background(), created.ID, "someone-else", models.RoleStudent)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	resp, err := svc.Status(context.Background(), created.ID, "someone-else", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.ID)
}

func TestReportServiceStatusIncludesDownloadURL(t *testing.T) {
	store := newFakeReportStore()
	queue := &captureQueue{}
	storage := &fakeReportStorage{}
	svc := newTestReportService(store, queue, &fakeAnalyticsProvider{resp: &dto.StudentAnalyticsResponse{}}, &fakeRenderer{out: []byte("data")}, storage)

	created, err := svc.Enqueue(context.Background(), "user-1", models.TierFree, dto.CreateReportRequest{
		Type:   models.ReportTypeStudentAnalytics,
		Format: "csv",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), queue.enqueued[0]))

	resp, err := svc.Status(context.Background(), created.ID, "user-1", models.RoleStudent)
	require.NoError(t, err)
	require.NotNil(t, resp.DownloadURL)
	assert.Contains(t, *resp.DownloadURL, created.ID+".token")
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	store := newFakeReportStore()
	store.jobs["stale"] = &models.ReportJob{
		ID:     "stale",
		Type:   models.ReportTypeStudentAnalytics,
		Status: models.ReportStatusProcessing,
		Params: models.ReportJobParams{UserID: "user-1", Format: "csv"},
	}
	queue := &captureQueue{}
	svc := newTestReportService(store, queue, &fakeAnalyticsProvider{}, &fakeRenderer{}, &fakeReportStorage{})

	require.NoError(t, svc.RecoverPendingJobs(context.Background()))
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "stale", queue.enqueued[0].ID)
}
