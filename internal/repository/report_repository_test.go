package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intransparency/platform-api/internal/models"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
)

func newReportMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO report_jobs").
		WithArgs("job-1", "user-1", models.ReportTypeStudentAnalytics, sqlmock.AnyArg(), models.ReportStatusQueued, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.ReportJob{
		ID:          "job-1",
		RequestedBy: "user-1",
		Type:        models.ReportTypeStudentAnalytics,
		Params:      models.ReportJobParams{UserID: "user-1", TimeRange: "1year", Tier: "PREMIUM", Format: "csv"},
		Status:      models.ReportStatusQueued,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("SELECT id, requested_by, type, params, status").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	path := "reports/job-1.csv"
	finished := time.Now()
	mock.ExpectExec("UPDATE report_jobs").
		WithArgs("job-1", models.ReportStatusFinished, &path, nil, &finished).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:         "job-1",
		Status:     models.ReportStatusFinished,
		FilePath:   &path,
		FinishedAt: &finished,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListPending(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	params := `{"userId":"user-1","timeRange":"1month","tier":"FREE","format":"pdf"}`
	rows := sqlmock.NewRows([]string{"id", "requested_by", "type", "params", "status", "file_path", "error_text", "created_at", "updated_at", "finished_at"}).
		AddRow("job-1", "user-1", models.ReportTypeStudentAnalytics, []byte(params), models.ReportStatusQueued, nil, nil, time.Now(), time.Now(), nil)
	mock.ExpectQuery("SELECT id, requested_by, type, params, status").
		WithArgs(models.ReportStatusQueued, models.ReportStatusProcessing).
		WillReturnRows(rows)

	jobs, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "pdf", jobs[0].Params.Format)
	assert.NoError(t, mock.ExpectationsWereMet())
}
