package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/intransparency/platform-api/internal/models"
)

// AnalyticsRepository exposes the read-only queries behind the student
// analytics aggregation. It never mutates domain rows.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CountProfileViews counts profile views of a user since the window start.
func (r *AnalyticsRepository) CountProfileViews(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM profile_views WHERE viewed_user_id = $1 AND created_at >= $2"
	if err := r.db.GetContext(ctx, &count, query, userID, since); err != nil {
		return 0, fmt.Errorf("count profile views: %w", err)
	}
	return count, nil
}

// ListProfileViews returns the in-window view rows, oldest first.
func (r *AnalyticsRepository) ListProfileViews(ctx context.Context, userID string, since time.Time) ([]models.ProfileView, error) {
	query := `SELECT id, viewed_user_id, viewer_id, viewer_company, view_duration, created_at
        FROM profile_views
        WHERE viewed_user_id = $1 AND created_at >= $2
        ORDER BY created_at ASC`

	var views []models.ProfileView
	if err := r.db.SelectContext(ctx, &views, query, userID, since); err != nil {
		return nil, fmt.Errorf("list profile views: %w", err)
	}
	return views, nil
}

// ListProjectsByOwner returns all of a user's projects regardless of age.
func (r *AnalyticsRepository) ListProjectsByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	query := `SELECT id, owner_id, title, skills, technologies, views, recruiter_views, complexity_score, created_at
        FROM projects
        WHERE owner_id = $1
        ORDER BY created_at ASC`

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, ownerID); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListApplications returns the user's in-window applications, oldest first.
func (r *AnalyticsRepository) ListApplications(ctx context.Context, applicantID string, since time.Time) ([]models.Application, error) {
	query := `SELECT id, applicant_id, job_title, company, status, created_at, updated_at
        FROM applications
        WHERE applicant_id = $1 AND created_at >= $2
        ORDER BY created_at ASC`

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, applicantID, since); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// RecruiterInterestCounts aggregates recruiter actions toward a user within
// the window.
func (r *AnalyticsRepository) RecruiterInterestCounts(ctx context.Context, userID string, since time.Time) (models.RecruiterInterestCounts, error) {
	query := `SELECT
        (SELECT COUNT(*) FROM recruiter_saved_candidates WHERE candidate_id = $1 AND created_at >= $2) AS saved_by_recruiters,
        (SELECT COUNT(*) FROM contact_requests WHERE recipient_id = $1 AND created_at >= $2) AS contact_requests,
        (SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND created_at >= $2) AS messages_received`

	var counts models.RecruiterInterestCounts
	if err := r.db.GetContext(ctx, &counts, query, userID, since); err != nil {
		return models.RecruiterInterestCounts{}, fmt.Errorf("recruiter interest counts: %w", err)
	}
	return counts, nil
}

// CompetencyDemand looks up market-demand rows for the given skill names,
// matched case-insensitively.
func (r *AnalyticsRepository) CompetencyDemand(ctx context.Context, names []string) ([]models.Competency, error) {
	if len(names) == 0 {
		return []models.Competency{}, nil
	}

	query := `SELECT id, name, industry_demand, updated_at
        FROM competencies
        WHERE LOWER(name) = ANY($1)`

	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}

	var competencies []models.Competency
	if err := r.db.SelectContext(ctx, &competencies, query, pq.Array(lowered)); err != nil {
		return nil, fmt.Errorf("query competency demand: %w", err)
	}
	return competencies, nil
}

// CareerPathRecommendation fetches the cached career-path row for a user.
// Returns (nil, nil) when no row exists.
func (r *AnalyticsRepository) CareerPathRecommendation(ctx context.Context, userID string) (*models.SkillPathRecommendation, error) {
	query := `SELECT id, user_id, career_paths, computed_at
        FROM skill_path_recommendations
        WHERE user_id = $1`

	var rec models.SkillPathRecommendation
	if err := r.db.GetContext(ctx, &rec, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query career path recommendation: %w", err)
	}
	return &rec, nil
}

// ConfirmedPlacements returns all confirmed placements denominated in the
// given currency, platform-wide.
func (r *AnalyticsRepository) ConfirmedPlacements(ctx context.Context, currency string) ([]models.Placement, error) {
	query := `SELECT id, user_id, job_title, company_industry, salary_amount, salary_period, currency, status, created_at
        FROM placements
        WHERE status = 'CONFIRMED' AND currency = $1`

	var placements []models.Placement
	if err := r.db.SelectContext(ctx, &placements, query, currency); err != nil {
		return nil, fmt.Errorf("query confirmed placements: %w", err)
	}
	return placements, nil
}
