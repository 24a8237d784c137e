package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intransparency/platform-api/internal/dto"
	"github.com/intransparency/platform-api/internal/models"
)

type fakeAnalyticsRepo struct {
	viewCount    int
	views        []models.ProfileView
	projects     []models.Project
	applications []models.Application
	interest     models.RecruiterInterestCounts
	competencies []models.Competency
	careerPaths  *models.SkillPathRecommendation
	placements   []models.Placement

	countErr error

	lastViewSince time.Time
	lastAppSince  time.Time
	demandNames   []string
}

func (f *fakeAnalyticsRepo) CountProfileViews(_ context.Context, _ string, since time.Time) (int, error) {
	f.lastViewSince = since
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.viewCount, nil
}

func (f *fakeAnalyticsRepo) ListProfileViews(_ context.Context, _ string, _ time.Time) ([]models.ProfileView, error) {
	return f.views, nil
}

func (f *fakeAnalyticsRepo) ListProjectsByOwner(_ context.Context, _ string) ([]models.Project, error) {
	return f.projects, nil
}

func (f *fakeAnalyticsRepo) ListApplications(_ context.Context, _ string, since time.Time) ([]models.Application, error) {
	f.lastAppSince = since
	return f.applications, nil
}

func (f *fakeAnalyticsRepo) RecruiterInterestCounts(_ context.Context, _ string, _ time.Time) (models.RecruiterInterestCounts, error) {
	return f.interest, nil
}

func (f *fakeAnalyticsRepo) CompetencyDemand(_ context.Context, names []string) ([]models.Competency, error) {
	f.demandNames = names
	return f.competencies, nil
}

func (f *fakeAnalyticsRepo) CareerPathRecommendation(_ context.Context, _ string) (*models.SkillPathRecommendation, error) {
	return f.careerPaths, nil
}

func (f *fakeAnalyticsRepo) ConfirmedPlacements(_ context.Context, _ string) ([]models.Placement, error) {
	return f.placements, nil
}

func newAnalyticsService(repo *fakeAnalyticsRepo, now time.Time) *AnalyticsService {
	svc := NewAnalyticsService(AnalyticsServiceParams{Repo: repo})
	svc.now = func() time.Time { return now }
	svc.randInt = func(n int) int { return 0 }
	return svc
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func TestStudentAnalyticsFreeTierEmptyUser(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, cached, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierFree, "1month")
	require.NoError(t, err)
	assert.False(t, cached)

	assert.Equal(t, dto.Overview{}, resp.Overview)
	assert.Empty(t, resp.Skills)
	assert.Nil(t, resp.Engagement)
	assert.Nil(t, resp.ApplicationFunnel)
	assert.Nil(t, resp.ApplicationTrends)
	assert.Nil(t, resp.RecruiterInterest)
	assert.Nil(t, resp.SkillsVsMarket)
	assert.Nil(t, resp.ProjectPerformance)
	assert.Nil(t, resp.CareerReadiness)
	assert.Nil(t, resp.IndustryInterest)
	assert.Nil(t, resp.SalaryContext)
	assert.True(t, resp.IsLimited)
	assert.Equal(t, 0, resp.PremiumFeatureCount)
	assert.Equal(t, "1month", resp.TierLimits.MaxTimeRange)
}

func TestStudentAnalyticsFreeTierClampsWindow(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	_, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierFree, "1year")
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(0, -1, 0), repo.lastViewSince)
	assert.Equal(t, now.AddDate(0, -1, 0), repo.lastAppSince)
}

func TestStudentAnalyticsUnknownTierTreatedAsFree(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.SubscriptionTier("GOLD"), "1year")
	require.NoError(t, err)
	assert.True(t, resp.IsLimited)
	assert.Equal(t, now.AddDate(0, -1, 0), repo.lastViewSince)
}

func TestStudentAnalyticsSkillScoringSingleComplexProject(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		projects: []models.Project{
			{ID: "p1", Title: "Scraper", Skills: []string{"Python"}, ComplexityScore: floatPtr(80)},
		},
	}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)

	require.Len(t, resp.Skills, 1)
	assert.Equal(t, dto.SkillScoreEntry{Name: "Python", Level: 48, ProjectCount: 1}, resp.Skills[0])
	assert.Equal(t, 48, resp.Overview.SkillScore)
}

func TestStudentAnalyticsSkillLevelRecurrenceAndCap(t *testing.T) {
	projects := make([]models.Project, 0, 8)
	for i := 0; i < 8; i++ {
		projects = append(projects, models.Project{Skills: []string{"Go"}, ComplexityScore: floatPtr(100)})
	}
	repo := &fakeAnalyticsRepo{projects: projects}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)

	require.Len(t, resp.Skills, 1)
	assert.Equal(t, 100, resp.Skills[0].Level)
	assert.Equal(t, 8, resp.Skills[0].ProjectCount)
	assert.Equal(t, 100, resp.Overview.SkillScore)
}

func TestStudentAnalyticsSkillListTruncatedToTop15(t *testing.T) {
	project := models.Project{}
	for i := 0; i < 20; i++ {
		project.Skills = append(project.Skills, string(rune('a'+i)))
	}
	repo := &fakeAnalyticsRepo{projects: []models.Project{project}}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	assert.Len(t, resp.Skills, 15)
}

func TestStudentAnalyticsFunnelFixedOrder(t *testing.T) {
	apps := []models.Application{
		{Status: models.ApplicationApplied, CreatedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Status: models.ApplicationApplied, CreatedAt: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)},
		{Status: models.ApplicationInterview, CreatedAt: time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)},
		{Status: models.ApplicationAccepted, CreatedAt: time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC)},
	}
	repo := &fakeAnalyticsRepo{applications: apps}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)

	expected := []dto.FunnelStage{
		{Stage: "Applied", Count: 4},
		{Stage: "Reviewing", Count: 0},
		{Stage: "Shortlisted", Count: 0},
		{Stage: "Interview", Count: 1},
		{Stage: "Offer", Count: 0},
		{Stage: "Accepted", Count: 1},
	}
	assert.Equal(t, expected, resp.ApplicationFunnel)
	assert.Equal(t, 4, resp.Overview.TotalApplications)
}

func TestStudentAnalyticsEngagementBuckets(t *testing.T) {
	views := []models.ProfileView{
		{CreatedAt: time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), ViewerCompany: strPtr("Acme"), ViewDuration: intPtr(30)},
		{CreatedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), ViewerCompany: strPtr("Acme"), ViewDuration: intPtr(90)},
		{CreatedAt: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), ViewerCompany: strPtr("Globex")},
	}
	repo := &fakeAnalyticsRepo{views: views, viewCount: 3}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "3months")
	require.NoError(t, err)
	require.NotNil(t, resp.Engagement)

	months := make([]string, 0, len(resp.Engagement.MonthlyViews))
	for _, bucket := range resp.Engagement.MonthlyViews {
		months = append(months, bucket.Month)
	}
	assert.Equal(t, []string{"Mar 2026", "Apr 2026", "May 2026", "Jun 2026"}, months)
	assert.Equal(t, 0, resp.Engagement.MonthlyViews[0].Views)
	assert.Equal(t, 1, resp.Engagement.MonthlyViews[1].Views)
	assert.Equal(t, 1, resp.Engagement.MonthlyViews[3].Views)

	require.Len(t, resp.Engagement.TopCompanies, 2)
	assert.Equal(t, dto.CompanyViews{Company: "Acme", Views: 2}, resp.Engagement.TopCompanies[0])
	assert.InDelta(t, 60.0, resp.Engagement.AvgViewDuration, 0.001)
}

func TestStudentAnalyticsApplicationTrendsShortLabels(t *testing.T) {
	apps := []models.Application{
		{Status: models.ApplicationApplied, CreatedAt: time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)},
	}
	repo := &fakeAnalyticsRepo{applications: apps}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "3months")
	require.NoError(t, err)
	require.NotNil(t, resp.ApplicationTrends)

	assert.Equal(t, "Mar", resp.ApplicationTrends[0].Month)
	assert.Equal(t, "May", resp.ApplicationTrends[2].Month)
	assert.Equal(t, 1, resp.ApplicationTrends[2].Applications)
}

func TestStudentAnalyticsSkillsVsMarketFallback(t *testing.T) {
	demand := 85
	repo := &fakeAnalyticsRepo{
		projects: []models.Project{
			{Skills: []string{"Python", "Rust"}},
		},
		competencies: []models.Competency{
			{Name: "python", IndustryDemand: &demand},
		},
	}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)
	svc.randInt = func(n int) int { return n - 1 }

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	require.Len(t, resp.SkillsVsMarket, 2)

	byName := map[string]dto.SkillMarketComparison{}
	for _, entry := range resp.SkillsVsMarket {
		byName[entry.Skill] = entry
	}
	assert.Equal(t, 85, byName["Python"].MarketDemand)
	assert.Equal(t, 70, byName["Rust"].MarketDemand)
}

func TestStudentAnalyticsProjectPerformanceTiers(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		projects: []models.Project{
			{Title: "Popular", Views: 150},
			{Title: "Complex", Views: 10, ComplexityScore: floatPtr(75)},
			{Title: "Middling", Views: 40},
			{Title: "Quiet", Views: 2},
		},
	}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	require.Len(t, resp.ProjectPerformance, 4)

	tiers := map[string]string{}
	for _, entry := range resp.ProjectPerformance {
		tiers[entry.Title] = entry.Impact
	}
	assert.Equal(t, "High Impact", tiers["Popular"])
	assert.Equal(t, "High Impact", tiers["Complex"])
	assert.Equal(t, "Medium Impact", tiers["Middling"])
	assert.Equal(t, "Entry Level", tiers["Quiet"])
	assert.Equal(t, "Popular", resp.ProjectPerformance[0].Title)
}

func TestStudentAnalyticsCareerReadiness(t *testing.T) {
	rec := &models.SkillPathRecommendation{
		CareerPaths: models.CareerPathList{
			{Title: "Backend Engineer", MatchScore: 0.91},
			{Title: "Data Engineer", MatchScore: 0.74},
			{Title: "SRE", MatchScore: 0.70},
			{Title: "ML Engineer", MatchScore: 0.65},
			{Title: "Platform Engineer", MatchScore: 0.60},
			{Title: "Consultant", MatchScore: 0.40},
		},
	}
	repo := &fakeAnalyticsRepo{careerPaths: rec}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	require.Len(t, resp.CareerReadiness, 5)
	assert.Equal(t, "Backend Engineer", resp.CareerReadiness[0].Title)
}

func TestStudentAnalyticsCareerReadinessMissingCacheRow(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	assert.Nil(t, resp.CareerReadiness)
}

func TestStudentAnalyticsSalaryContextPercentiles(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		placements: []models.Placement{
			{SalaryAmount: 70000, SalaryPeriod: "yearly", Currency: "EUR"},
			{SalaryAmount: 2500, SalaryPeriod: "monthly", Currency: "EUR"},
			{SalaryAmount: 50000, SalaryPeriod: "yearly", Currency: "EUR"},
		},
	}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	require.NotNil(t, resp.SalaryContext)

	assert.Equal(t, 30000, resp.SalaryContext.EntryLevel)
	assert.Equal(t, 50000, resp.SalaryContext.MidLevel)
	assert.Equal(t, 70000, resp.SalaryContext.SeniorLevel)
	assert.Equal(t, "€30k - €70k", resp.SalaryContext.Range)
	assert.Equal(t, 3, resp.SalaryContext.SampleSize)
}

func TestStudentAnalyticsSalaryContextInsufficientSamples(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		placements: []models.Placement{
			{SalaryAmount: 50000, SalaryPeriod: "yearly", Currency: "EUR"},
			{SalaryAmount: 60000, SalaryPeriod: "yearly", Currency: "EUR"},
		},
	}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	assert.Nil(t, resp.SalaryContext)
}

func TestStudentAnalyticsPremiumFeatureCount(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		placements: []models.Placement{
			{SalaryAmount: 30000, SalaryPeriod: "yearly", Currency: "EUR"},
			{SalaryAmount: 50000, SalaryPeriod: "yearly", Currency: "EUR"},
			{SalaryAmount: 70000, SalaryPeriod: "yearly", Currency: "EUR"},
		},
		careerPaths: &models.SkillPathRecommendation{
			CareerPaths: models.CareerPathList{{Title: "Backend Engineer", MatchScore: 0.9}},
		},
	}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	assert.False(t, resp.IsLimited)
	assert.Equal(t, 8, resp.PremiumFeatureCount)
}

func TestStudentAnalyticsEntitledButEmptySlicesAreNotNull(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)

	assert.NotNil(t, resp.ApplicationFunnel)
	assert.NotNil(t, resp.ApplicationTrends)
	assert.NotNil(t, resp.SkillsVsMarket)
	assert.NotNil(t, resp.ProjectPerformance)
	assert.NotNil(t, resp.IndustryInterest)
	assert.Empty(t, resp.SkillsVsMarket)
}

func TestStudentAnalyticsIndustryInterestPalette(t *testing.T) {
	views := []models.ProfileView{
		{CreatedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), ViewerCompany: strPtr("Acme")},
		{CreatedAt: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), ViewerCompany: strPtr("Acme")},
		{CreatedAt: time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC), ViewerCompany: strPtr("Globex")},
	}
	repo := &fakeAnalyticsRepo{views: views}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	resp, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.NoError(t, err)
	require.Len(t, resp.IndustryInterest, 2)
	assert.Equal(t, "Acme", resp.IndustryInterest[0].Industry)
	assert.Equal(t, industryPalette[0], resp.IndustryInterest[0].Color)
	assert.Equal(t, industryPalette[1], resp.IndustryInterest[1].Color)
}

func TestStudentAnalyticsFetchFailureIsInternal(t *testing.T) {
	repo := &fakeAnalyticsRepo{countErr: assert.AnError}
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc := newAnalyticsService(repo, now)

	_, _, err := svc.StudentAnalytics(context.Background(), "user-1", models.TierPremium, "1month")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch analytics")
}
