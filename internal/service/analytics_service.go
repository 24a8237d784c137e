package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/intransparency/platform-api/internal/dto"
	"github.com/intransparency/platform-api/internal/models"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
)

type analyticsRepository interface {
	CountProfileViews(ctx context.Context, userID string, since time.Time) (int, error)
	ListProfileViews(ctx context.Context, userID string, since time.Time) ([]models.ProfileView, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]models.Project, error)
	ListApplications(ctx context.Context, applicantID string, since time.Time) ([]models.Application, error)
	RecruiterInterestCounts(ctx context.Context, userID string, since time.Time) (models.RecruiterInterestCounts, error)
	CompetencyDemand(ctx context.Context, names []string) ([]models.Competency, error)
	CareerPathRecommendation(ctx context.Context, userID string) (*models.SkillPathRecommendation, error)
	ConfirmedPlacements(ctx context.Context, currency string) ([]models.Placement, error)
}

const (
	maxTopSkills          = 15
	maxMarketSkills       = 8
	maxTopCompanies       = 5
	maxCareerPaths        = 5
	maxPerformanceEntries = 10
	maxIndustrySlices     = 5
	minSalarySamples      = 3
	salaryCurrency        = "EUR"
)

// industryPalette colors industry-interest slices by rank, cycling when
// more slices exist than colors.
var industryPalette = [...]string{
	"#3B82F6", "#8B5CF6", "#10B981", "#F59E0B", "#EF4444",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// AnalyticsServiceConfig tunes the aggregator.
type AnalyticsServiceConfig struct {
	CacheTTL time.Duration
}

// AnalyticsService computes the tiered student analytics payload.
type AnalyticsService struct {
	repo    analyticsRepository
	cache   *CacheService
	logger  *zap.Logger
	cfg     AnalyticsServiceConfig
	now     func() time.Time
	randInt func(n int) int
}

// AnalyticsServiceParams groups constructor dependencies.
type AnalyticsServiceParams struct {
	Repo   analyticsRepository
	Cache  *CacheService
	Logger *zap.Logger
	Config AnalyticsServiceConfig
}

// NewAnalyticsService constructs an AnalyticsService with sane defaults.
func NewAnalyticsService(params AnalyticsServiceParams) *AnalyticsService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		repo:    params.Repo,
		cache:   params.Cache,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		randInt: rand.Intn,
	}
}

// StudentAnalytics computes the analytics payload for one student. The
// requested time range is clamped to the tier ceiling before the window is
// resolved. The boolean return reports cache utilisation.
func (s *AnalyticsService) StudentAnalytics(ctx context.Context, userID string, tier models.SubscriptionTier, requestedRange string) (*dto.StudentAnalyticsResponse, bool, error) {
	tier = models.NormalizeTier(tier)
	policy := PolicyForTier(tier)
	effectiveRange := ClampTimeRange(requestedRange, policy)

	cacheKey := fmt.Sprintf("analytics:student:%s:%s:%s", userID, tier, effectiveRange)
	if s.cache != nil {
		var cached dto.StudentAnalyticsResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("analytics cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	now := s.now()
	since := ResolveWindowStart(now, effectiveRange)

	base, err := s.fetchBase(ctx, userID, since)
	if err != nil {
		s.logger.Error("analytics base fetch failed", zap.String("user_id", userID), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch analytics")
	}

	skills := scoreSkills(base.projects)
	statusCounts := countStatuses(base.applications)

	resp := &dto.StudentAnalyticsResponse{
		Overview: dto.Overview{
			TotalProfileViews: base.viewCount,
			TotalProjects:     len(base.projects),
			TotalApplications: len(base.applications),
			SkillScore:        skillScore(skills),
		},
		Skills:     skills,
		IsLimited:  !policy.HasEngagement,
		TierLimits: echoPolicy(policy),
	}

	if policy.HasEngagement {
		premium, err := s.fetchPremium(ctx, userID, since, skills)
		if err != nil {
			s.logger.Error("analytics premium fetch failed", zap.String("user_id", userID), zap.Error(err))
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch analytics")
		}
		s.assemblePremium(resp, policy, base, premium, skills, statusCounts, since, now)
	}

	resp.PremiumFeatureCount = premiumFeatureCount(resp)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("analytics cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return resp, false, nil
}

type baseMetrics struct {
	viewCount    int
	projects     []models.Project
	applications []models.Application
}

func (s *AnalyticsService) fetchBase(ctx context.Context, userID string, since time.Time) (*baseMetrics, error) {
	base := &baseMetrics{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.repo.CountProfileViews(gctx, userID, since)
		if err != nil {
			return err
		}
		base.viewCount = count
		return nil
	})
	g.Go(func() error {
		projects, err := s.repo.ListProjectsByOwner(gctx, userID)
		if err != nil {
			return err
		}
		base.projects = projects
		return nil
	})
	g.Go(func() error {
		applications, err := s.repo.ListApplications(gctx, userID, since)
		if err != nil {
			return err
		}
		base.applications = applications
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return base, nil
}

type premiumMetrics struct {
	views        []models.ProfileView
	interest     models.RecruiterInterestCounts
	competencies []models.Competency
	careerPaths  *models.SkillPathRecommendation
	placements   []models.Placement
}

func (s *AnalyticsService) fetchPremium(ctx context.Context, userID string, since time.Time, skills []dto.SkillScoreEntry) (*premiumMetrics, error) {
	premium := &premiumMetrics{}

	marketSkills := skills
	if len(marketSkills) > maxMarketSkills {
		marketSkills = marketSkills[:maxMarketSkills]
	}
	names := make([]string, len(marketSkills))
	for i, skill := range marketSkills {
		names[i] = skill.Name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		views, err := s.repo.ListProfileViews(gctx, userID, since)
		if err != nil {
			return err
		}
		premium.views = views
		return nil
	})
	g.Go(func() error {
		interest, err := s.repo.RecruiterInterestCounts(gctx, userID, since)
		if err != nil {
			return err
		}
		premium.interest = interest
		return nil
	})
	g.Go(func() error {
		competencies, err := s.repo.CompetencyDemand(gctx, names)
		if err != nil {
			return err
		}
		premium.competencies = competencies
		return nil
	})
	g.Go(func() error {
		rec, err := s.repo.CareerPathRecommendation(gctx, userID)
		if err != nil {
			return err
		}
		premium.careerPaths = rec
		return nil
	})
	g.Go(func() error {
		placements, err := s.repo.ConfirmedPlacements(gctx, salaryCurrency)
		if err != nil {
			return err
		}
		premium.placements = placements
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return premium, nil
}

func (s *AnalyticsService) assemblePremium(resp *dto.StudentAnalyticsResponse, policy TierPolicy, base *baseMetrics, premium *premiumMetrics, skills []dto.SkillScoreEntry, statusCounts map[models.ApplicationStatus]int, since, now time.Time) {
	resp.Engagement = buildEngagement(premium.views, since, now)
	resp.IndustryInterest = buildIndustryInterest(premium.views)

	if policy.HasApplicationFunnel {
		resp.ApplicationFunnel = buildFunnel(len(base.applications), statusCounts)
	}
	if policy.HasApplicationTrends {
		resp.ApplicationTrends = buildApplicationTrends(base.applications, since, now)
	}
	if policy.HasRecruiterInterest {
		resp.RecruiterInterest = &dto.RecruiterInterest{
			SavedByRecruiters: premium.interest.SavedByRecruiters,
			ContactRequests:   premium.interest.ContactRequests,
			MessagesReceived:  premium.interest.MessagesReceived,
		}
	}
	if policy.HasSkillsVsMarket {
		resp.SkillsVsMarket = s.buildSkillsVsMarket(skills, premium.competencies)
	}
	if policy.HasProjectPerformance {
		resp.ProjectPerformance = buildProjectPerformance(base.projects)
	}
	if policy.HasCareerReadiness && premium.careerPaths != nil {
		resp.CareerReadiness = buildCareerReadiness(premium.careerPaths)
	}
	if policy.HasSalaryContext {
		resp.SalaryContext = buildSalaryContext(premium.placements)
	}
}

// scoreSkills derives leveled skill tags from a user's projects. A tag first
// seen starts at level 40 and gains 10 per further project, then each
// project's complexity adds round(score/10) to all of its tags, both capped
// at 100. The result is the top 15 by level, name ascending on ties.
func scoreSkills(projects []models.Project) []dto.SkillScoreEntry {
	type acc struct {
		level        int
		projectCount int
	}
	levels := make(map[string]*acc)
	tagSets := make([][]string, len(projects))

	for i, project := range projects {
		seen := make(map[string]struct{})
		tags := make([]string, 0, len(project.Skills)+len(project.Technologies))
		for _, tag := range append(append([]string{}, project.Skills...), project.Technologies...) {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
		tagSets[i] = tags

		for _, tag := range tags {
			entry, ok := levels[tag]
			if !ok {
				levels[tag] = &acc{level: 40, projectCount: 1}
				continue
			}
			entry.level = capLevel(entry.level + 10)
			entry.projectCount++
		}
	}

	for i, project := range projects {
		if project.ComplexityScore == nil {
			continue
		}
		bonus := int(math.Round(*project.ComplexityScore / 10))
		for _, tag := range tagSets[i] {
			entry := levels[tag]
			entry.level = capLevel(entry.level + bonus)
		}
	}

	entries := make([]dto.SkillScoreEntry, 0, len(levels))
	for name, entry := range levels {
		entries = append(entries, dto.SkillScoreEntry{
			Name:         name,
			Level:        entry.level,
			ProjectCount: entry.projectCount,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Level == entries[j].Level {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Level > entries[j].Level
	})
	if len(entries) > maxTopSkills {
		entries = entries[:maxTopSkills]
	}
	return entries
}

func capLevel(level int) int {
	if level > 100 {
		return 100
	}
	return level
}

func skillScore(skills []dto.SkillScoreEntry) int {
	if len(skills) == 0 {
		return 0
	}
	sum := 0
	for _, skill := range skills {
		sum += skill.Level
	}
	return int(math.Round(float64(sum) / float64(len(skills))))
}

func countStatuses(applications []models.Application) map[models.ApplicationStatus]int {
	counts := make(map[models.ApplicationStatus]int)
	for _, app := range applications {
		counts[app.Status]++
	}
	return counts
}

func buildEngagement(views []models.ProfileView, since, now time.Time) *dto.Engagement {
	buckets := monthBuckets(since, now)
	index := make(map[string]int, len(buckets))
	monthly := make([]dto.MonthlyViews, len(buckets))
	for i, month := range buckets {
		index[month] = i
		monthly[i] = dto.MonthlyViews{Month: month}
	}

	companies := make(map[string]int)
	durationSum := 0
	durationCount := 0
	for _, view := range views {
		label := view.CreatedAt.Format("Jan 2006")
		if i, ok := index[label]; ok {
			monthly[i].Views++
		}
		if view.ViewerCompany != nil && *view.ViewerCompany != "" {
			companies[*view.ViewerCompany]++
		}
		if view.ViewDuration != nil {
			durationSum += *view.ViewDuration
			durationCount++
		}
	}

	engagement := &dto.Engagement{
		MonthlyViews: monthly,
		TopCompanies: topCompanies(companies, maxTopCompanies),
	}
	if durationCount > 0 {
		engagement.AvgViewDuration = float64(durationSum) / float64(durationCount)
	}
	return engagement
}

// monthBuckets enumerates "Jan 2006" labels for every calendar month from
// the window start through the current month, inclusive.
func monthBuckets(since, now time.Time) []string {
	var months []string
	cursor := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, since.Location())
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for !cursor.After(end) {
		months = append(months, cursor.Format("Jan 2006"))
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}

func topCompanies(counts map[string]int, limit int) []dto.CompanyViews {
	entries := make([]dto.CompanyViews, 0, len(counts))
	for company, views := range counts {
		entries = append(entries, dto.CompanyViews{Company: company, Views: views})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Views == entries[j].Views {
			return entries[i].Company < entries[j].Company
		}
		return entries[i].Views > entries[j].Views
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// funnelStages is the fixed pipeline order. Never reordered by count.
var funnelStages = []struct {
	label  string
	status models.ApplicationStatus
}{
	{"Applied", ""},
	{"Reviewing", models.ApplicationReviewing},
	{"Shortlisted", models.ApplicationShortlisted},
	{"Interview", models.ApplicationInterview},
	{"Offer", models.ApplicationOffer},
	{"Accepted", models.ApplicationAccepted},
}

func buildFunnel(total int, statusCounts map[models.ApplicationStatus]int) []dto.FunnelStage {
	funnel := make([]dto.FunnelStage, 0, len(funnelStages))
	for _, stage := range funnelStages {
		count := total
		if stage.status != "" {
			count = statusCounts[stage.status]
		}
		funnel = append(funnel, dto.FunnelStage{Stage: stage.label, Count: count})
	}
	return funnel
}

func buildApplicationTrends(applications []models.Application, since, now time.Time) []dto.MonthlyApplications {
	buckets := monthBuckets(since, now)
	index := make(map[string]int, len(buckets))
	trends := make([]dto.MonthlyApplications, len(buckets))
	for i, month := range buckets {
		index[month] = i
		trends[i] = dto.MonthlyApplications{Month: shortMonth(month)}
	}
	for _, app := range applications {
		label := app.CreatedAt.Format("Jan 2006")
		if i, ok := index[label]; ok {
			trends[i].Applications++
		}
	}
	return trends
}

func shortMonth(label string) string {
	if i := strings.IndexByte(label, ' '); i > 0 {
		return label[:i]
	}
	return label
}

func (s *AnalyticsService) buildSkillsVsMarket(skills []dto.SkillScoreEntry, competencies []models.Competency) []dto.SkillMarketComparison {
	demand := make(map[string]int, len(competencies))
	for _, competency := range competencies {
		if competency.IndustryDemand != nil {
			demand[strings.ToLower(competency.Name)] = *competency.IndustryDemand
		}
	}

	limit := len(skills)
	if limit > maxMarketSkills {
		limit = maxMarketSkills
	}
	comparisons := make([]dto.SkillMarketComparison, 0, limit)
	for _, skill := range skills[:limit] {
		marketDemand, ok := demand[strings.ToLower(skill.Name)]
		if !ok {
			// No reference row: synthesized pseudo-demand in [30,70].
			marketDemand = 30 + s.randInt(41)
		}
		comparisons = append(comparisons, dto.SkillMarketComparison{
			Skill:        skill.Name,
			YourLevel:    skill.Level,
			MarketDemand: marketDemand,
		})
	}
	return comparisons
}

func buildProjectPerformance(projects []models.Project) []dto.ProjectPerformance {
	sorted := make([]models.Project, len(projects))
	copy(sorted, projects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Views > sorted[j].Views
	})
	if len(sorted) > maxPerformanceEntries {
		sorted = sorted[:maxPerformanceEntries]
	}

	performance := make([]dto.ProjectPerformance, 0, len(sorted))
	for _, project := range sorted {
		performance = append(performance, dto.ProjectPerformance{
			Title:           project.Title,
			Views:           project.Views,
			RecruiterViews:  project.RecruiterViews,
			ComplexityScore: project.ComplexityScore,
			Impact:          impactTier(project),
		})
	}
	return performance
}

func impactTier(project models.Project) string {
	complexity := 0.0
	if project.ComplexityScore != nil {
		complexity = *project.ComplexityScore
	}
	switch {
	case project.Views > 100 || complexity > 70:
		return "High Impact"
	case project.Views > 30 || complexity > 40:
		return "Medium Impact"
	default:
		return "Entry Level"
	}
}

func buildCareerReadiness(rec *models.SkillPathRecommendation) []dto.CareerPath {
	paths := rec.CareerPaths
	if len(paths) > maxCareerPaths {
		paths = paths[:maxCareerPaths]
	}
	readiness := make([]dto.CareerPath, 0, len(paths))
	for _, path := range paths {
		readiness = append(readiness, dto.CareerPath{Title: path.Title, MatchScore: path.MatchScore})
	}
	return readiness
}

func buildIndustryInterest(views []models.ProfileView) []dto.IndustryInterest {
	counts := make(map[string]int)
	for _, view := range views {
		if view.ViewerCompany != nil && *view.ViewerCompany != "" {
			counts[*view.ViewerCompany]++
		}
	}
	top := topCompanies(counts, maxIndustrySlices)
	slices := make([]dto.IndustryInterest, 0, len(top))
	for i, entry := range top {
		slices = append(slices, dto.IndustryInterest{
			Industry: entry.Company,
			Views:    entry.Views,
			Color:    industryPalette[i%len(industryPalette)],
		})
	}
	return slices
}

// buildSalaryContext bands annualized EUR placements by nearest-rank
// percentiles. Returns nil below the minimum sample size.
func buildSalaryContext(placements []models.Placement) *dto.SalaryContext {
	annualized := make([]float64, 0, len(placements))
	for _, placement := range placements {
		switch placement.SalaryPeriod {
		case "monthly":
			annualized = append(annualized, placement.SalaryAmount*12)
		case "hourly":
			annualized = append(annualized, placement.SalaryAmount*2080)
		case "yearly":
			annualized = append(annualized, placement.SalaryAmount)
		}
	}
	if len(annualized) < minSalarySamples {
		return nil
	}
	sort.Float64s(annualized)

	p25 := percentile(annualized, 0.25)
	p50 := percentile(annualized, 0.50)
	p75 := percentile(annualized, 0.75)

	return &dto.SalaryContext{
		EntryLevel:  int(math.Round(p25)),
		MidLevel:    int(math.Round(p50)),
		SeniorLevel: int(math.Round(p75)),
		Range:       fmt.Sprintf("€%dk - €%dk", int(math.Round(p25/1000)), int(math.Round(p75/1000))),
		SampleSize:  len(annualized),
		Currency:    salaryCurrency,
	}
}

// percentile implements nearest-rank selection over a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func echoPolicy(policy TierPolicy) dto.TierLimits {
	return dto.TierLimits{
		MaxTimeRange:          policy.MaxTimeRange,
		HasEngagement:         policy.HasEngagement,
		HasApplicationFunnel:  policy.HasApplicationFunnel,
		HasApplicationTrends:  policy.HasApplicationTrends,
		HasRecruiterInterest:  policy.HasRecruiterInterest,
		HasSkillsVsMarket:     policy.HasSkillsVsMarket,
		HasProjectPerformance: policy.HasProjectPerformance,
		HasCareerReadiness:    policy.HasCareerReadiness,
		HasSalaryContext:      policy.HasSalaryContext,
	}
}

// premiumFeatureCount counts the non-null flag-gated fields. Industry
// interest rides the overall gate but has no flag of its own, so it is not
// counted here.
func premiumFeatureCount(resp *dto.StudentAnalyticsResponse) int {
	count := 0
	if resp.Engagement != nil {
		count++
	}
	if resp.ApplicationFunnel != nil {
		count++
	}
	if resp.ApplicationTrends != nil {
		count++
	}
	if resp.RecruiterInterest != nil {
		count++
	}
	if resp.SkillsVsMarket != nil {
		count++
	}
	if resp.ProjectPerformance != nil {
		count++
	}
	if resp.CareerReadiness != nil {
		count++
	}
	if resp.SalaryContext != nil {
		count++
	}
	return count
}
