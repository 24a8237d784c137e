package service

import (
	"fmt"
	"strconv"

	"github.com/intransparency/platform-api/internal/dto"
	"github.com/intransparency/platform-api/pkg/export"
)

// ExportService renders an analytics payload into downloadable documents.
type ExportService struct {
	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// NewExportService constructs an ExportService.
func NewExportService() *ExportService {
	return &ExportService{
		csv: export.NewCSVExporter(),
		pdf: export.NewPDFExporter(),
	}
}

// Render produces the document bytes for the requested format.
func (s *ExportService) Render(analytics *dto.StudentAnalyticsResponse, format string) ([]byte, error) {
	dataset := analyticsDataset(analytics)
	switch format {
	case "csv":
		return s.csv.Render(dataset)
	case "pdf":
		return s.pdf.Render(dataset, "Student Analytics Report")
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// analyticsDataset flattens the payload into section/metric/value rows so a
// single tabular renderer covers both formats.
func analyticsDataset(analytics *dto.StudentAnalyticsResponse) export.Dataset {
	dataset := export.Dataset{Headers: []string{"Section", "Metric", "Value"}}
	add := func(section, metric, value string) {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Section": section,
			"Metric":  metric,
			"Value":   value,
		})
	}

	add("Overview", "Profile Views", strconv.Itoa(analytics.Overview.TotalProfileViews))
	add("Overview", "Projects", strconv.Itoa(analytics.Overview.TotalProjects))
	add("Overview", "Applications", strconv.Itoa(analytics.Overview.TotalApplications))
	add("Overview", "Skill Score", strconv.Itoa(analytics.Overview.SkillScore))

	for _, skill := range analytics.Skills {
		add("Skills", skill.Name, fmt.Sprintf("level %d across %d projects", skill.Level, skill.ProjectCount))
	}

	if analytics.Engagement != nil {
		for _, bucket := range analytics.Engagement.MonthlyViews {
			add("Engagement", bucket.Month, strconv.Itoa(bucket.Views))
		}
		for _, company := range analytics.Engagement.TopCompanies {
			add("Top Companies", company.Company, strconv.Itoa(company.Views))
		}
		add("Engagement", "Avg View Duration", fmt.Sprintf("%.1fs", analytics.Engagement.AvgViewDuration))
	}

	for _, stage := range analytics.ApplicationFunnel {
		add("Funnel", stage.Stage, strconv.Itoa(stage.Count))
	}
	for _, bucket := range analytics.ApplicationTrends {
		add("Application Trends", bucket.Month, strconv.Itoa(bucket.Applications))
	}

	if analytics.RecruiterInterest != nil {
		add("Recruiter Interest", "Saved By Recruiters", strconv.Itoa(analytics.RecruiterInterest.SavedByRecruiters))
		add("Recruiter Interest", "Contact Requests", strconv.Itoa(analytics.RecruiterInterest.ContactRequests))
		add("Recruiter Interest", "Messages Received", strconv.Itoa(analytics.RecruiterInterest.MessagesReceived))
	}

	for _, comparison := range analytics.SkillsVsMarket {
		add("Skills vs Market", comparison.Skill, fmt.Sprintf("you %d / market %d", comparison.YourLevel, comparison.MarketDemand))
	}
	for _, project := range analytics.ProjectPerformance {
		add("Project Performance", project.Title, fmt.Sprintf("%s (%d views)", project.Impact, project.Views))
	}
	for _, path := range analytics.CareerReadiness {
		add("Career Readiness", path.Title, fmt.Sprintf("%.0f%% match", path.MatchScore*100))
	}
	for _, slice := range analytics.IndustryInterest {
		add("Industry Interest", slice.Industry, strconv.Itoa(slice.Views))
	}

	if analytics.SalaryContext != nil {
		add("Salary Context", "Entry Level", strconv.Itoa(analytics.SalaryContext.EntryLevel))
		add("Salary Context", "Mid Level", strconv.Itoa(analytics.SalaryContext.MidLevel))
		add("Salary Context", "Senior Level", strconv.Itoa(analytics.SalaryContext.SeniorLevel))
		add("Salary Context", "Range", analytics.SalaryContext.Range)
	}

	return dataset
}
