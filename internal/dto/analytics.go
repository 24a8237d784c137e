package dto

// Overview is the always-present base metrics block.
type Overview struct {
	TotalProfileViews int `json:"totalProfileViews"`
	TotalProjects     int `json:"totalProjects"`
	TotalApplications int `json:"totalApplications"`
	SkillScore        int `json:"skillScore"`
}

// SkillScoreEntry is one scored skill tag.
type SkillScoreEntry struct {
	Name         string `json:"name"`
	Level        int    `json:"level"`
	ProjectCount int    `json:"projectCount"`
}

// MonthlyViews is one calendar-month engagement bucket.
type MonthlyViews struct {
	Month string `json:"month"`
	Views int    `json:"views"`
}

// CompanyViews counts profile views from one company.
type CompanyViews struct {
	Company string `json:"company"`
	Views   int    `json:"views"`
}

// Engagement is the premium profile-view breakdown.
type Engagement struct {
	MonthlyViews    []MonthlyViews `json:"monthlyViews"`
	TopCompanies    []CompanyViews `json:"topCompanies"`
	AvgViewDuration float64        `json:"avgViewDuration"`
}

// FunnelStage is one named stage of the application funnel. Order of the
// stages is fixed by the pipeline, not by count.
type FunnelStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// MonthlyApplications is one calendar-month application bucket.
type MonthlyApplications struct {
	Month        string `json:"month"`
	Applications int    `json:"applications"`
}

// RecruiterInterest counts recruiter actions toward the student in-window.
type RecruiterInterest struct {
	SavedByRecruiters int `json:"savedByRecruiters"`
	ContactRequests   int `json:"contactRequests"`
	MessagesReceived  int `json:"messagesReceived"`
}

// SkillMarketComparison pairs a student skill level with market demand.
type SkillMarketComparison struct {
	Skill        string `json:"skill"`
	YourLevel    int    `json:"yourLevel"`
	MarketDemand int    `json:"marketDemand"`
}

// ProjectPerformance is one project with its impact tier.
type ProjectPerformance struct {
	Title           string   `json:"title"`
	Views           int      `json:"views"`
	RecruiterViews  int      `json:"recruiterViews"`
	ComplexityScore *float64 `json:"complexityScore"`
	Impact          string   `json:"impact"`
}

// CareerPath is one recommended career direction.
type CareerPath struct {
	Title      string  `json:"title"`
	MatchScore float64 `json:"matchScore"`
}

// IndustryInterest is one industry slice of recruiter attention, colored
// for direct chart rendering.
type IndustryInterest struct {
	Industry string `json:"industry"`
	Views    int    `json:"views"`
	Color    string `json:"color"`
}

// SalaryContext is the anonymized platform-wide salary banding.
type SalaryContext struct {
	EntryLevel  int    `json:"entryLevel"`
	MidLevel    int    `json:"midLevel"`
	SeniorLevel int    `json:"seniorLevel"`
	Range       string `json:"range"`
	SampleSize  int    `json:"sampleSize"`
	Currency    string `json:"currency"`
}

// TierLimits echoes the resolved tier policy so clients can explain
// which features are gated.
type TierLimits struct {
	MaxTimeRange          string `json:"maxTimeRange"`
	HasEngagement         bool   `json:"hasEngagement"`
	HasApplicationFunnel  bool   `json:"hasApplicationFunnel"`
	HasApplicationTrends  bool   `json:"hasApplicationTrends"`
	HasRecruiterInterest  bool   `json:"hasRecruiterInterest"`
	HasSkillsVsMarket     bool   `json:"hasSkillsVsMarket"`
	HasProjectPerformance bool   `json:"hasProjectPerformance"`
	HasCareerReadiness    bool   `json:"hasCareerReadiness"`
	HasSalaryContext      bool   `json:"hasSalaryContext"`
}

// StudentAnalyticsResponse is the full analytics payload. Every key is
// always present; premium fields are null when the tier does not permit
// them or their preconditions are unmet, so clients branch on null rather
// than on key presence.
type StudentAnalyticsResponse struct {
	Overview Overview          `json:"overview"`
	Skills   []SkillScoreEntry `json:"skills"`

	Engagement         *Engagement             `json:"engagement"`
	ApplicationFunnel  []FunnelStage           `json:"applicationFunnel"`
	ApplicationTrends  []MonthlyApplications   `json:"applicationTrends"`
	RecruiterInterest  *RecruiterInterest      `json:"recruiterInterest"`
	SkillsVsMarket     []SkillMarketComparison `json:"skillsVsMarket"`
	ProjectPerformance []ProjectPerformance    `json:"projectPerformance"`
	CareerReadiness    []CareerPath            `json:"careerReadiness"`
	IndustryInterest   []IndustryInterest      `json:"industryInterest"`
	SalaryContext      *SalaryContext          `json:"salaryContext"`

	IsLimited           bool       `json:"isLimited"`
	TierLimits          TierLimits `json:"tierLimits"`
	PremiumFeatureCount int        `json:"premiumFeatureCount"`
}
