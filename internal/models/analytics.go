package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ProfileView records a single recruiter visit to a student profile.
type ProfileView struct {
	ID            string    `db:"id"`
	ViewedUserID  string    `db:"viewed_user_id"`
	ViewerID      *string   `db:"viewer_id"`
	ViewerCompany *string   `db:"viewer_company"`
	ViewDuration  *int      `db:"view_duration"`
	CreatedAt     time.Time `db:"created_at"`
}

// Project is a student portfolio project.
type Project struct {
	ID              string         `db:"id"`
	OwnerID         string         `db:"owner_id"`
	Title           string         `db:"title"`
	Skills          pq.StringArray `db:"skills"`
	Technologies    pq.StringArray `db:"technologies"`
	Views           int            `db:"views"`
	RecruiterViews  int            `db:"recruiter_views"`
	ComplexityScore *float64       `db:"complexity_score"`
	CreatedAt       time.Time      `db:"created_at"`
}

// ApplicationStatus enumerates the job-application pipeline stages.
type ApplicationStatus string

const (
	ApplicationApplied     ApplicationStatus = "APPLIED"
	ApplicationReviewing   ApplicationStatus = "REVIEWING"
	ApplicationShortlisted ApplicationStatus = "SHORTLISTED"
	ApplicationInterview   ApplicationStatus = "INTERVIEW"
	ApplicationOffer       ApplicationStatus = "OFFER"
	ApplicationAccepted    ApplicationStatus = "ACCEPTED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
	ApplicationWithdrawn   ApplicationStatus = "WITHDRAWN"
)

// Application is a job application submitted by a student.
type Application struct {
	ID          string            `db:"id"`
	ApplicantID string            `db:"applicant_id"`
	JobTitle    string            `db:"job_title"`
	Company     string            `db:"company"`
	Status      ApplicationStatus `db:"status"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

// Competency is a market-demand score for a skill, refreshed by an external
// ingestion pipeline.
type Competency struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	IndustryDemand *int      `db:"industry_demand"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// CareerPathMatch is one recommended career direction with a fit score.
type CareerPathMatch struct {
	Title      string  `json:"title"`
	MatchScore float64 `json:"matchScore"`
}

// CareerPathList is a jsonb column of career path matches.
type CareerPathList []CareerPathMatch

// Value implements driver.Valuer.
func (l CareerPathList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *CareerPathList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported career path scan type %T", src)
	}
	return json.Unmarshal(data, l)
}

// SkillPathRecommendation is the cached output of the career-path engine
// for one student.
type SkillPathRecommendation struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	CareerPaths CareerPathList `db:"career_paths"`
	ComputedAt  time.Time      `db:"computed_at"`
}

// Placement is a confirmed hire with compensation details. Salary figures
// feed the anonymized market context and are never exposed per-row.
type Placement struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	JobTitle        string    `db:"job_title"`
	CompanyIndustry *string   `db:"company_industry"`
	SalaryAmount    float64   `db:"salary_amount"`
	SalaryPeriod    string    `db:"salary_period"`
	Currency        string    `db:"currency"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
}

// RecruiterInterestCounts aggregates recruiter actions toward one student
// within a time window.
type RecruiterInterestCounts struct {
	SavedByRecruiters int `db:"saved_by_recruiters"`
	ContactRequests   int `db:"contact_requests"`
	MessagesReceived  int `db:"messages_received"`
}
