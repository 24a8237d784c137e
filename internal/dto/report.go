package dto

import "time"

// CreateReportRequest enqueues an analytics export.
type CreateReportRequest struct {
	Type      string `json:"type" binding:"required,oneof=student_analytics"`
	TimeRange string `json:"timeRange" binding:"omitempty,oneof=1month 3months 6months 1year"`
	Format    string `json:"format" binding:"required,oneof=csv pdf"`
}

// ReportJobResponse is the job status view returned to clients.
type ReportJobResponse struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	DownloadURL *string    `json:"downloadUrl,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}
