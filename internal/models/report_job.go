package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Report job lifecycle states.
const (
	ReportStatusQueued     = "QUEUED"
	ReportStatusProcessing = "PROCESSING"
	ReportStatusFinished   = "FINISHED"
	ReportStatusFailed     = "FAILED"
)

// ReportTypeStudentAnalytics is the only export type currently supported.
const ReportTypeStudentAnalytics = "student_analytics"

// ReportJobParams is the jsonb parameter blob stored alongside a job.
type ReportJobParams struct {
	UserID    string `json:"userId"`
	TimeRange string `json:"timeRange"`
	Tier      string `json:"tier"`
	Format    string `json:"format"`
}

// Value implements driver.Valuer.
func (p ReportJobParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *ReportJobParams) Scan(src interface{}) error {
	if src == nil {
		*p = ReportJobParams{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported report params scan type %T", src)
	}
	return json.Unmarshal(data, p)
}

// ReportJob is an asynchronous analytics export request.
type ReportJob struct {
	ID          string          `db:"id"`
	RequestedBy string          `db:"requested_by"`
	Type        string          `db:"type"`
	Params      ReportJobParams `db:"params"`
	Status      string          `db:"status"`
	FilePath    *string         `db:"file_path"`
	ErrorText   *string         `db:"error_text"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	FinishedAt  *time.Time      `db:"finished_at"`
}
