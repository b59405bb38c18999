package models

import (
	"time"

	"github.com/google/uuid"
)

// URLCheckResponse reports whether a URL is already stored
type URLCheckResponse struct {
	URL         string     `json:"url"`
	IsCrawled   bool       `json:"is_crawled"`
	JobID       *uuid.UUID `json:"job_id"`
	CrawledTime *time.Time `json:"crawled_time"`
}

// CompanyResponse is returned after a company deposit
type CompanyResponse struct {
	CompanyID uuid.UUID `json:"company_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
}

// JobPostingResponse is returned after a job posting deposit
type JobPostingResponse struct {
	JobID       uuid.UUID `json:"job_id"`
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	CrawledTime time.Time `json:"crawled_time"`
}

// BenefitResponse is returned after a benefit deposit
type BenefitResponse struct {
	BenefitID int64  `json:"benefit_id"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
}

// DeleteResponse is returned by every delete endpoint
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatsResponse carries row counts for each table
type StatsResponse struct {
	TotalJobPostings int64 `json:"total_job_postings"`
	TotalCompanies   int64 `json:"total_companies"`
	TotalBenefits    int64 `json:"total_benefits"`
}

// RootResponse is served on GET /
type RootResponse struct {
	Message string `json:"message"`
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
