package models

import (
	"time"

	"github.com/google/uuid"
)

// URLCheckRequest asks whether a URL has already been crawled.
// url must be present; the empty string is a valid value.
type URLCheckRequest struct {
	URL *string `json:"url" validate:"required"`
}

// CompanyRequest represents the payload for depositing a company.
// Every field is optional; company_name is the upsert key.
type CompanyRequest struct {
	CompanyName *string `json:"company_name"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

// JobPostingRequest represents the payload for depositing a job posting.
// url is the upsert key. pay_period, work_type and experience_level are
// stored verbatim; out-of-vocabulary values are accepted.
type JobPostingRequest struct {
	CompanyID       *uuid.UUID `json:"company_id" validate:"required"`
	JobTitle        *string    `json:"job_title"`
	Description     *string    `json:"description"`
	Salary          *int       `json:"salary"`
	PayPeriod       *string    `json:"pay_period"`       // hourly, monthly, yearly
	WorkType        *string    `json:"work_type"`        // fulltime, parttime, contract, seasonal
	ExperienceLevel *string    `json:"experience_level"` // intern, fresher, junior, senior, executive
	Location        *string    `json:"location"`
	Applies         *int       `json:"applies"`
	ListedTime      *time.Time `json:"listed_time"`
	Currency        *string    `json:"currency"`
	Platform        *string    `json:"platform"`
	URL             *string    `json:"url"`
}

// BenefitRequest represents the payload for depositing a benefit
type BenefitRequest struct {
	JobID    *uuid.UUID `json:"job_id" validate:"required"`
	Type     *string    `json:"type"`
	Inferred *string    `json:"inferred"`
}
