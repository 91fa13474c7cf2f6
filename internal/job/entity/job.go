package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
)

// Platform is the marketplace a posting was scraped from.
type Platform string

const (
	PlatformUpwork     Platform = "upwork"
	PlatformFreelancer Platform = "freelancer"
)

func (p Platform) Valid() bool { return p == PlatformUpwork || p == PlatformFreelancer }

// JobPosting represents a row in the job_postings table. URL is the natural key.
type JobPosting struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	Platform       Platform            `db:"platform" json:"platform"`
	JobTitle       string              `db:"job_title" json:"job_title"`
	Description    string              `db:"description" json:"description"`
	Budget         *float64            `db:"budget" json:"budget"`
	RequiredSkills database.StringList `db:"required_skills" json:"required_skills"`
	URL            string              `db:"url" json:"url"`
	ExtractedAt    *time.Time          `db:"extracted_at" json:"extracted_at"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}

// UpsertRequest is the ingest payload.
type UpsertRequest struct {
	Platform       Platform   `json:"platform" validate:"required,oneof=upwork freelancer"`
	JobTitle       string     `json:"job_title" validate:"required,max=500"`
	Description    string     `json:"description" validate:"required"`
	Budget         *float64   `json:"budget" validate:"omitempty,gte=0"`
	RequiredSkills []string   `json:"required_skills" validate:"required"`
	URL            string     `json:"url" validate:"required,url"`
	ExtractedAt    *time.Time `json:"extracted_at"`
}

func (r UpsertRequest) Posting() *JobPosting {
	return &JobPosting{
		Platform:       r.Platform,
		JobTitle:       r.JobTitle,
		Description:    r.Description,
		Budget:         r.Budget,
		RequiredSkills: database.StringList(r.RequiredSkills),
		URL:            r.URL,
		ExtractedAt:    r.ExtractedAt,
	}
}
