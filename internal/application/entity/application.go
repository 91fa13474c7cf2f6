package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
)

// Status is the application lifecycle state.
type Status string

const (
	StatusDrafted     Status = "drafted"
	StatusApproved    Status = "approved"
	StatusSubmitted   Status = "submitted"
	StatusInterviewed Status = "interviewed"
	StatusWon         Status = "won"
	StatusLost        Status = "lost"
)

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.Valid()
}

func (s Status) Valid() bool {
	switch s {
	case StatusDrafted, StatusApproved, StatusSubmitted, StatusInterviewed, StatusWon, StatusLost:
		return true
	}
	return false
}

// Application is a user's proposal for a job posting.
type Application struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	UserID          uuid.UUID         `db:"user_id" json:"user_id"`
	JobPostingID    uuid.UUID         `db:"job_posting_id" json:"job_posting_id"`
	Status          Status            `db:"status" json:"status"`
	ProposalContent string            `db:"proposal_content" json:"proposal_content"`
	BidAmount       *float64          `db:"bid_amount" json:"bid_amount"`
	Milestones      database.JSONList `db:"milestones" json:"milestones"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
	SubmittedAt     *time.Time        `db:"submitted_at" json:"submitted_at"`
}

type CreateRequest struct {
	JobPostingID    uuid.UUID  `json:"job_posting_id" validate:"required"`
	ProposalContent string     `json:"proposal_content" validate:"required"`
	BidAmount       *float64   `json:"bid_amount" validate:"omitempty,gte=0"`
	Milestones      []any      `json:"milestones"`
	Status          *Status    `json:"status"`
	SubmittedAt     *time.Time `json:"submitted_at"`
}

// ApplicationUpdate lists the mutable fields; nil leaves a field unchanged.
type ApplicationUpdate struct {
	Status          *Status  `json:"status"`
	ProposalContent *string  `json:"proposal_content" validate:"omitempty,min=1"`
	BidAmount       *float64 `json:"bid_amount" validate:"omitempty,gte=0"`
	Milestones      []any    `json:"milestones"`
}

// ListFilter narrows and orders a user's applications.
type ListFilter struct {
	Status    *Status
	Ascending bool
	Offset    int
	Limit     int
}
