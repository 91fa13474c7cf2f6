package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/application/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/application/repo"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
)

// Service manages a user's job applications. Every call is scoped to the
// calling user; other users' applications look like missing ones.
type Service struct {
	repo   repo.Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(r repo.Store, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, logger: logger, now: time.Now}
}

func errNotFound() error { return apperror.NotFound("Application not found") }

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req entity.CreateRequest) (*entity.Application, error) {
	status := entity.StatusDrafted
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperror.BadRequest("invalid status")
		}
		status = *req.Status
	}
	a := &entity.Application{
		UserID:          userID,
		JobPostingID:    req.JobPostingID,
		Status:          status,
		ProposalContent: req.ProposalContent,
		BidAmount:       req.BidAmount,
		Milestones:      database.JSONList(req.Milestones),
		SubmittedAt:     req.SubmittedAt,
	}
	if status == entity.StatusSubmitted && a.SubmittedAt == nil {
		now := s.now().UTC()
		a.SubmittedAt = &now
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		if errors.Is(err, repo.ErrJobNotFound) {
			return nil, apperror.NotFound("Job posting not found")
		}
		return nil, err
	}
	s.logger.Debugw("application created", "application_id", a.ID, "user_id", userID, "job_posting_id", a.JobPostingID)
	return a, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, f entity.ListFilter) ([]entity.Application, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, apperror.BadRequest("invalid status")
	}
	return s.repo.ListForUser(ctx, userID, f)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Application, error) {
	a, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, err
	}
	return a, nil
}

// Update applies upd. Moving to submitted stamps submitted_at with the
// current time; any other change keeps the stored value.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, upd entity.ApplicationUpdate) (*entity.Application, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, apperror.BadRequest("invalid status")
	}
	var out *entity.Application
	err := s.repo.InTx(ctx, func(tx repo.Store) error {
		cur, err := tx.FindForUser(ctx, userID, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound()
			}
			return err
		}
		submittedAt := cur.SubmittedAt
		if upd.Status != nil && *upd.Status == entity.StatusSubmitted {
			now := s.now().UTC()
			submittedAt = &now
		}
		out, err = tx.Update(ctx, id, upd, submittedAt)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.DeleteForUser(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return errNotFound()
	}
	s.logger.Debugw("application deleted", "application_id", id, "user_id", userID)
	return nil
}
