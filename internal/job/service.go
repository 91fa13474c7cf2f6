package job

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/cache"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/job/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/job/repo"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
)

// Service handles job posting ingest and reads. Single postings are cached
// read-through when a cache is configured; cache failures never fail a call.
type Service struct {
	repo   repo.Store
	cache  *cache.Cache
	logger *zap.SugaredLogger
}

func NewService(r repo.Store, c *cache.Cache, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, cache: c, logger: logger}
}

func cacheKey(id uuid.UUID) string { return cache.Key("job", id) }

func normalize(j *entity.JobPosting) *entity.JobPosting {
	if j.RequiredSkills == nil {
		j.RequiredSkills = []string{}
	}
	return j
}

// Upsert stores the posting keyed by URL and drops any cached copy.
func (s *Service) Upsert(ctx context.Context, req entity.UpsertRequest) (*entity.JobPosting, error) {
	if !req.Platform.Valid() {
		return nil, apperror.BadRequest("platform must be one of: upwork, freelancer")
	}
	j := req.Posting()
	if err := s.repo.Upsert(ctx, j); err != nil {
		return nil, err
	}
	if s.cache.Enabled() {
		if err := s.cache.Delete(ctx, cacheKey(j.ID)); err != nil {
			s.logger.Warnw("job cache invalidate failed", "job_id", j.ID, "err", err)
		}
	}
	s.logger.Debugw("job posting upserted", "job_id", j.ID, "url", j.URL)
	return normalize(j), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.JobPosting, error) {
	key := cacheKey(id)
	if s.cache.Enabled() {
		var cached entity.JobPosting
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return normalize(&cached), nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warnw("job cache read failed", "job_id", id, "err", err)
		}
	}

	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.NotFound("Job posting not found")
		}
		return nil, err
	}
	normalize(j)
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, j, 0); err != nil {
			s.logger.Warnw("job cache write failed", "job_id", id, "err", err)
		}
	}
	return j, nil
}

func (s *Service) List(ctx context.Context, skip, limit int) ([]entity.JobPosting, error) {
	jobs, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		normalize(&jobs[i])
	}
	return jobs, nil
}
