package job

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/job/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/httpx"
)

// Handler exposes the job posting endpoints. They are public: postings are
// pushed by scrapers without user credentials.
type Handler struct {
	svc          *Service
	logger       *zap.SugaredLogger
	defaultLimit int
	maxLimit     int
}

func NewHandler(svc *Service, logger *zap.SugaredLogger, defaultLimit, maxLimit int) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (h *Handler) Routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/jobs", h.Upsert)
	mux.HandleFunc("GET "+prefix+"/jobs", h.List)
	mux.HandleFunc("GET "+prefix+"/jobs/{id}", h.Get)
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req entity.UpsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	j, err := h.svc.Upsert(r.Context(), req)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, j)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r, h.defaultLimit, h.maxLimit)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	jobs, err := h.svc.List(r.Context(), page.Skip, page.Limit)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, jobs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(h.logger, w, r, apperror.BadRequest("invalid job id"))
		return
	}
	j, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, j)
}
