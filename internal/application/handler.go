package application

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/application/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/httpx"
)

type Handler struct {
	svc          *Service
	guard        *auth.Guard
	logger       *zap.SugaredLogger
	defaultLimit int
	maxLimit     int
}

func NewHandler(svc *Service, guard *auth.Guard, logger *zap.SugaredLogger, defaultLimit, maxLimit int) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, guard: guard, logger: logger, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Routes mounts the application endpoints; all of them require a caller.
func (h *Handler) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle("POST "+prefix+"/applications", h.guard.RequireAuth(http.HandlerFunc(h.Create)))
	mux.Handle("GET "+prefix+"/applications", h.guard.RequireAuth(http.HandlerFunc(h.List)))
	mux.Handle("GET "+prefix+"/applications/{id}", h.guard.RequireAuth(http.HandlerFunc(h.Get)))
	mux.Handle("PUT "+prefix+"/applications/{id}", h.guard.RequireAuth(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE "+prefix+"/applications/{id}", h.guard.RequireAuth(http.HandlerFunc(h.Delete)))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(h.logger, w, r, err)
}

func caller(r *http.Request) uuid.UUID { return auth.IdentityFrom(r.Context()).UserID }

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperror.BadRequest("invalid application id")
	}
	return id, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.svc.Create(r.Context(), caller(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

// List accepts skip, limit, status and sort=asc|desc (default desc).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r, h.defaultLimit, h.maxLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	f := entity.ListFilter{Offset: page.Skip, Limit: page.Limit}
	if v := q.Get("status"); v != "" {
		st, ok := entity.ParseStatus(v)
		if !ok {
			h.fail(w, r, apperror.BadRequest("invalid status"))
			return
		}
		f.Status = &st
	}
	switch q.Get("sort") {
	case "", "desc":
	case "asc":
		f.Ascending = true
	default:
		h.fail(w, r, apperror.BadRequest("sort must be asc or desc"))
		return
	}
	apps, err := h.svc.List(r.Context(), caller(r), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, apps)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.svc.Get(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var upd entity.ApplicationUpdate
	if err := httpx.DecodeJSON(r, &upd); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.svc.Update(r.Context(), caller(r), id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), caller(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, true)
}
