package user

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/httpx"
)

// Handler exposes the user and admin endpoints.
type Handler struct {
	svc          *UserService
	guard        *auth.Guard
	logger       *zap.SugaredLogger
	defaultLimit int
	maxLimit     int
}

func NewHandler(svc *UserService, guard *auth.Guard, logger *zap.SugaredLogger, defaultLimit, maxLimit int) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, guard: guard, logger: logger, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (h *Handler) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle("GET "+prefix+"/users/me", h.guard.RequireAuth(http.HandlerFunc(h.Me)))
	mux.Handle("PATCH "+prefix+"/users/me", h.guard.RequireAuth(http.HandlerFunc(h.UpdateMe)))
	mux.Handle("GET "+prefix+"/users", h.guard.RequireAuth(http.HandlerFunc(h.List)))
	mux.Handle("GET "+prefix+"/users/{id}", h.guard.RequireAuth(http.HandlerFunc(h.Get)))

	mux.Handle("GET "+prefix+"/admin/users", h.guard.RequireAdmin(http.HandlerFunc(h.ListAll)))
	mux.Handle("PATCH "+prefix+"/admin/users/{id}/role", h.guard.RequireAdmin(http.HandlerFunc(h.UpdateRole)))
	mux.Handle("PATCH "+prefix+"/admin/users/{id}/activate", h.guard.RequireAdmin(http.HandlerFunc(h.SetActive)))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(h.logger, w, r, err)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperror.BadRequest("invalid user id")
	}
	return id, nil
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), auth.IdentityFrom(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateMeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.UpdateMe(r.Context(), auth.IdentityFrom(r.Context()).UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r, h.defaultLimit, h.maxLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	users, err := h.svc.List(r.Context(), page.Skip, page.Limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

// UpdateRole takes the new role from the role query parameter.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	role, err := entity.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		h.fail(w, r, apperror.BadRequest("role must be one of: user, admin"))
		return
	}
	u, err := h.svc.UpdateRole(r.Context(), id, role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// SetActive takes the flag from the is_active query parameter.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	active, err := strconv.ParseBool(r.URL.Query().Get("is_active"))
	if err != nil {
		h.fail(w, r, apperror.BadRequest("is_active must be true or false"))
		return
	}
	u, err := h.svc.SetActive(r.Context(), id, active)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}
