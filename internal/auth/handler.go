package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/httpx"
)

type Handler struct {
	svc    *Service
	guard  *Guard
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, guard *Guard, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, guard: guard, logger: logger}
}

// Routes mounts the auth endpoints under prefix.
func (h *Handler) Routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/auth/register", h.Register)
	mux.HandleFunc("POST "+prefix+"/auth/login", h.Login)
	mux.HandleFunc("POST "+prefix+"/auth/refresh", h.Refresh)
	mux.Handle("POST "+prefix+"/auth/logout", h.guard.RequireAuth(http.HandlerFunc(h.Logout)))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

// Login takes form fields username and password; username may be an email.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(h.logger, w, r, apperror.BadRequest("invalid form"))
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		httpx.WriteError(h.logger, w, r, apperror.BadRequest("username and password are required"))
		return
	}
	pair, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// Logout ends the caller's login session named by session_id.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if err := h.svc.Logout(r.Context(), IdentityFrom(r.Context()).UserID, req.SessionID); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, true)
}
