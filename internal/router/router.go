package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/application"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/job"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/httpx"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/kv"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/utilities"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything the HTTP surface needs. Nil handlers are not mounted.
type Deps struct {
	Config config.Config
	DB     Pinger
	Redis  *redis.Client
	IDs    *utilities.IDGenerator

	Auth         *auth.Handler
	Users        *user.Handler
	Jobs         *job.Handler
	Applications *application.Handler
}

// RegisterRoutes mounts every endpoint on a ServeMux and wraps it with the
// middleware chain: recovery, request id, access log, security headers, CORS.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	mux := http.NewServeMux()
	prefix := d.Config.APIPrefix

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"message":     "Welcome to " + d.Config.ProjectName,
			"version":     d.Config.Version,
			"environment": d.Config.Environment,
		})
	})

	h := &health{db: d.DB, redis: d.Redis}
	mux.HandleFunc("GET "+prefix+"/health", h.check)
	mux.HandleFunc("GET "+prefix+"/health/live", h.live)
	mux.HandleFunc("GET "+prefix+"/health/ready", h.ready)

	if d.Auth != nil {
		d.Auth.Routes(mux, prefix)
	}
	if d.Users != nil {
		d.Users.Routes(mux, prefix)
	}
	if d.Jobs != nil {
		d.Jobs.Routes(mux, prefix)
	}
	if d.Applications != nil {
		d.Applications.Routes(mux, prefix)
	}

	var handler http.Handler = mux
	handler = CORSMiddleware(d.Config.CORSOrigins)(handler)
	handler = SecurityHeadersMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware(d.IDs)(handler)
	handler = RecoveryMiddleware(logger)(handler)
	return handler
}

type health struct {
	db    Pinger
	redis *redis.Client
}

func timestamp() string { return time.Now().UTC().Format(time.RFC3339) }

func (h *health) check(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "timestamp": timestamp()})
}

func (h *health) live(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "alive", "timestamp": timestamp()})
}

// ready reports dependency connectivity. Only the database is required;
// Redis is optional and merely reported.
func (h *health) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	database := "disconnected"
	if h.db != nil && h.db.PingContext(ctx) == nil {
		database = "connected"
	} else {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	redisState := "disconnected"
	if kv.Ping(ctx, h.redis) {
		redisState = "connected"
	}
	httpx.WriteJSON(w, code, map[string]string{
		"status":    status,
		"database":  database,
		"redis":     redisState,
		"timestamp": timestamp(),
	})
}
