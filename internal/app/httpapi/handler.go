// Package httpapi exposes the application services over HTTP.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	app "github.com/hackcrew/service_layer/internal/app"
	"github.com/hackcrew/service_layer/internal/errors"
	internalhttputil "github.com/hackcrew/service_layer/internal/httputil"
	"github.com/hackcrew/service_layer/internal/logging"
	"github.com/hackcrew/service_layer/internal/middleware"
)

// Config controls the middleware around the routes.
type Config struct {
	Logger *logging.Logger
	// Tokens validates bearer tokens. Nil disables authentication entirely.
	Tokens      middleware.TokenParser
	RequireAuth bool
	CORSOrigins []string
	// RateLimiter is optional.
	RateLimiter *middleware.RateLimiter
	Version     string
	// Probes report dependency health on /health. A failing probe marks the
	// service degraded.
	Probes map[string]Probe
}

// publicPaths never require a token.
var publicPaths = []string{
	"/", "/health", "/info", "/metrics",
	"/auth/signup", "/auth/login", "/auth/refresh",
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app     *app.Application
	log     *logging.Logger
	version string
	started time.Time
	probes  map[string]Probe
}

// NewHandler returns the routed API wrapped in the middleware chain: logging,
// recovery, CORS, rate limiting, then authentication.
func NewHandler(application *app.Application, cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDefault("httpapi")
	}
	h := &handler{
		app:     application,
		log:     cfg.Logger,
		version: cfg.Version,
		started: time.Now(),
		probes:  cfg.Probes,
	}

	var root http.Handler = h.routes()
	if cfg.Tokens != nil {
		root = middleware.NewAuthMiddleware(cfg.Tokens, cfg.Logger, publicPaths, cfg.RequireAuth).Handler(root)
	}
	if cfg.RateLimiter != nil {
		root = cfg.RateLimiter.Handler(root)
	}
	root = middleware.NewCORSMiddleware(cfg.CORSOrigins).Handler(root)
	root = middleware.NewRecoveryMiddleware(cfg.Logger).Handler(root)
	return middleware.LoggingMiddleware(cfg.Logger)(root)
}

func (h *handler) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware())
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalhttputil.WriteServiceError(w, r, errors.NotFound("route"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalhttputil.WriteErrorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/info", h.info).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", h.signup).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)

	project := r.PathPrefix("/project").Subrouter()
	project.HandleFunc("/create", h.createProject).Methods(http.MethodPost)
	project.HandleFunc("/problem-statement", h.setProblemStatement).Methods(http.MethodPost)
	project.HandleFunc("/stage", h.updateStage).Methods(http.MethodPatch)
	project.HandleFunc("/user-projects", h.userProjects).Methods(http.MethodGet)
	project.HandleFunc("/ideation-stage", h.saveIdeation).Methods(http.MethodPost)
	project.HandleFunc("/ideation/qna", h.saveQnA).Methods(http.MethodPost)
	project.HandleFunc("/{project_id}/problem-statement", h.problemStatement).Methods(http.MethodGet)
	project.HandleFunc("/{project_id}/team-members", h.teamMembers).Methods(http.MethodGet)

	team := r.PathPrefix("/team").Subrouter()
	team.HandleFunc("/createTeam", h.createTeam).Methods(http.MethodPost)
	team.HandleFunc("/add-member", h.addMember).Methods(http.MethodPost)

	r.HandleFunc("/user/profile", h.profileSummary).Methods(http.MethodPost)
	r.HandleFunc("/user/profile/create", h.upsertProfile).Methods(http.MethodPost)
	r.HandleFunc("/profile/", h.createProfile).Methods(http.MethodPost)

	r.HandleFunc("/ideation/qna/{project_id}", h.generateQnA).Methods(http.MethodGet)
	r.HandleFunc("/prd/generate-prd/{project_id}", h.generatePRD).Methods(http.MethodGet)
	r.HandleFunc("/prd/{project_id}", h.storedPRD).Methods(http.MethodGet)
	r.HandleFunc("/research/{project_id}/todo", h.researchTodo).Methods(http.MethodGet)
	r.HandleFunc("/research/{project_id}/research-overview", h.researchOverview).Methods(http.MethodGet)
	r.HandleFunc("/generation/{kind}/{project_id}/status", h.generationStatus).Methods(http.MethodGet)

	r.HandleFunc("/uploadPdf/upload/{project_id}/{user_id}", h.uploadPDF).Methods(http.MethodPost)
	r.HandleFunc("/uploadPdf/view/{project_id}/{user_id}", h.viewPDF).Methods(http.MethodGet)

	r.HandleFunc("/exploreApi/api/hackathons/search", h.searchHackathons).Methods(http.MethodPost)
	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	internalhttputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	internalhttputil.WriteServiceError(w, r, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := internalhttputil.DecodeJSON(w, r, dst); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

// pathVar returns a trimmed route variable.
func pathVar(r *http.Request, name string) string {
	return strings.TrimSpace(mux.Vars(r)[name])
}

type messageResponse struct {
	Message string `json:"message"`
}
