package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chatwidgets/internal/feedback"
	"chatwidgets/internal/handlers"
	"chatwidgets/internal/service"
)

// SubmitPath is where the feedback page posts ratings.
const SubmitPath = "/api/feedback"

// Deps holds dependencies for the HTTP router.
type Deps struct {
	FeedbackService service.FeedbackService
	RenderService   service.RenderService
	TokenIssuer     handlers.TokenIssuer
	TokenValidator  service.TokenValidator
	HealthChecks    map[string]handlers.HealthCheck
	// AdminAPIKey guards the feedback listing; empty disables it.
	AdminAPIKey string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	// Add CORS middleware
	r.Use(CORS)

	// Create handlers
	tokenHandler := handlers.NewTokenHandler(deps.TokenIssuer)
	pageHandler := handlers.NewFeedbackPageHandler(deps.TokenValidator, SubmitPath)
	submitHandler := handlers.NewSubmitFeedbackHandler(deps.FeedbackService)
	listHandler := handlers.NewListFeedbackHandler(deps.FeedbackService)
	renderHandler := handlers.NewRenderHandler(deps.RenderService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	// Token endpoint and embed document live at the chat page's origin
	r.Method(http.MethodGet, feedback.TokenPath, tokenHandler)
	r.With(EmbedHeaders).Method(http.MethodGet, feedback.EmbedPath, pageHandler)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.With(EmbedHeaders).Method(http.MethodPost, "/feedback", submitHandler)
		r.With(RequireAPIKey(deps.AdminAPIKey)).Method(http.MethodGet, "/projects/{projectID}/feedback", listHandler)
		r.Method(http.MethodPost, "/render", renderHandler)
	})

	return r
}
