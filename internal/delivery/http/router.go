package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

// RouterConfig carries the collaborators NewRouter wires into the mux.
type RouterConfig struct {
	Logger         *slog.Logger
	Events         *controllers.EventController
	Verifier       domain.TokenVerifier
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes. Every API route
// requires a Bearer token; the whole mux is wrapped with request logging and CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	// Events
	mux.Handle("POST /events", protected(cfg.Events.CreateEvent))
	mux.Handle("GET /events", protected(cfg.Events.ListEvents))
	mux.Handle("GET /events/{eventID}", protected(cfg.Events.GetEvent))
	mux.Handle("PATCH /events/{eventID}", protected(cfg.Events.UpdateEvent))
	mux.Handle("DELETE /events/{eventID}", protected(cfg.Events.DeleteEvent))
	mux.Handle("GET /events/{eventID}/calendar.ics", protected(cfg.Events.ExportCalendar))
	mux.Handle("GET /locations", protected(cfg.Events.ListLocations))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.Chain(mux,
		middleware.Logging(cfg.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)
}
