package handlers

import (
	"net/http"

	"coffeescraper/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterOptions configures the middleware around the routes.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      float64
}

// NewRouter wires the report and API routes behind logging, rate limiting
// and CORS.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/report", h.GetReport).Methods("GET")
	r.HandleFunc("/report.xlsx", h.GetSpreadsheet).Methods("GET")

	// API routes live on the root router so a wrong method yields 405.
	limit := func(next http.HandlerFunc) http.Handler { return next }
	if opts.RateLimit > 0 {
		limiter := middleware.RateLimitMiddleware(opts.RateLimit)
		limit = func(next http.HandlerFunc) http.Handler { return limiter(next) }
	}
	r.Handle("/api/v1/prices", limit(h.GetPrices)).Methods("GET")
	r.Handle("/api/v1/difference", limit(h.GetDifference)).Methods("GET")
	r.Handle("/api/v1/status", limit(h.GetStatus)).Methods("GET")
	r.Handle("/api/v1/runs", limit(h.TriggerRun)).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
