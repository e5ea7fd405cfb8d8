// Package httpapi assembles the booth's HTTP surface.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"photobooth/internal/http/handlers"
	"photobooth/internal/middleware"
)

// Options configures the router beyond the handler container itself.
type Options struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	StaticDir       string
}

// NewRouter builds the chi router: public booth endpoints, PIN-gated admin
// endpoints, and the local photo archive under /static.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(opts.Logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/photos", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.TransformPhoto)
		} else {
			r.Post("/", app.TransformPhoto)
		}
		r.Get("/status", app.PhotoStatus)
	})

	r.Route("/v1/gallery", func(r chi.Router) {
		r.Get("/", app.GalleryList)
		r.Delete("/{id}", app.GalleryDelete)
	})

	r.Route("/v1/settings", func(r chi.Router) {
		r.Get("/", app.SettingsGet)
		r.Put("/", app.SettingsUpdate)
	})

	r.Route("/v1/concepts", func(r chi.Router) {
		r.Get("/", app.ConceptsList)
		r.Put("/", app.ConceptsUpdate)
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
