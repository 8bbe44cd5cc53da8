package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"qrbatch/internal/http/handlers"
	"qrbatch/internal/middleware"
)

// Options carries the transport settings that are not handler dependencies.
type Options struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	Metrics         stdhttp.Handler
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	if opts.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.Health)

		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/process", app.Process)

		r.Route("/download", func(r chi.Router) {
			r.Get("/", app.ListOutputs)
			r.Post("/batch", app.DownloadBatch)
			r.Get("/{filename}", app.DownloadFile)
		})
	})

	return r
}
