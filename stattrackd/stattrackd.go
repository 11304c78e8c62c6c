// Package stattrackd is the StatTrack API server: it accepts
// heartbeat batches from editor plugins and maintains the derived
// session and daily summary tables.
package stattrackd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/xerrors"

	"cdr.dev/slog/v3"
	"github.com/ymohit1603/StatTrack-Backend-sub000/buildinfo"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/httpapi"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/httpmw"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/ingest"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/sessionkey"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattracksdk"
)

// Options are the required parameters for the API to start.
type Options struct {
	Logger   slog.Logger
	Database database.Store

	// SessionKeySecret signs and verifies session tokens. Tokens are
	// issued by the account system, which shares this secret.
	SessionKeySecret []byte
	// SessionKeyTTL overrides how long resolved credentials are
	// cached. Zero means the default (1 hour).
	SessionKeyTTL time.Duration
	// IngestChunkSize overrides the bulk insert chunk size.
	IngestChunkSize int
	// APIRateLimit is the minutely request limit per session token.
	// Setting it <0 disables the limiter.
	APIRateLimit       int
	PrometheusRegistry *prometheus.Registry
}

// API contains the route handlers and the pipeline they drive.
type API struct {
	*Options

	Handler  http.Handler
	ingestor *ingest.Ingestor
	resolver sessionkey.Resolver
}

// New constructs the StatTrack API into an HTTP handler.
func New(options *Options) (*API, error) {
	if options.Database == nil {
		return nil, xerrors.Errorf("database is required")
	}
	if len(options.SessionKeySecret) == 0 {
		return nil, xerrors.Errorf("session key secret is required")
	}
	if options.APIRateLimit == 0 {
		options.APIRateLimit = 512
	}
	if options.PrometheusRegistry == nil {
		options.PrometheusRegistry = prometheus.NewRegistry()
	}

	cacheOpts := []sessionkey.CacheOption{}
	if options.SessionKeyTTL > 0 {
		cacheOpts = append(cacheOpts, sessionkey.WithTTL(options.SessionKeyTTL))
	}
	resolver := sessionkey.NewCache(
		sessionkey.NewVerifier(options.Database, options.SessionKeySecret),
		cacheOpts...,
	)

	ingestOpts := []ingest.Option{
		ingest.WithLogger(options.Logger.Named("ingest")),
		ingest.WithRegisterer(options.PrometheusRegistry),
	}
	if options.IngestChunkSize > 0 {
		ingestOpts = append(ingestOpts, ingest.WithChunkSize(options.IngestChunkSize))
	}
	ingestor, err := ingest.New(options.Database, resolver, ingestOpts...)
	if err != nil {
		return nil, xerrors.Errorf("create ingestor: %w", err)
	}

	api := &API{
		Options:  options,
		ingestor: ingestor,
		resolver: resolver,
	}

	sessionTokenMiddleware := httpmw.ExtractSessionToken(httpmw.ExtractSessionTokenConfig{
		Resolver: resolver,
	})

	r := chi.NewRouter()
	r.Use(debugLogRequest(options.Logger))
	r.Route("/api/v1", func(r chi.Router) {
		r.NotFound(func(rw http.ResponseWriter, r *http.Request) {
			httpapi.Write(r.Context(), rw, http.StatusNotFound, stattracksdk.Response{
				Message: "Route not found.",
			})
		})
		if options.APIRateLimit > 0 {
			r.Use(httprate.Limit(options.APIRateLimit, time.Minute,
				httprate.WithKeyFuncs(sessionTokenKey, httprate.KeyByIP),
			))
		}
		r.Get("/buildinfo", func(rw http.ResponseWriter, r *http.Request) {
			httpapi.Write(r.Context(), rw, http.StatusOK, stattracksdk.BuildInfoResponse{
				ExternalURL: buildinfo.ExternalURL(),
				Version:     buildinfo.Version(),
			})
		})
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			options.PrometheusRegistry, promhttp.HandlerOpts{},
		))
		r.Route("/users/me", func(r chi.Router) {
			// The heartbeat route resolves the credential itself: the
			// ingest pipeline owns resolution so a cache hit covers
			// every chunk of the batch.
			r.Post("/heartbeats", api.postHeartbeats)
			r.Group(func(r chi.Router) {
				r.Use(sessionTokenMiddleware)
				r.Get("/summaries", api.dailySummaries)
			})
		})
	})
	api.Handler = r

	return api, nil
}

func (api *API) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	api.Handler.ServeHTTP(rw, r)
}

// sessionTokenKey rate-limits per credential so one misbehaving
// plugin cannot starve other users behind the same NAT.
func sessionTokenKey(r *http.Request) (string, error) {
	return httpmw.SessionTokenFromRequest(r), nil
}

func debugLogRequest(log slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			log.Debug(context.Background(), fmt.Sprintf("%s %s", r.Method, r.URL.Path))
			next.ServeHTTP(rw, r)
		})
	}
}
