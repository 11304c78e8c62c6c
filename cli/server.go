package cli

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/serpent"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/xerrors"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"

	"github.com/ymohit1603/StatTrack-Backend-sub000/buildinfo"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/migrations"
)

func (*RootCmd) server() *serpent.Command {
	var (
		httpAddress     string
		postgresURL     string
		sessionSecret   string
		chunkSize       int64
		apiRateLimit    int64
		sessionCacheTTL time.Duration
		verbose         bool
	)
	cmd := &serpent.Command{
		Use:   "server",
		Short: "Start the StatTrack heartbeat ingestion server",
		Options: serpent.OptionSet{
			{
				Flag:        "http-address",
				Env:         "STATTRACK_HTTP_ADDRESS",
				Description: "HTTP bind address of the server.",
				Default:     "127.0.0.1:3000",
				Value:       serpent.StringOf(&httpAddress),
			},
			{
				Flag:        "postgres-url",
				Env:         "STATTRACK_PG_CONNECTION_URL",
				Description: "URL of a PostgreSQL database.",
				Value:       serpent.StringOf(&postgresURL),
				Required:    true,
			},
			{
				Flag:        "session-secret",
				Env:         "STATTRACK_SESSION_SECRET",
				Description: "Secret used to verify session token signatures.",
				Value:       serpent.StringOf(&sessionSecret),
				Required:    true,
			},
			{
				Flag:        "ingest-chunk-size",
				Env:         "STATTRACK_INGEST_CHUNK_SIZE",
				Description: "Number of heartbeats persisted per database round-trip.",
				Default:     "1000",
				Value:       serpent.Int64Of(&chunkSize),
			},
			{
				Flag:        "api-rate-limit",
				Env:         "STATTRACK_API_RATE_LIMIT",
				Description: "Maximum requests per minute per credential. Negative values disable the limit.",
				Default:     "512",
				Value:       serpent.Int64Of(&apiRateLimit),
			},
			{
				Flag:        "session-cache-ttl",
				Env:         "STATTRACK_SESSION_CACHE_TTL",
				Description: "How long verified session credentials stay cached.",
				Default:     "1h",
				Value:       serpent.DurationOf(&sessionCacheTTL),
			},
			{
				Flag:          "verbose",
				FlagShorthand: "v",
				Env:           "STATTRACK_VERBOSE",
				Description:   "Enable debug logging.",
				Value:         serpent.BoolOf(&verbose),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			ctx, stop := signal.NotifyContext(inv.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := slog.Make(sloghuman.Sink(inv.Stderr))
			if verbose {
				logger = logger.Leveled(slog.LevelDebug)
			}

			sqlDB, err := sql.Open("postgres", postgresURL)
			if err != nil {
				return xerrors.Errorf("open postgres: %w", err)
			}
			defer sqlDB.Close()

			pingCtx, pingCancel := context.WithTimeout(ctx, 15*time.Second)
			err = sqlDB.PingContext(pingCtx)
			pingCancel()
			if err != nil {
				return xerrors.Errorf("ping postgres: %w", err)
			}

			err = migrations.Up(sqlDB)
			if err != nil {
				return xerrors.Errorf("migrate database: %w", err)
			}

			api, err := stattrackd.New(&stattrackd.Options{
				Logger:             logger,
				Database:           database.New(sqlDB),
				SessionKeySecret:   []byte(sessionSecret),
				SessionKeyTTL:      sessionCacheTTL,
				IngestChunkSize:    int(chunkSize),
				APIRateLimit:       int(apiRateLimit),
				PrometheusRegistry: prometheus.NewRegistry(),
			})
			if err != nil {
				return xerrors.Errorf("create api: %w", err)
			}

			listener, err := net.Listen("tcp", httpAddress)
			if err != nil {
				return xerrors.Errorf("listen on %q: %w", httpAddress, err)
			}
			defer listener.Close()

			server := &http.Server{
				Handler:           api,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Serve(listener)
			}()

			logger.Info(ctx, "started stattrackd",
				slog.F("version", buildinfo.Version()),
				slog.F("address", listener.Addr().String()),
			)

			select {
			case <-ctx.Done():
				logger.Info(ctx, "shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				err = server.Shutdown(shutdownCtx)
				if err != nil {
					return xerrors.Errorf("shutdown server: %w", err)
				}
				return nil
			case err = <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return xerrors.Errorf("serve http: %w", err)
			}
		},
	}
	return cmd
}
