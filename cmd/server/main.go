package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	natsclient "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/technosupport/foe-be-gone/internal/cameras"
	"github.com/technosupport/foe-be-gone/internal/capture"
	"github.com/technosupport/foe-be-gone/internal/config"
	"github.com/technosupport/foe-be-gone/internal/cryptostore"
	"github.com/technosupport/foe-be-gone/internal/detection"
	"github.com/technosupport/foe-be-gone/internal/detector/fixturedetector"
	"github.com/technosupport/foe-be-gone/internal/deterrent"
	"github.com/technosupport/foe-be-gone/internal/diagnostics"
	"github.com/technosupport/foe-be-gone/internal/effectiveness"
	"github.com/technosupport/foe-be-gone/internal/eventbus"
	"github.com/technosupport/foe-be-gone/internal/eventjournal"
	"github.com/technosupport/foe-be-gone/internal/platform/paths"
	"github.com/technosupport/foe-be-gone/internal/ratelimit"
	"github.com/technosupport/foe-be-gone/internal/settings"
	"github.com/technosupport/foe-be-gone/internal/store"
	"github.com/technosupport/foe-be-gone/internal/worker"

	_ "github.com/technosupport/foe-be-gone/internal/cameras/dummyadapter"
	_ "github.com/technosupport/foe-be-gone/internal/cameras/rtspadapter"
	_ "github.com/technosupport/foe-be-gone/internal/cameras/unifiadapter"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.Warn().Err(err).Msg("sentry init failed, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := paths.EnsureDirs(cfg.DataRoot); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directories")
	}

	db, err := store.Open(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	keyring := cryptostore.NewKeyring()
	if err := keyring.LoadFromEnv(); err != nil {
		log.Warn().Err(err).Msg("credential keyring unavailable, sealed integration configs will not be decrypted")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal := eventjournal.NewService(db.DB, log)
	eventjournal.ConfigureFailover("", 0) // defaults: os.TempDir()/foe-be-gone spool, 256MB cap
	journal.StartReplayer(ctx)

	var events worker.EventPublisher
	if nc, err := natsclient.Connect(cfg.NATSURL, natsclient.Name("foe-be-gone")); err != nil {
		log.Warn().Err(err).Msg("nats connect failed, event bus publishing disabled")
	} else {
		defer nc.Close()
		events = eventbus.NewPublisher(nc, cfg.NATSSubject, 3)
	}

	fs := afero.NewOsFs()
	diag := diagnostics.NewTracker()

	settingsAcc := settings.New(store.SettingsRepo{DB: db.DB})

	limiter := ratelimit.NewLimiter(ratelimit.Config{Rate: 1, Burst: 2})

	cameraRepo := store.CameraRepo{DB: db.DB}
	integrationRepo := store.IntegrationRepo{DB: db.DB}
	detectionRepo := store.DetectionRepo{DB: db.DB}
	foeRepo := store.FoeRepo{DB: db.DB}
	actionRepo := store.DeterrentActionRepo{DB: db.DB}

	registry := cameras.NewRegistry(cameraRepo, diag, log).WithUnsealer(keyring)
	snapshotter := capture.NewSnapshotter(registry, limiter, diag, log)
	videoCap := capture.NewVideoCapturer(fs, paths.VideosDir(cfg.DataRoot), cfg.FFmpegBinary, log)
	sweeper := capture.NewSweeper(fs, paths.VideosDir(cfg.DataRoot), settingsAcc.SnapshotRetentionDays, log)
	sweeper.Start(ctx)

	hashes := detection.NewHashStore(rdb)
	det := fixturedetector.AlwaysEmpty()
	pipeline := detection.NewPipeline(fs, hashes, det, settingsAcc, detectionRepo, foeRepo, paths.SnapshotsDir(cfg.DataRoot), log)

	reporter := effectiveness.NewReporter(db.DB)
	tracker := effectiveness.NewTracker(db, log)
	selector := deterrent.NewSelector(reporter, reporter, settingsAcc.DeterrentEpsilon, func() int { return time.Now().Hour() })
	player := deterrent.NewPlayer(fs, paths.SoundsDir(cfg.DataRoot), log)

	w := worker.New(worker.Dependencies{
		Registry:     registry,
		Integrations: integrationRepo,
		Snapshotter:  snapshotter,
		Pipeline:     pipeline,
		VideoCap:     videoCap,
		Player:       player,
		Selector:     selector,
		Tracker:      tracker,
		Detections:   detectionRepo,
		Foes:         foeRepo,
		Actions:      actionRepo,
		Detector:     det,
		Settings:     settingsAcc,
		Events:       events,
		Journal:      journal,
		Log:          log,
	})
	w.Start(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/stats/{pest}", func(rw http.ResponseWriter, req *http.Request) {
		pest := store.FoeKind(chi.URLParam(req, "pest"))
		summary, err := reporter.Summary(req.Context(), pest)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(rw, summary)
	})

	srv := &http.Server{Addr: cfg.OpsListenAddr, Handler: r}
	go func() {
		log.Info().Str("addr", cfg.OpsListenAddr).Msg("ops http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("ops http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops http server shutdown error")
	}

	log.Info().Msg("stopped")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
