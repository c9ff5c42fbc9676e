package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-transcoder/internal/database"
	"media-transcoder/internal/events"
	"media-transcoder/internal/handlers"
	"media-transcoder/internal/jobs"
	"media-transcoder/internal/logging"
	"media-transcoder/internal/memory"
	"media-transcoder/internal/metrics"
	"media-transcoder/internal/middleware"
	"media-transcoder/internal/probe"
	"media-transcoder/internal/process"
	"media-transcoder/internal/redisstore"
	"media-transcoder/internal/startup"
	"media-transcoder/internal/storage"
	"media-transcoder/internal/transcoder"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = 15 * time.Second
	initTimeout       = 30 * time.Second
)

// persister is a jobs.Persister that can be probed and closed.
type persister interface {
	jobs.Persister
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	// Job store
	storeStart := time.Now()
	persist, err := newPersister(ctx, config)
	if err != nil {
		startup.LogFatal("Failed to initialize job store: %v", err)
	}
	store := jobs.NewStore(persist)

	// Artifact storage
	local := storage.NewLocal(config.InputDir, config.OutputDir)
	artifacts, err := newStorage(ctx, config, local)
	if err != nil {
		closeQuietly("job store", persist)
		startup.LogFatal("Failed to initialize artifact storage: %v", err)
	}

	// Job events
	publisher := newPublisher(config)

	// Transcoder
	startup.LogTranscoderInit(config.FFmpegPath, config.FFprobePath)
	spawner := process.Exec{}
	prober := probe.New(config.FFprobePath, spawner)
	trans := transcoder.New(transcoder.Config{
		FFmpegPath:     config.FFmpegPath,
		OutputDir:      config.OutputDir,
		FontPaths:      config.FontPaths,
		CaptureWorkers: config.CaptureWorkers,
	}, transcoder.Deps{
		Store:   store,
		Storage: artifacts,
		Spawner: spawner,
		Prober:  prober,
		Events:  publisher,
	})

	recovered, err := trans.Recover(ctx)
	if err != nil {
		closeQuietly("job store", persist)
		startup.LogFatal("Failed to recover jobs: %v", err)
	}
	startup.LogStoreInit(persist.Name(), time.Since(storeStart), recovered)
	if config.MinioEnabled() {
		startup.LogStorageInit(true, storage.MinioScheme+config.MinioBucket)
	} else {
		startup.LogStorageInit(false, config.OutputDir)
	}
	startup.LogEventsInit(config.KafkaEnabled(), topicOrDefault(config.KafkaTopic))

	// Metrics collector
	collector := metrics.NewCollector(store, collectorInterval)
	if db, ok := persist.(metrics.DBStatsUpdater); ok {
		collector.TrackDatabase(db)
	}
	collector.Start()

	// HTTP
	h := handlers.New(handlers.Deps{
		Transcoder: trans,
		Storage:    artifacts,
		Outputs:    local,
		Prober:     prober,
		Ready:      persist.Ping,
		Backend:    persist.Name(),
	})
	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks, config.APIKeyHash != "")

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	srv := newServer(":"+config.Port, handler)

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(":" + config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, trans, collector, persist, publisher)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	// Wait for handleShutdown to finish closing backends.
	<-shutdownDone
}

var shutdownDone = make(chan struct{})

func newPersister(ctx context.Context, config *startup.Config) (persister, error) {
	switch config.StoreBackend {
	case startup.BackendRedis:
		store, err := redisstore.New(ctx, redisstore.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case startup.BackendSQLite:
		db, err := database.New(ctx, config.DatabasePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.StoreBackend)
	}
}

func newStorage(ctx context.Context, config *startup.Config, local *storage.Local) (storage.Store, error) {
	if !config.MinioEnabled() {
		return local, nil
	}
	return storage.NewMinio(ctx, storage.MinioConfig{
		Endpoint:   config.MinioEndpoint,
		AccessKey:  config.MinioAccessKey,
		SecretKey:  config.MinioSecretKey,
		Bucket:     config.MinioBucket,
		UseSSL:     config.MinioUseSSL,
		ScratchDir: config.ScratchDir,
	}, local)
}

func newPublisher(config *startup.Config) events.Publisher {
	if !config.KafkaEnabled() {
		return events.Noop{}
	}
	return events.NewKafka(config.KafkaBrokers, config.KafkaTopic)
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return events.DefaultTopic
	}
	return topic
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	h.Register(r)

	// Route-aware middleware runs after matching
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	r.Use(middleware.APIKey(middleware.DefaultAPIKeyConfig(config.APIKeyHash)))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}` + "\n"))
	})

	return r
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Output downloads can be large
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
}

func newMetricsServer(addr string) *http.Server {
	serveMux := http.NewServeMux()
	serveMux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           serveMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

type closer interface {
	Close() error
}

func closeQuietly(name string, c closer) {
	if err := c.Close(); err != nil {
		logging.Warn("Failed to close %s: %v", name, err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, trans *transcoder.Transcoder, collector *metrics.Collector, persist persister, publisher events.Publisher) {
	defer close(shutdownDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Cancelling running jobs")
	if err := trans.Shutdown(ctx); err != nil {
		logging.Warn("Transcoder shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Running jobs cancelled")
	}

	collector.Stop()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	closeQuietly("event publisher", publisher)
	closeQuietly("job store", persist)
	startup.LogShutdownStepComplete("Backends closed")

	startup.LogShutdownComplete()
}
