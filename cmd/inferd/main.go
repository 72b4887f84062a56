package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdnotify "github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"inferd/internal/broker"
	"inferd/internal/config"
	"inferd/internal/httpapi"
	"inferd/internal/registry"
	"inferd/pkg/types"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("INFERD_ADDR"); v != "" {
		defaultAddr = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	cfgPath := flag.String("config", "", "Path to a yaml/json/toml config file")
	modelsDir := flag.String("models-dir", "", "Directory to scan for *.weights.json model files")
	defaultObject := flag.String("default-object", "", "Default object name when request omits one")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	warmup := flag.Bool("warmup", true, "Instantiate all registered objects before serving")
	flag.Parse()

	var cfg config.Config
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", *cfgPath, err)
		}
		cfg = loaded
	}
	// Flags override file values only when the file left them empty.
	if cfg.Addr == "" {
		cfg.Addr = *addr
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = *modelsDir
	}
	if cfg.DefaultObject == "" {
		cfg.DefaultObject = *defaultObject
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = *logLevel
	}

	logger := newLogger(cfg.LogLevel)
	httpapi.SetLogger(logger)
	if cfg.MaxBodyBytes > 0 {
		httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	}

	specs := append([]types.ObjectSpec(nil), cfg.Objects...)
	if cfg.ModelsDir != "" {
		scanned, err := registry.LoadDir(cfg.ModelsDir)
		if err != nil {
			log.Fatalf("failed to scan models dir %s: %v", cfg.ModelsDir, err)
		}
		specs = append(specs, scanned...)
	}

	b := broker.New(cfg.DefaultObject)
	for _, spec := range specs {
		if err := b.Register(spec); err != nil {
			log.Fatalf("failed to register %q: %v", spec.Name, err)
		}
		logger.Info().Str("object", spec.Name).Str("kind", spec.Kind).Msg("registered")
	}

	// Base context cancels in-flight work on shutdown.
	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	if *warmup {
		// Instantiation failures are not fatal: the object stays hosted in an
		// error state and /status reports it.
		if err := b.CreateAll(baseCtx); err != nil {
			logger.Warn().Err(err).Msg("warmup incomplete")
		}
	}

	mux := httpapi.NewMux(b)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Int("objects", len(specs)).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Best effort; a no-op outside systemd units.
	if _, err := sdnotify.SdNotify(false, sdnotify.SdNotifyReady); err != nil {
		logger.Debug().Err(err).Msg("sd_notify skipped")
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	_, _ = sdnotify.SdNotify(false, sdnotify.SdNotifyStopping)
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
