package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func newRunCommand(configFlag *string) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the recognition daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runDaemon(cfg, headless)
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the system tray")
	return cmd
}

func runDaemon(cfg config.Config, headless bool) error {
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	dbPath, err := cfg.ExpandedDBPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// One daemon per store: two instances would fight over the camera
	// and the registry database.
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another mudra instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release run lock", "error", err)
		}
	}()

	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	a := app.New(app.Config{
		Recognition: cfg.Recognition,
		Capture:     cfg.Capture,
		Detector:    cfg.Detector,
		Store:       st,
		Logger:      logger,
	})
	if err := a.Reload(); err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	hub := server.NewHub(logger)
	hub.OnReset(a.Reset)
	a.OnEvent(hub.BroadcastEvent)
	a.OnStatus(hub.BroadcastStatus)

	srv := server.New(server.Config{
		Store:  st,
		App:    a,
		Hub:    hub,
		Camera: a.Camera(),
		Logger: logger,
	})

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv}
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
		}
	}()

	var t *tray.Tray
	if !headless {
		t = tray.New()
		t.OnToggle(a.SetEnabled)
		t.OnReset(a.Reset)
		a.OnEvent(func(e recognizer.Event) {
			name := e.Name
			if name == "" {
				name = e.ConceptID
			}
			t.SetLastEmission(fmt.Sprintf("%s (%.2f)", name, e.Similarity))
		})
	}

	if err := a.Start(); err != nil {
		// The API stays useful without a camera; recognition simply
		// does not run until the next start.
		logger.Warn("capture unavailable, recognition idle", "error", err)
	}

	shutdown := func() {
		a.Stop()
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}

	signalCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if headless {
		<-signalCtx.Done()
		logger.Info("mudra daemon shutting down")
		shutdown()
		return nil
	}

	go func() {
		<-signalCtx.Done()
		t.Quit()
	}()

	// Blocks until the quit item is clicked or a signal arrives.
	t.Run()
	logger.Info("mudra daemon shutting down")
	shutdown()
	return nil
}
