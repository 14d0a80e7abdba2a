package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/draftpilot/outlook-autodraft/internal/config"
	"github.com/draftpilot/outlook-autodraft/internal/httptrigger"
	"github.com/draftpilot/outlook-autodraft/internal/logger"
	"github.com/draftpilot/outlook-autodraft/internal/scan"
	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

func main() {
	once := flag.Bool("once", false, "run a single scan and print the summary")
	printToken := flag.Bool("token", false, "print a trigger token for TRIGGER_SECRET and exit")
	flag.Parse()

	log := logger.GetLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Errorw("configuration error", "error", err)
		os.Exit(1)
	}

	if *printToken {
		if cfg.TriggerSecret == "" {
			log.Error("TRIGGER_SECRET is not set")
			os.Exit(1)
		}
		token, err := httptrigger.Token(cfg.TriggerSecret, 365*24*time.Hour)
		if err != nil {
			log.Errorw("minting token failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, cleanup, err := scan.Build(ctx, cfg)
	if err != nil {
		log.Errorw("building dependencies failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// serialize scans: the ticker and the HTTP trigger share one mailbox
	var mu sync.Mutex
	runScan := func(ctx context.Context) (*types.Summary, error) {
		if !mu.TryLock() {
			return nil, errors.New("a scan is already running")
		}
		defer mu.Unlock()
		return scan.Run(ctx, cfg, deps)
	}

	if *once {
		summary, err := runScan(ctx)
		if err != nil {
			log.Errorw("scan failed", "error", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))
		return
	}

	log.Infow("starting scheduled scanning",
		"interval", cfg.ScanInterval,
		"port", cfg.Port,
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptrigger.NewRouter(runScan, cfg.TriggerSecret),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("trigger server failed", "error", err)
			cancel()
		}
	}()

	go scheduler(ctx, cfg.ScanInterval, runScan, log)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutting down trigger server failed", "error", err)
	}
}

// scheduler runs one scan immediately, then on every tick until the
// context is cancelled.
func scheduler(ctx context.Context, interval time.Duration, runScan func(context.Context) (*types.Summary, error), log logger.Logger) {
	if _, err := runScan(ctx); err != nil {
		log.Errorw("scan failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := runScan(ctx); err != nil {
				log.Errorw("scan failed", "error", err)
			}
		}
	}
}
