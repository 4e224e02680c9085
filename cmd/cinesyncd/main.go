package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Nomadcxx/cinesync/internal/config"
	"github.com/Nomadcxx/cinesync/internal/logging"
	"github.com/Nomadcxx/cinesync/internal/organizer"
	"github.com/Nomadcxx/cinesync/internal/reporter"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
	"github.com/Nomadcxx/cinesync/internal/watcher"
)

// Version information (set via -ldflags during build)
var version = "dev"

// startupDelay postpones the initial full organize so a boot-time start
// does not compete with everything else coming up.
const startupDelay = 1 * time.Minute

func main() {
	log, err := openLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("daemon", "cinesyncd starting", logging.F("version", version))

	cfg, err := config.Load()
	if err != nil {
		log.Error("daemon", "failed to load configuration", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("daemon", "configuration invalid", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		done := runSession(ctx, cfg, log, sigChan)
		if done {
			log.Info("daemon", "cinesyncd stopped")
			return
		}

		// SIGHUP: reload configuration and start a fresh session.
		newCfg, err := config.Load()
		if err != nil {
			log.Error("daemon", "failed to reload config, keeping previous", err)
			continue
		}
		if err := newCfg.Validate(); err != nil {
			log.Error("daemon", "new configuration invalid, keeping previous", err)
			continue
		}
		cfg = newCfg
		log.Info("daemon", "configuration reloaded")
	}
}

// runSession watches the sources until shutdown (returns true) or a
// reload request (returns false).
func runSession(ctx context.Context, cfg *config.Config, log *logging.Logger, sigChan chan os.Signal) bool {
	client := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.Language, log)

	// The daemon is unattended: ambiguous matches always take the
	// provider's top candidate.
	org := organizer.New(client, organizer.AutoFirst{}, log)

	opts := organizer.Options{
		SourceDirs:  cfg.Library.SourceDirs,
		DestDir:     cfg.Library.DestDir,
		AutoSelect:  true,
		Rename:      cfg.Organize.Rename,
		Collections: cfg.Organize.Collections,
		SkipExtras:  cfg.Organize.SkipExtras,
		FolderID:    cfg.Organize.FolderID,
		Workers:     cfg.Organize.Workers,
	}

	settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second
	w, err := watcher.New(cfg.Library.SourceDirs, settle, log)
	if err != nil {
		log.Error("daemon", "watcher setup failed", err)
		return true
	}
	defer w.Close()

	sr, err := reporter.NewStreamingReporter(cfg.Library.SourceDirs, cfg.Library.DestDir)
	if err != nil {
		log.Error("daemon", "session report setup failed", err)
		return true
	}
	defer sr.Close()

	sessionCtx, stopSession := context.WithCancel(ctx)
	defer stopSession()

	// Initial full pass after the startup delay, so files that arrived
	// while the daemon was down still get organized.
	initial := time.AfterFunc(startupDelay, func() {
		log.Info("daemon", "running initial organize pass")
		sum, err := org.Run(sessionCtx, opts)
		if err != nil && err != context.Canceled {
			log.Error("daemon", "initial organize failed", err)
			return
		}
		if sum != nil {
			report := reporter.FromSummary(sum, opts)
			if path, err := reporter.Generate(report); err == nil {
				log.Info("daemon", "initial pass complete",
					logging.F("created", sum.Created),
					logging.F("unresolved", sum.Unresolved),
					logging.F("report", path))
			}
		}
	})
	defer initial.Stop()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Run(sessionCtx, func(paths []string) {
			log.Info("daemon", "organizing settled batch", logging.F("files", len(paths)))
			for _, path := range paths {
				itemOpts := opts
				itemOpts.SinglePath = path
				sum, err := org.Run(sessionCtx, itemOpts)
				if err != nil && err != context.Canceled {
					log.Error("daemon", "failed to organize new file", err, logging.F("path", path))
					continue
				}
				if sum == nil {
					continue
				}
				for _, r := range sum.Items {
					if werr := sr.WriteItem(sessionCtx, r); werr != nil {
						log.Warn("daemon", "failed to record item", logging.F("error", werr))
					}
				}
			}
		})
	}()

	for {
		select {
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGHUP:
				log.Info("daemon", "received SIGHUP, reloading configuration")
				stopSession()
				<-watchErr
				sr.Finalize()
				return false

			case syscall.SIGINT, syscall.SIGTERM:
				log.Info("daemon", "received shutdown signal", logging.F("signal", sig.String()))
				stopSession()
				<-watchErr
				sr.Finalize()
				return true
			}

		case err := <-watchErr:
			if err != nil && err != context.Canceled {
				log.Error("daemon", "watcher stopped", err)
			}
			sr.Finalize()
			return true
		}
	}
}

func openLog() (*logging.Logger, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level: "info",
		File:  filepath.Join(home, ".local/share/cinesync/daemon.log"),
	})
}
