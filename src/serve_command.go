package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contre95/soulwrite/src/features/config"
	"github.com/contre95/soulwrite/src/features/hosting"
	"github.com/contre95/soulwrite/src/features/jobs"
	"github.com/contre95/soulwrite/src/features/library"
	"github.com/contre95/soulwrite/src/features/logging"
	"github.com/contre95/soulwrite/src/features/metrics"
	"github.com/contre95/soulwrite/src/features/naming"
	"github.com/contre95/soulwrite/src/features/organizing"
	"github.com/contre95/soulwrite/src/features/readonly"
	"github.com/contre95/soulwrite/src/features/recycling"
	"github.com/contre95/soulwrite/src/features/writeback"
	"github.com/contre95/soulwrite/src/infra/database"
	"github.com/contre95/soulwrite/src/infra/files"
	"github.com/contre95/soulwrite/src/infra/tag"
	"github.com/contre95/soulwrite/src/infra/trash"
	"github.com/contre95/soulwrite/src/infra/watcher"
	"github.com/contre95/soulwrite/src/music"
	"github.com/spf13/cobra"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the write-back service and its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfgManager, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logging.SetupLogger(cfgManager))
	cfg := cfgManager.Get()

	db, err := database.NewSqliteLibrary(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer db.Close()

	fsys := files.NewFileSystem()
	bin, err := trash.New(cfg.Recycle.TrashPath)
	if err != nil {
		return fmt.Errorf("failed to open trash: %w", err)
	}

	jobService := jobs.NewService(cfg.Jobs)
	jobService.Start()

	// The deletion queue checks the write-back stop flag, which only exists
	// once the write-back service is built below.
	var writebackService *writeback.Service
	recycleQueue := recycling.NewQueue(fsys, bin, recycling.Options{
		ProtectedRoots: []string{cfg.LibraryPath},
		FinalPasses:    cfg.Recycle.FinalPasses,
		FinalPause:     cfg.Recycle.FinalPause,
		Stopped:        func() bool { return writebackService != nil && writebackService.Stopped() },
	})

	catalog := naming.NewCatalog(naming.Options{Asciify: cfg.Naming.Asciify})
	dirFormat, err := naming.ParseDirectoryFormat(cfg.Naming.DirectoryFormat)
	if err != nil {
		return err
	}
	engine := organizing.NewEngine(fsys, catalog, recycleQueue, organizing.Options{
		LibraryRoot:     cfg.LibraryPath,
		DirectoryFormat: dirFormat,
	})

	resolver := readonly.NewResolver(cfg.Writeback.PromptTimeout)
	resolver.OnPrompt(func(p readonly.Prompt) {
		slog.Warn("Read-only file needs a decision", "promptID", p.ID, "path", p.Path)
	})

	writebackService = writeback.NewService(db, engine, tag.NewTagWriter(cfgManager), fsys, resolver, recycleQueue, jobService, writeback.Options{
		RetryDelay: cfg.Writeback.RetryDelay,
		Throttle:   cfg.Writeback.Throttle,
		Suspended:  cfg.Writeback.Suspended,
	})

	if expr := cfg.Recycle.Schedule; expr != "" {
		if _, err := jobService.Schedule("recycle-drain", expr, func() { recycleQueue.Drain() }); err != nil {
			return fmt.Errorf("invalid recycle schedule %q: %w", expr, err)
		}
	}

	metricsService, err := metrics.NewService(metrics.Gauges{
		Queued:        writebackService.QueueLen,
		Deferred:      writebackService.DeferredLen,
		DeletionQueue: recycleQueue.Len,
		Suspended:     writebackService.Suspended,
	})
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	if cfg.Watcher.Enabled {
		w, err := watcher.NewWatcher(db, cfg.Watcher.Debounce)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := w.Start(ctx, cfg.LibraryPath); err != nil {
			slog.Error("Failed to start file watcher", "path", cfg.LibraryPath, "error", err)
		} else {
			defer w.Stop()
		}
	}

	if n, err := writebackService.EnqueuePending(ctx); err != nil {
		slog.Error("Failed to resume pending writes", "error", err)
	} else if n > 0 {
		slog.Info("Resumed pending writes", "tracks", n)
	}

	var server *hosting.Server
	if cfg.Server.Enabled {
		server = hosting.NewServer(cfgManager, hosting.Services{
			Library:   library.NewService(db, tag.NewTagReader(), fsys, writebackService, cfgManager),
			Writeback: writebackService,
			Resolver:  resolver,
			Recycle:   recycleQueue,
			Catalog:   catalog,
			Engine:    engine,
			Tracks:    db,
			Jobs:      jobService,
			Metrics:   metricsService,
		})
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("Server stopped", "error", err)
			}
		}()
		slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfg.Server.Port)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)
	for running := true; running; {
		select {
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				reload(configPath, cfgManager, catalog, engine, writebackService)
				continue
			}
			running = false
		case <-ctx.Done():
			running = false
		}
	}

	slog.Info("Shutting down...")
	if server != nil {
		if err := server.Shutdown(); err != nil {
			slog.Error("Failed to shut down server", "error", err)
		}
	}
	shutdownWriteback(writebackService, recycleQueue, cfgManager.Get().Writeback.StopTimeout)
	jobService.Stop()
	slog.Info("Gracefully shut down.")
	return nil
}

// shutdownWriteback lets the current track finish, then empties the
// deletion queue with the bounded final drain.
func shutdownWriteback(wb *writeback.Service, deletions *recycling.Queue, timeout time.Duration) {
	wb.RequestStop()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := wb.Wait(ctx); err != nil {
		slog.Warn("Write-back did not stop in time", "timeout", timeout, "error", err)
	}
	wb.Close()

	if left := deletions.DrainFinal(); left > 0 {
		slog.Warn("Deletion queue not empty at exit", "remaining", left)
	}
}

// reload applies the naming and suspend settings of the config file on disk.
func reload(path string, cfgManager *config.Manager, catalog *naming.Catalog, engine *organizing.Engine, wb *writeback.Service) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("Failed to reload config", "path", path, "error", err)
		return
	}
	defer f.Close()

	cfg, err := config.Parse(f)
	if err != nil {
		slog.Error("Failed to reload config", "path", path, "error", err)
		return
	}
	dirFormat, err := naming.ParseDirectoryFormat(cfg.Naming.DirectoryFormat)
	if err != nil {
		slog.Error("Failed to reload config", "path", path, "error", err)
		return
	}

	cfgManager.Update(cfg)
	catalog.SetOptions(naming.Options{Asciify: cfg.Naming.Asciify})
	engine.SetOptions(organizing.Options{LibraryRoot: cfg.LibraryPath, DirectoryFormat: dirFormat})
	wb.Suspend(cfg.Writeback.Suspended)
	slog.Info("Configuration reloaded", "path", path)
}

var _ music.Dispatcher = (*jobs.Service)(nil)
