package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"fosdemcal/internal/config"
	"fosdemcal/internal/fetch"
	appLog "fosdemcal/internal/log"
	"fosdemcal/internal/schedule"
	"fosdemcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	room       string
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	// CLI flags override config file values if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.room != "" {
		conf.Room = flags.room
	}
	appLog.SetLevel(conf.LogLevel)

	appLog.Info("fosdemcal starting",
		"listen", conf.Listen,
		"schedule_url", conf.ScheduleURL,
		"room", conf.Room,
		"refresh", conf.RefreshCron,
		"debounce_ms", conf.DebounceMs,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	store := schedule.NewStore()
	fetcher := fetch.NewFetcher(conf.CacheDir)
	svc := fetch.NewService(fetcher, store, conf.ScheduleURL, conf.Debounce())

	if flags.once {
		runOnce(ctx, svc, store, conf.Room)
		return
	}

	// Initial fetch before the servers come up; a failure keeps the
	// process alive with an empty schedule until the next cron tick.
	if err := svc.Refresh(ctx, conf.Room); err != nil {
		appLog.Warn("initial schedule fetch failed", "err", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() { svc.Trigger(ctx, conf.Room) }); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return schedule.NewRollover(store).Run(gctx)
	})

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(gctx, conf, store, svc).Handler(),
	}
	g.Go(func() error {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("fosdemcal exiting with error", err)
		os.Exit(1)
	}
	appLog.Info("fosdemcal exiting")
}

// runOnce performs a single fetch/build cycle and dumps the schedule
// as JSON to stdout.
func runOnce(ctx context.Context, svc *fetch.Service, store *schedule.Store, room string) {
	if err := svc.Refresh(ctx, room); err != nil {
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(store.Schedule()); err != nil {
		appLog.Error("failed to dump schedule", err)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/fosdemcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.room, "room", "", "Exact room-name filter (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch+build cycle, dump JSON, and exit")

	flag.Parse()

	return cfg
}
