package main

import (
	"context"
	"fmt"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"worktime/internal/bot"
	"worktime/internal/config"
	"worktime/internal/httpapi"
	"worktime/internal/ratelimit"
	"worktime/internal/service"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the stale day sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(*configPath)
			if err != nil {
				return err
			}
			return serve(app)
		},
	}
}

func serve(app *application) error {
	cfg := app.cfg
	log := app.log
	operations := map[string]gfshutdown.Operation{}

	var notifier service.Notifier = service.NopNotifier{}
	var telegram *bot.Bot
	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken, app.store.Users, app.store.Days, app.policy.Location, log.With("component", "bot"))
		if err != nil {
			return err
		}
		notifier, telegram = b, b
	}
	ledger := app.ledger(notifier)

	opts := httpapi.Options{RequestLogging: true, Logger: log.With("component", "http")}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		limiter := ratelimit.NewSlidingWindow(client, cfg.AuthRateLimit, cfg.AuthRateWindow, "worktime:ratelimit:auth:")
		opts.AuthLimiter = ratelimit.ByIP(limiter, log)
		operations["redis"] = func(context.Context) error { return client.Close() }
	}

	api := httpapi.NewApp(httpapi.Services{
		Auth:   app.auth,
		Ledger: ledger,
		Tasks:  app.tasks,
		Ping:   app.store.Ping,
	}, opts)

	scheduler := service.NewSchedulerService(app.policy.Location)
	if cfg.SweepEnabled() {
		if _, err := scheduler.ScheduleDaily(cfg.StaleDaySweep, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := ledger.CloseStaleDays(jobCtx); err != nil {
				log.Error("stale day sweep", "err", err)
			}
		}); err != nil {
			return err
		}
		scheduler.Start()
		log.Info("stale day sweep scheduled", "at", cfg.StaleDaySweep)
	}

	botCtx, stopBot := context.WithCancel(context.Background())
	if telegram != nil {
		go func() {
			if err := telegram.Start(botCtx); err != nil {
				log.Error("bot stopped", "err", err)
			}
		}()
	}

	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddress)
		if err := api.Listen(cfg.HTTPAddress); err != nil {
			log.Error("http server stopped", "err", err)
		}
	}()

	operations["http"] = func(ctx context.Context) error { return api.ShutdownWithContext(ctx) }
	operations["scheduler"] = func(context.Context) error {
		scheduler.Stop()
		return nil
	}
	operations["bot"] = func(context.Context) error {
		stopBot()
		return nil
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout(cfg), operations)
	code := <-wait
	app.close()
	log.Info("shutdown complete", "code", code)
	if code != 0 {
		return errShutdown(code)
	}
	return nil
}

func shutdownTimeout(cfg config.Config) time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return cfg.ShutdownTimeout
}

type errShutdown int

func (e errShutdown) Error() string {
	return fmt.Sprintf("shutdown finished with exit code %d", int(e))
}
