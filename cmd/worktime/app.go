package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm"

	"worktime/internal/auth"
	"worktime/internal/config"
	"worktime/internal/repository"
	"worktime/internal/service"
)

// application holds everything both commands share.
type application struct {
	cfg    config.Config
	log    *slog.Logger
	db     *gorm.DB
	store  *repository.Store
	policy service.DayPolicy
	auth   *service.AuthService
	tasks  *service.TaskService
}

func newApplication(configPath string) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := makeLogger(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	hour, minute, err := service.ParseHHMM(cfg.StaleDayCutoff)
	if err != nil {
		return nil, fmt.Errorf("stale day cutoff: %w", err)
	}
	policy := service.DayPolicy{Location: loc, CutoffHour: hour, CutoffMinute: minute}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	store := repository.NewStore(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	return &application{
		cfg:    cfg,
		log:    log,
		db:     db,
		store:  store,
		policy: policy,
		auth:   service.NewAuthService(store.Users, hasher, tokens, log.With("component", "auth")),
		tasks:  service.NewTaskService(store, service.SystemClock{}, policy, log.With("component", "tasks")),
	}, nil
}

func (a *application) ledger(notifier service.Notifier) *service.LedgerService {
	log := a.log.With("component", "ledger")
	return service.NewLedgerService(a.store, service.NewCoordinator(log), notifier, service.SystemClock{}, a.policy, log)
}

func (a *application) close() {
	if err := repository.Close(a.db); err != nil {
		a.log.Warn("close db", "err", err)
	}
}

func makeLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
