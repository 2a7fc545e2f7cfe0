package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/dxcccii/taskdesk/internal/protocol"
	"github.com/dxcccii/taskdesk/internal/server"
	"github.com/dxcccii/taskdesk/internal/services/notify"
	"github.com/dxcccii/taskdesk/internal/services/registry"
	"github.com/dxcccii/taskdesk/internal/services/tasks/recordstore"
	"github.com/dxcccii/taskdesk/internal/services/tasks/taskservice"
	"github.com/dxcccii/taskdesk/pkg/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func New() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "taskdesk-server",
		Short:         "Task allocation and notification server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgPath)
		},
	}

	rootCmd.Flags().
		StringVarP(&cfgPath, "config", "c", "configs/server.yaml", "path to configuration file")

	return rootCmd
}

func run(ctx context.Context, cfgPath string) error {
	slog.Info("parsing config...")

	bytes, err := os.ReadFile(cfgPath)
	if err != nil {
		slog.Error("read file failed", slog.Any("error", err))
		return err
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(bytes, cfg); err != nil {
		slog.Error("parse config failed", slog.Any("error", err))
		return err
	}

	logging.InitLogger(cfg.Logger, slog.String("service", "taskdesk-server"))

	slog.Info("config parsed")

	if err := cfg.Validate(); err != nil {
		slog.Error("validate config failed", slog.Any("error", err))
		return err
	}

	slog.Info("config validated")
	slog.Info("initializing dependencies...")

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("record store init failed", slog.Any("error", err))
		return err
	}

	reg, err := registry.Load(ctx, cfg.Bootstrap.Allocations)
	if err != nil {
		slog.Error("roster load failed", slog.Any("error", err))
		return err
	}

	hub := server.NewHub()
	subs := notify.NewSubscriptions()

	queueSize := 0
	if cfg.Notifier != nil {
		queueSize = cfg.Notifier.QueueSize
	}
	notifier := notify.NewFanout(subs, hub, queueSize)
	defer notifier.Close()

	taskService := taskservice.NewService(reg, store, notifier)
	if err := taskService.Load(ctx); err != nil {
		slog.Error("task records load failed", slog.Any("error", err))
		return err
	}

	slog.Info("dependencies initialized")

	srv := server.New(cfg.TCP.Port, hub, func() *protocol.Session {
		return protocol.NewSession(reg, taskService, subs)
	})

	return srv.ListenAndServe(ctx)
}

func newStore(ctx context.Context, cfg *StorageConfig) (recordstore.Store, error) {
	switch cfg.Driver {
	case StorageDriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		store := recordstore.NewPgStore(pool)
		if err := store.EnsureTable(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return recordstore.NewCSVStore(cfg.Path)
	}
}
