// Command migrate inspects and changes the agrisocial schema.
//
//	migrate status          plan, applied and pending migrations, missing tables
//	migrate up              apply pending SQL migrations (postgres)
//	migrate auto            run AutoMigrate for every persistent model
//	migrate down <version>  roll back one SQL migration (postgres)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"agrisocial/internal/config"
	"agrisocial/internal/database"
	"agrisocial/internal/middleware"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var errUsage = errors.New("usage: migrate <status|up|auto|down> [version]")

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"status": status,
	"up":     up,
	"auto":   auto,
	"down":   down,
}

func main() {
	flag.Parse()
	if err := run(flag.Args()); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return errUsage
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env, os.Getenv("LOG_LEVEL"))

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return cmd(context.Background(), db, cfg, args[1:])
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	middleware.Logger.Info("schema status",
		slog.String("driver", st.Driver),
		slog.String("mode", st.Mode),
		slog.String("env", st.Environment),
		slog.Bool("run_sql", st.RunSQL),
		slog.Bool("run_auto", st.RunAuto),
		slog.Int("applied", len(st.AppliedVersions)),
		slog.Int("pending", len(st.PendingMigrations)),
	)
	for _, m := range st.PendingMigrations {
		middleware.Logger.Info("pending migration", slog.String("migration", m.String()))
	}
	for _, table := range st.MissingTables {
		middleware.Logger.Warn("missing table", slog.String("table", table))
	}
	return nil
}

func up(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	migrator, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	ran, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.Info("sql migrations applied", slog.Int("count", len(ran)))
	return nil
}

func auto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return err
	}
	middleware.Logger.Info("AutoMigrate finished")
	return nil
}

func down(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	migrator, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	return migrator.Down(ctx, version)
}
