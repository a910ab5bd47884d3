package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/roster/internal/repositories"
	"github.com/desertthunder/roster/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when missing, initializes the database and runs migrations.
//
// The migration set matches the configured driver.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else {
				r.logger.Info("config file created", "path", r.configPath)
			}
		}
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	r.logger.Info("running database migrations", "driver", r.config.Database.Driver)
	migrator := shared.NewMigrator(db, r.config.Database.Driver)
	ran, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	versions, err := migrator.Applied(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("setup complete", "applied", ran, "total", len(versions))
	return r.writePlain("✓ Database ready (%d migrations applied)\n", len(versions))
}

// SetupSeed loads a TOML fixture into the store.
func (r *Runner) SetupSeed(ctx context.Context, cmd *cli.Command) error {
	fixture, err := repositories.LoadFixture(cmd.String("file"))
	if err != nil {
		return err
	}

	store, _, err := r.open()
	if err != nil {
		return err
	}

	if _, err := shared.NewMigrator(r.db, r.config.Database.Driver).Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	result, err := repositories.Seed(ctx, store, fixture)
	if err != nil {
		return fmt.Errorf("seed failed after %d tracks and %d students: %w", result.Tracks, result.Students, err)
	}

	r.logger.Info("seed complete", "tracks", result.Tracks, "students", result.Students, "enrollments", result.Enrollments)
	return r.writePlain("✓ Seeded %d tracks, %d students, %d enrollments\n", result.Tracks, result.Students, result.Enrollments)
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	migrator := shared.NewMigrator(db, r.config.Database.Driver)
	version, err := migrator.Down(ctx)
	if err != nil {
		return err
	}

	versions, err := migrator.Applied(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("migration rolled back", "version", version, "remaining", len(versions))
	return r.writePlain("✓ Rolled back migration %d (%d migrations applied)\n", version, len(versions))
}
