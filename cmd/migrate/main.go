// Schema migration CLI. The API server applies pending migrations itself
// when DATABASE_AUTO_MIGRATE is set; this tool is the operator path for
// stepped rollouts, downs, force, and drop.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		steps         int
		migrationsDir string
		databaseURL   string
	)
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply (0 = all; for force, the target version)")
	flag.StringVar(&migrationsDir, "dir", "migrations", "migrations directory")
	flag.StringVar(&databaseURL, "database", "", "database URL (defaults to DATABASE_URL)")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		log.Fatal().Msg("Set DATABASE_URL or pass -database")
	}

	absDir, err := filepath.Abs(migrationsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", migrationsDir).Msg("Failed to resolve migrations directory")
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrate instance")
	}
	defer m.Close()

	log.Info().
		Str("command", command).
		Int("steps", steps).
		Str("dir", absDir).
		Msg("Running migration command")

	switch command {
	case "up":
		err = stepOrAll(m, steps)
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "force":
		if steps == 0 {
			log.Fatal().Msg("force requires -steps with the target version")
		}
		err = m.Force(steps)
	case "version":
		reportVersion(m)
		return
	case "drop":
		err = m.Drop()
	default:
		log.Fatal().Str("command", command).Msg("Unknown command (want up, down, force, version, or drop)")
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("Schema already up to date")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	log.Info().Msg("Migration complete")
	reportVersion(m)
}

func stepOrAll(m *migrate.Migrate, steps int) error {
	if steps > 0 {
		return m.Steps(steps)
	}
	return m.Up()
}

func reportVersion(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info().Msg("No migrations applied yet")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read schema version")
	}
	log.Info().
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("Schema version")
}
