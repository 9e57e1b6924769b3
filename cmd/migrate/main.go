package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/poctrail/assistant/internal/config"
	"github.com/poctrail/assistant/internal/repository/postgres"
)

func main() {
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	dsn := cfg.Database.DSN()
	switch command {
	case "up":
		err = postgres.MigrateUp(dsn, *source)
	case "down":
		err = postgres.MigrateDown(dsn, *source)
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = postgres.MigrationVersion(dsn, *source)
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
		}
	default:
		log.Fatal().Str("command", command).Msg("unknown command, expected up, down, or version")
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
}
