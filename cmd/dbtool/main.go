package main

import (
	"context"
	"database/sql"
	"driver-batching-service/internal/adapters/repositories"
	"driver-batching-service/internal/auth"
	"driver-batching-service/internal/config"
	"driver-batching-service/internal/platform/db"
	"driver-batching-service/internal/platform/obs"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// dbtool initializes and seeds the order database, and can mint a driver
// token for local testing.
func main() {
	envErr := godotenv.Load()
	obs.SetupLogger("dbtool", config.Get("LOG_LEVEL", "info"), true)
	if envErr != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	tokenFor := flag.String("token", "", "print a driver JWT for this driver id and exit")
	flag.Parse()

	if *tokenFor != "" {
		secret := config.Get("JWT_SECRET", "")
		if secret == "" {
			log.Fatal().Msg("JWT_SECRET is required")
		}
		tok, err := auth.Sign(*tokenFor, auth.RoleDriver, secret)
		if err != nil {
			log.Fatal().Err(err).Msg("sign token")
		}
		fmt.Println(tok)
		return
	}

	ctx := context.Background()

	driverName := strings.ToLower(config.Get("DB_DRIVER", "sqlite"))
	dialect, err := repositories.DialectFor(driverName)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DB_DRIVER")
	}

	var conn *sql.DB
	if dialect == repositories.Postgres {
		databaseURL := config.Get("DATABASE_URL", "")
		if databaseURL == "" {
			log.Fatal().Msg("DATABASE_URL is required")
		}
		conn, err = db.Open(ctx, databaseURL)
	} else {
		conn, err = db.OpenSQLite(ctx, config.Get("DB_PATH", "data/app.db"))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/orders.json")
	if err := initAndSeed(ctx, conn, dialect, seedPath); err != nil {
		log.Error().Err(err).Msg("dbtool failed")
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect repositories.Dialect, seedPath string) error {
	log.Info().Str("db", dialect.String()).Msg("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info().Msg("Schema ready.")

	log.Info().Str("path", seedPath).Msg("Seeding database...")
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Msg("Seeding complete.")

	return nil
}
