package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bookburrow/riddles-server/internal/content"
	"github.com/bookburrow/riddles-server/internal/httpserver"
	"github.com/bookburrow/riddles-server/internal/session"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/riddles.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := session.NewSQLiteStore(db)
	n, err := content.Seed(context.Background(), store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed riddles")
	}
	log.Info().Int("riddles", n).Msg("riddle content seeded")

	go httpserver.CleanupVisitors()

	srv := httpserver.New(store, db)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting riddles-server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
