package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/petermazzocco/precast-cms/internal/auth"
	"github.com/petermazzocco/precast-cms/internal/config"
	"github.com/petermazzocco/precast-cms/internal/logger"
	"github.com/petermazzocco/precast-cms/internal/store"
)

// seed-admin creates the admin user directly in the configured store, for
// deployments that keep SEED_SECRET unset.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.LogLevel)

	email := flag.String("email", cfg.SeedAdminEmail, "admin email")
	password := flag.String("password", cfg.SeedAdminPassword, "admin password")
	flag.Parse()

	ctx := context.Background()
	stores, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer stores.Close()

	created, err := auth.SeedAdmin(ctx, stores.Users, *email, *password)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create admin")
		os.Exit(1)
	}

	if !created {
		fmt.Printf("Admin %s already exists in the %s store\n", *email, stores.Mode())
		return
	}
	fmt.Printf("Admin %s created in the %s store\n", *email, stores.Mode())
}
