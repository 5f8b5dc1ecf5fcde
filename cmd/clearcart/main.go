// Command clearcart deletes every cart row for every user.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/vinylshop/storefront/internal/infrastructure/db/mongo"
	"github.com/vinylshop/storefront/internal/pkg/config"
	"github.com/vinylshop/storefront/pkg/logger"
)

var errNotConfirmed = errors.New("refusing to clear all carts without -yes")

func main() {
	log := logger.Init(logger.Options{Pretty: true, Service: "clearcart"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err := run(ctx, os.Args[1:], envconfig.OsLookuper(), log)
	cancel()

	switch {
	case errors.Is(err, errNotConfirmed):
		log.Error().Msg(err.Error())
		os.Exit(2)
	case err != nil:
		log.Error().Err(err).Msg("clear carts")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, l envconfig.Lookuper, log zerolog.Logger) error {
	fs := flag.NewFlagSet("clearcart", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm deletion of all carts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errNotConfirmed
	}

	cfg, err := config.LoadStorage(ctx, l)
	if err != nil {
		return err
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	n, err := mongo.NewCartRepository(db, cfg.Timeout).ClearEverything(ctx)
	if err != nil {
		return err
	}
	log.Info().Int64("deleted", n).Msg("all carts cleared")
	return nil
}
