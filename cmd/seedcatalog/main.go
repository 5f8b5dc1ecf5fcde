// Command seedcatalog loads products from a JSON file into the catalog
// collection. Re-running it updates products in place by ID.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/vinylshop/storefront/internal/core/domain"
	"github.com/vinylshop/storefront/internal/infrastructure/db/mongo"
	"github.com/vinylshop/storefront/internal/pkg/config"
	"github.com/vinylshop/storefront/pkg/logger"
)

func main() {
	log := logger.Init(logger.Options{Pretty: true, Service: "seedcatalog"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err := run(ctx, os.Args[1:], envconfig.OsLookuper(), log)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("seed catalog")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, l envconfig.Lookuper, log zerolog.Logger) error {
	fs := flag.NewFlagSet("seedcatalog", flag.ContinueOnError)
	file := fs.String("file", "catalog.json", "path to a JSON array of products")
	if err := fs.Parse(args); err != nil {
		return err
	}

	products, err := readProducts(*file)
	if err != nil {
		return err
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

	n, err := mongo.NewProductRepository(db, cfg.Timeout).Upsert(ctx, products)
	if err != nil {
		return err
	}
	log.Info().Int("products", len(products)).Int64("written", n).Msg("catalog seeded")
	return nil
}

func readProducts(path string) ([]domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, p := range products {
		if p.ID <= 0 || p.Title == "" {
			return nil, fmt.Errorf("product %d: id and title are required", i)
		}
	}
	return products, nil
}
