package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"estate_listing/internal/adapters/geocache"
	"estate_listing/internal/adapters/locationiq"
	"estate_listing/internal/adapters/observability"
	redisad "estate_listing/internal/adapters/redis"
	"estate_listing/internal/app"
	"estate_listing/internal/shared"
	mysqlrepo "estate_listing/internal/storage/mysql"
)

var (
	inputFile string
	workers   int
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Bulk-create listings from a JSON file",
	Long: `Reads a JSON array of listings, each carrying its owner in "userRef",
geocodes every address and stores the listing. Failed items are logged and skipped.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&inputFile, "file", "f", "", "JSON file with listings (- for stdin)")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent imports (default IMPORT_WORKERS)")
	_ = rootCmd.MarkFlagRequired("file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if workers <= 0 {
		workers = cfg.ImportWorkers
	}

	items, err := readItems(inputFile)
	if err != nil {
		return err
	}
	log.Info().Str("file", inputFile).Int("items", len(items)).Int("workers", workers).Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}

	client, err := locationiq.New(cfg.LocationIQBase, cfg.LocationIQKey, cfg.GeocodeRPS)
	if err != nil {
		return err
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	listings := app.NewListingService(mysqlrepo.New(db), geocache.New(client, cache, cfg.CacheTTL))
	rep, err := app.NewImporter(listings, workers).Run(ctx, items)
	log.Info().Int64("created", rep.Created).Int64("failed", rep.Failed).Msg("import completed")
	return err
}

func readItems(path string) ([]app.ImportItem, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
		defer f.Close()
	}
	var items []app.ImportItem
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}
