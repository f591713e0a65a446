package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/renbrahe/parsing-ski/config"
	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/scraper"
	"github.com/renbrahe/parsing-ski/scraper/burosports"
	"github.com/renbrahe/parsing-ski/scraper/fetch"
	"github.com/renbrahe/parsing-ski/scraper/megasport"
	"github.com/renbrahe/parsing-ski/scraper/snowmania"
	"github.com/renbrahe/parsing-ski/scraper/xtreme"
	"github.com/renbrahe/parsing-ski/services"
	"github.com/renbrahe/parsing-ski/storage"
	"github.com/renbrahe/parsing-ski/utils"
)

// item cap per shop in test mode
const testModeMaxItems = 10

var (
	scrapeTest   bool
	scrapeMin    float64
	scrapeMax    float64
	scrapeOutput string
)

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeTest, "test", false,
		"test mode: first page and a small item cap per shop")
	scrapeCmd.Flags().Float64Var(&scrapeMin, "min", 0, "minimum price")
	scrapeCmd.Flags().Float64Var(&scrapeMax, "max", 0, "maximum price")
	scrapeCmd.Flags().StringVar(&scrapeOutput, "output", "",
		"export destination path (default: EXPORT_DIR/skis_unified_<timestamp>.csv)")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [xtreme|snowmania|burosports|megasport|all]...",
	Short: "Scrape the selected shops and export a unified CSV snapshot.",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := utils.NewLogger()
		cfg := config.Load()

		shops, err := selectShops(args)
		if err != nil {
			return err
		}

		filters := scraper.Filters{TestMode: scrapeTest}
		if scrapeTest {
			filters.MaxItems = testModeMaxItems
		}
		if cmd.Flags().Changed("min") {
			filters.MinPrice = &scrapeMin
		}
		if cmd.Flags().Changed("max") {
			filters.MaxPrice = &scrapeMax
		}

		logger.Info("=== Ski shop scrape starting ===")
		logger.Info("Shops: %s | test: %v | concurrency: %d", joinShops(shops), scrapeTest, cfg.MaxConcurrency)

		scrapers := buildScrapers(shops, cfg, logger)

		pool := utils.NewWorkerPool(cfg.MaxConcurrency)
		raw := scraper.RunAll(cmd.Context(), scrapers, filters, pool, logger)
		if len(raw) == 0 {
			return fmt.Errorf("no shop produced any listings")
		}

		normalizer := services.NewNormalizer(logger, cfg)
		records := normalizer.Normalize(raw)
		if len(records) == 0 {
			return fmt.Errorf("all listings were dropped during normalization")
		}

		path := scrapeOutput
		if path == "" {
			path = storage.DefaultExportPath(cfg.ExportDir, time.Now())
		}

		n, err := storage.Export(records, path)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		logger.Info("Exported %d rows (%d bytes) to %s", len(records), n, path)

		if cfg.PostgresEnabled {
			writeToPostgres(cfg, logger, records)
		}

		return nil
	},
}

// selectShops validates the requested shop codes. No arguments or "all"
// means every supported shop, in canonical order.
func selectShops(args []string) ([]models.Shop, error) {
	if len(args) == 0 {
		return models.AllShops, nil
	}

	requested := make([]string, 0, len(args))
	for _, a := range args {
		requested = append(requested, strings.ToLower(a))
	}

	for _, code := range requested {
		if code == "all" {
			return models.AllShops, nil
		}
	}

	var shops []models.Shop
	seen := make(map[string]struct{})
	for _, code := range requested {
		if !models.ValidShop(code) {
			return nil, fmt.Errorf("unknown shop code %q (want xtreme, snowmania, burosports, megasport or all)", code)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		shops = append(shops, models.Shop(code))
	}
	return shops, nil
}

func buildScrapers(shops []models.Shop, cfg *config.Config, logger *utils.Logger) []scraper.ShopScraper {
	static := fetch.NewStaticFetcher(cfg)
	browser := fetch.NewBrowserFetcher(cfg, logger)

	var scrapers []scraper.ShopScraper
	for _, shop := range shops {
		switch shop {
		case models.ShopXtreme:
			scrapers = append(scrapers, xtreme.New(cfg, logger, static))
		case models.ShopSnowmania:
			scrapers = append(scrapers, snowmania.New(cfg, logger, static))
		case models.ShopBurosports:
			scrapers = append(scrapers, burosports.New(cfg, logger, static))
		case models.ShopMegasport:
			scrapers = append(scrapers, megasport.New(cfg, logger, browser))
		}
	}
	return scrapers
}

// writeToPostgres mirrors the snapshot into PostgreSQL. Failures here are
// logged but never fail the run; the CSV export already succeeded.
func writeToPostgres(cfg *config.Config, logger *utils.Logger, records []*models.UnifiedRecord) {
	pg, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("PostgreSQL connect failed, snapshot not mirrored: %v", err)
		return
	}
	defer pg.Close()

	if err := pg.Write(records); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return
	}
	logger.Info("Snapshot mirrored to PostgreSQL (table: ski_listings)")
}

func joinShops(shops []models.Shop) string {
	codes := make([]string, 0, len(shops))
	for _, s := range shops {
		codes = append(codes, string(s))
	}
	return strings.Join(codes, ", ")
}
