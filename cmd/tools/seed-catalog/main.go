// cmd/tools/seed-catalog/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"loan-advisor/internal/advisor/eligibility"
	"loan-advisor/internal/common/config"
	"loan-advisor/internal/common/database"
	"loan-advisor/internal/common/logger"
	"loan-advisor/internal/models"
	"loan-advisor/internal/store"
	"loan-advisor/pkg/seed"
)

const defaultSeedPath = "configs/catalog.yaml"

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	postgresCmd := flag.NewFlagSet("postgres", flag.ExitOnError)
	esCmd := flag.NewFlagSet("elasticsearch", flag.ExitOnError)

	validatePath := validateCmd.String("path", defaultSeedPath, "Path to catalog seed file")
	postgresPath := postgresCmd.String("path", defaultSeedPath, "Path to catalog seed file")
	esPath := esCmd.String("path", defaultSeedPath, "Path to catalog seed file")
	esIndex := esCmd.String("index", "", "Target index (defaults to database.elasticsearch.loan_index)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		loans := mustLoad(*validatePath)
		summarize(loans)
		fmt.Println("Catalog validation passed.")

	case "postgres":
		postgresCmd.Parse(os.Args[2:])
		loans := mustLoad(*postgresPath)
		if err := seedPostgres(ctx, loans); err != nil {
			fmt.Printf("Postgres seed failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Upserted %d loan products into postgres.\n", len(loans))

	case "elasticsearch":
		esCmd.Parse(os.Args[2:])
		loans := mustLoad(*esPath)
		index, err := seedElasticsearch(ctx, loans, *esIndex)
		if err != nil {
			fmt.Printf("Elasticsearch seed failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d loan products into %s.\n", len(loans), index)

	case "help":
		fallthrough
	default:
		help()
	}
}

func mustLoad(path string) []models.LoanProduct {
	loans, err := seed.LoadCatalog(path)
	if err != nil {
		fmt.Printf("Error loading catalog %s: %v\n", path, err)
		os.Exit(1)
	}
	return loans
}

func seedPostgres(ctx context.Context, loans []models.LoanProduct) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres unreachable: %w", err)
	}
	catalog := store.NewPostgresCatalog(pg.DB)
	if err := catalog.Upsert(ctx, loans); err != nil {
		return err
	}
	return invalidateCache(ctx, cfg, catalog)
}

func seedElasticsearch(ctx context.Context, loans []models.LoanProduct, index string) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if index == "" {
		index = cfg.Database.Elasticsearch.LoanIndex
	}
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return "", err
	}
	if err := es.Ping(ctx); err != nil {
		return "", err
	}
	catalog := store.NewElasticsearchCatalog(es.Client, index)
	if err := catalog.Index(ctx, loans); err != nil {
		return "", err
	}
	return index, invalidateCache(ctx, cfg, catalog)
}

// invalidateCache drops the cached active list so servers pick up the new
// seed before the cache TTL runs out.
func invalidateCache(ctx context.Context, cfg *config.Config, catalog store.Catalog) error {
	if cfg.Storage.CatalogCacheTTL <= 0 {
		return nil
	}
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	cached := store.NewCachedCatalog(catalog, rdb.Client, config.GetDuration(cfg.Storage.CatalogCacheTTL), logger.NewStructured("info", "console"))
	if err := cached.Invalidate(ctx); err != nil {
		return fmt.Errorf("catalog cache invalidation failed: %w", err)
	}
	fmt.Println("Catalog cache invalidated.")
	return nil
}

func summarize(loans []models.LoanProduct) {
	sorted := append([]models.LoanProduct(nil), loans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	active := 0
	for _, loan := range sorted {
		status := "inactive"
		if loan.IsActive {
			status = "active"
			active++
		}
		fmt.Printf("  %-18s %-8s ₹%s - ₹%s  (%s)\n",
			loan.ID, loan.LoanType,
			eligibility.FormatRupees(loan.LoanAmount.Min), eligibility.FormatRupees(loan.LoanAmount.Max),
			status)
	}
	fmt.Printf("%s products, %s active\n", humanize.Comma(int64(len(sorted))), humanize.Comma(int64(active)))
}

func help() {
	fmt.Println("Usage: seed-catalog <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  validate       Parse and check a catalog seed file")
	fmt.Println("  postgres       Upsert the seed into the loan_products table")
	fmt.Println("  elasticsearch  Index the seed into the loan catalog index")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nExamples:")
	fmt.Println("  go run cmd/tools/seed-catalog/main.go validate -path configs/catalog.yaml")
	fmt.Println("  go run cmd/tools/seed-catalog/main.go postgres")
	fmt.Println("  go run cmd/tools/seed-catalog/main.go elasticsearch -index loan-products")
}
