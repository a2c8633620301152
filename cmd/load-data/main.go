package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/config"
	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/notifications"
	"github.com/civicconnect/civic-services/internal/storage"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir      string
	fixturesPath string
	notify       bool
)

var rootCmd = &cobra.Command{
	Use:   "load-data [dataset...]",
	Short: "Load the infrastructure CSV files into the store",
	Long: `Load replaces the analytics tables from the CSV files in the data directory.

With no arguments every dataset is loaded and an import report is written to
the media storage. Naming datasets loads only those.

Datasets: ` + strings.Join(ingest.Datasets, ", ") + `

Examples:
  load-data                                   # Load every dataset
  load-data projects metro                    # Load two datasets
  load-data --fixtures data/recycling.json    # Also upsert the recycling guides and centers
  load-data --notify                          # Send the report to Teams and email`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the CSV files (defaults to DATA_DIR)")
	rootCmd.Flags().StringVar(&fixturesPath, "fixtures", "", "JSON file with recycling categories, guides and centers")
	rootCmd.Flags().BoolVar(&notify, "notify", false, "Send the import report through the configured channels")
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, datasets []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	for _, d := range datasets {
		if !validDataset(d) {
			return fmt.Errorf("unknown dataset %q, expected one of %s", d, strings.Join(ingest.Datasets, ", "))
		}
	}

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	loader := ingest.NewLoader(dataDir, st)

	fmt.Println("📦 Civic Connect - Data Loader")
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("📁 Data directory: %s\n", dataDir)

	failed := false
	if len(datasets) == 0 {
		report, err := runAll(ctx, cfg, loader)
		if report == nil {
			return err
		}
		if err != nil {
			fmt.Printf("⚠️  Warning: %v\n", err)
		}
		printReport(report)
		failed = report.Failed()
	} else {
		for _, d := range datasets {
			fmt.Printf("🔸 Loading %s... ", d)
			rows, err := loader.Load(ctx, d)
			if err != nil {
				fmt.Printf("❌ ERROR: %v\n", err)
				failed = true
				continue
			}
			fmt.Printf("✅ %d rows\n", rows)
		}
	}

	if fixturesPath != "" {
		fmt.Printf("🔸 Loading recycling fixtures from %s... ", fixturesPath)
		fixtures, err := loader.LoadRecyclingFixtures(ctx, fixturesPath)
		if err != nil {
			fmt.Printf("❌ ERROR: %v\n", err)
			failed = true
		} else {
			fmt.Printf("✅ %d categories, %d guides, %d centers\n",
				len(fixtures.Categories), len(fixtures.Guides), len(fixtures.Centers))
		}
	}

	if failed {
		return fmt.Errorf("one or more loads failed")
	}
	fmt.Println("\n✅ Data load completed!")
	return nil
}

// runAll loads every dataset through the import service so the report is
// stored like a scheduled reload
func runAll(ctx context.Context, cfg *config.Config, loader *ingest.Loader) (*models.ImportReport, error) {
	media, err := storage.Open(ctx, cfg.StorageAccount, cfg.StorageContainer, cfg.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var notifier notifications.NotificationInterface = notifications.Discard{}
	if notify {
		notifier = notifications.NewService(cfg)
	}
	return ingest.NewService(loader, media, notifier).RunAll(ctx, ingest.TriggerCLI)
}

func printReport(report *models.ImportReport) {
	fmt.Printf("🕒 Generated: %s (%s)\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"), report.Duration)
	for _, res := range report.Results {
		if res.Error != "" {
			fmt.Printf("   ❌ %-12s %s\n", res.Dataset+":", res.Error)
			continue
		}
		fmt.Printf("   ✅ %-12s %d rows\n", res.Dataset+":", res.Rows)
	}
}

func validDataset(name string) bool {
	for _, d := range ingest.Datasets {
		if d == name {
			return true
		}
	}
	return false
}
