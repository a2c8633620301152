package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/config"
	"github.com/civicconnect/civic-services/internal/storage"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	count int
	seed  uint64
)

var rootCmd = &cobra.Command{
	Use:   "seed-complaints",
	Short: "Populate the store with sample citizen complaints",
	Long: `Create 10 sample citizens and random complaints around Mumbai.

Each complaint gets a jittered location, a weighted status, a creation date
within the last 30 days and a generated photo. Citizens that already exist
are reused, so the command can be run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().IntVarP(&count, "count", "n", sampleComplaints, "Number of complaints to create")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (defaults to the current time)")
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	fmt.Println("🏙️  Civic Connect - Sample Complaint Seeder")
	fmt.Println("==========================================")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logrus.SetLevel(logrus.WarnLevel)

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	media, err := storage.Open(ctx, cfg.StorageAccount, cfg.StorageContainer, cfg.MediaDir)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s := &seeder{
		store:   st,
		media:   media,
		manager: auth.NewManager(auth.NewCookieStore(cfg.SessionSecret, cfg.SecureCookies), st),
		rand:    rand.New(rand.NewPCG(seed, seed>>1)),
		now:     time.Now,
	}

	created, err := s.seed(ctx, count)
	fmt.Printf("\n✅ Successfully created %d complaints!\n", len(created))
	if err != nil {
		return err
	}

	all, err := st.ListComplaints(ctx, 0)
	if err == nil {
		fmt.Printf("📊 Total complaints in store: %d\n", len(all))
	}
	return nil
}
