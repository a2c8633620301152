package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/config"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	username  string
	email     string
	password  string
	firstName string
	lastName  string
)

var rootCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a staff user for the officials dashboard",
	Long: `Create a staff user. Staff can update complaint statuses, reload the CSV
datasets and delete any discussion.

The password is read from --password or, when that is empty, ADMIN_PASSWORD.

Examples:
  create-admin --username official --email official@example.com --password 's3cret-pass'
  ADMIN_PASSWORD='s3cret-pass' create-admin --username official`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	rootCmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "Password, at least 8 characters")
	rootCmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	rootCmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	_ = rootCmd.MarkFlagRequired("username")
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	manager := auth.NewManager(auth.NewCookieStore(cfg.SessionSecret, cfg.SecureCookies), st)
	user, err := manager.Register(ctx, auth.Registration{
		Username:  username,
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		IsStaff:   true,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("user %q already exists", username)
		}
		return fmt.Errorf("failed to create staff user: %w", err)
	}

	fmt.Printf("✅ Created staff user %s (id %d)\n", user.Username, user.ID)
	return nil
}
