package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/cache"
	"github.com/civicconnect/civic-services/internal/clients"
	"github.com/civicconnect/civic-services/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🔍 Civic Connect - API Connectivity Test")
	fmt.Println("========================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("\n📡 Testing third-party APIs...")
	fmt.Println(strings.Repeat("-", 40))

	checkClient(ctx, clients.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL))
	checkClient(ctx, clients.NewPlacesClient(cfg.GoogleMapsAPIKeys, cfg.PlacesBaseURL, cfg.PlacesRadius,
		cache.New("maps", cfg.MapsCacheTTL), cache.New("working_keys", cfg.WorkingKeyCacheTTL)))
	checkClient(ctx, clients.NewRoutesClient(cfg.OpenRouteAPIKey, cfg.OpenRouteBaseURL))

	fmt.Printf("\n🔑 Google Maps keys configured: %d\n", len(cfg.GoogleMapsAPIKeys))
	fmt.Println("\n✅ API connectivity test completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing API keys in .env file")
	fmt.Println("   • Load the datasets with: go run ./cmd/load-data")
	fmt.Println("   • Start the portal with: go run ./cmd/server")
}

func checkClient(ctx context.Context, client clients.Client) {
	fmt.Printf("🔸 Testing %s... ", client.Name())

	if !client.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing API key)\n")
		return
	}

	start := time.Now()
	if err := client.Check(ctx); err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%s)\n", time.Since(start).Round(time.Millisecond))
}
