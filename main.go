package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/crm/attio"
	"github.com/vietddude/crmbridge/internal/infra/remote"
	"github.com/vietddude/crmbridge/internal/infra/remote/resilience"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	ATTIO_API_KEY := os.Getenv("ATTIO_API_KEY")
	if ATTIO_API_KEY == "" {
		log.Fatalf("ATTIO_API_KEY is not set")
	}

	ctx := context.Background()

	// 1. Create provider
	provider := remote.NewHTTPProvider("attio", "https://api.attio.com", ATTIO_API_KEY, 30*time.Second)

	// 2. Setup breaker and budget tracker
	breaker := remote.NewBreaker("attio", remote.DefaultBreakerConfig)
	tracker := remote.NewTracker(100000)

	// 3. Create client with the full resilience chain
	client := attio.NewClient(provider, breaker, tracker, resilience.DefaultRetryPolicy, nil)

	fmt.Println("=== Testing Attio record layer ===")

	// 4. Fetch the companies schema
	schema, err := client.GetObjectSchema(ctx, "companies")
	if err != nil {
		log.Fatalf("Schema fetch failed: %v", err)
	}
	fmt.Printf("companies has %d attributes, required: %v\n",
		len(schema.Attributes), schema.RequiredAttributes())

	// 5. Run a few queries to exercise retry/breaker paths
	for i := 0; i < 5; i++ {
		records, err := client.SearchRecords(ctx, client, domain.ResourceCompanies, attio.Query{Limit: 3})
		if err != nil {
			log.Printf("Query %d failed: %v", i+1, err)
			continue
		}
		fmt.Printf("Query %d: %d records\n", i+1, len(records))

		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println()

	// 6. Show breaker and provider state
	fmt.Println("=== Resilience state ===")
	fmt.Printf("Breaker: %s (failures: %d)\n", breaker.State(), breaker.FailureCount())

	health := provider.GetHealth()
	fmt.Printf("Provider: available=%t error_rate=%.2f latency=%v\n",
		health.Available, health.ErrorRate, health.Latency)

	// 7. Show budget usage
	usage := tracker.GetUsage()
	fmt.Printf("Total calls made: %d / %d (%.1f%%)\n",
		usage.TotalCalls, usage.DailyLimit, usage.UsagePercentage)
}
