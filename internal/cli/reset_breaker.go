package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/crmbridge/internal/core/config"
)

var resetBreakerCmd = &cobra.Command{
	Use:   "reset-breaker",
	Short: "Force the circuit breaker closed on the running bridge",
	Run:   runResetBreaker,
}

func init() {
	rootCmd.AddCommand(resetBreakerCmd)
}

func runResetBreaker(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://localhost:%d/admin/breaker/reset", cfg.Server.HealthPort)

	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		slog.Error("Failed to reach health server; is the bridge running?", "url", url, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Breaker reset failed", "status", resp.StatusCode)
		os.Exit(1)
	}

	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	fmt.Printf("Breaker state: %s\n", body["breaker"])
}
