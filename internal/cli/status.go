package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/crmbridge/internal/bridge/health"
	"github.com/vietddude/crmbridge/internal/core/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current health of the running bridge",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://localhost:%d/health/detailed", cfg.Server.HealthPort)

	resp, err := client.Get(url)
	if err != nil {
		slog.Error("Failed to reach health server; is the bridge running?", "url", url, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var report health.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		slog.Error("Failed to decode health report", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS")
	_, _ = fmt.Fprintf(w, "overall\t%s\n", report.Status)
	_, _ = fmt.Fprintf(w, "breaker\t%s (failures: %d)\n", report.Breaker.State, report.Breaker.FailureCount)
	_, _ = fmt.Fprintf(w, "quota\t%d/%d (%.1f%%)\n",
		report.Quota.TotalCalls, report.Quota.DailyLimit, report.Quota.UsagePercentage)
	_, _ = fmt.Fprintf(w, "provider\tavailable=%t latency=%dms\n",
		report.Provider.Available, report.Provider.LatencyMs)
	_, _ = fmt.Fprintf(w, "audit store\t%s\n", report.Dependencies.AuditStore)
	if report.Dependencies.Cache != "" {
		_, _ = fmt.Fprintf(w, "cache\t%s\n", report.Dependencies.Cache)
	}
	_ = w.Flush()
}
