package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/crmbridge/internal/core/config"
	"github.com/vietddude/crmbridge/internal/core/domain"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit [reference-id]",
	Short: "Look up audit entries on the running bridge",
	Long: `audit resolves the "Reference ID" from a tool error envelope to its
audit entries, or lists the most recent entries when no ID is given.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "number of recent entries to list")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	endpoint := fmt.Sprintf("http://localhost:%d/admin/audit?limit=%d", cfg.Server.HealthPort, auditLimit)
	if len(args) == 1 {
		endpoint = fmt.Sprintf("http://localhost:%d/admin/audit/%s",
			cfg.Server.HealthPort, url.PathEscape(args[0]))
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(endpoint)
	if err != nil {
		slog.Error("Failed to reach health server; is the bridge running?", "url", endpoint, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		fmt.Println("No audit entries for this reference ID.")
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("Audit lookup failed", "status", resp.StatusCode)
		os.Exit(1)
	}

	var body struct {
		Entries []*domain.AuditEntry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Error("Failed to decode audit entries", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tOPERATION\tRESOURCE\tOUTCOME\tSTATUS\tCORRELATION")
	for _, e := range body.Entries {
		outcome := string(e.Outcome)
		if e.Outcome == domain.AuditOutcomeFailure {
			outcome = fmt.Sprintf("%s (%s)", e.Outcome, e.Classification)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.Operation, e.Resource, outcome, e.Status, e.CorrelationID)
	}
	_ = w.Flush()
}
