package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/keckobservatory/koa-daa/internal/config"
	"github.com/keckobservatory/koa-daa/internal/report"
)

var observersCmd = &cobra.Command{
	Use:   "observers <start> <end>",
	Short: "Audit scheduled observer accounts for a date range",
	Long: `Examine every observer scheduled between start and end (yyyy-mm-dd)
against the partner registry and bucket the accounts: valid, nonexistent,
keckid mismatch, no program access yet, ignored, or needing attention.

  daa observers 2024-08-27 2025-02-01`,
	Args: cobra.ExactArgs(2),
	RunE: runObservers,
}

func init() {
	rootCmd.AddCommand(observersCmd)
}

func runObservers(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(dateFormat, args[0])
	if err != nil {
		return fmt.Errorf("not a valid date: %q", args[0])
	}
	end, err := time.Parse(dateFormat, args[1])
	if err != nil {
		return fmt.Errorf("not a valid date: %q", args[1])
	}
	if end.Before(start) {
		return fmt.Errorf("end date %s precedes start date %s", args[1], args[0])
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	days := int(end.Sub(start).Hours()/24) + 1
	fmt.Printf("Date range is %s to %s [%d day(s)]\n", args[0], args[1], days)

	engine, _ := newEngine(cfg, false)
	buckets, err := engine.AuditObservers(context.Background(), start, end, cfg.Policy.IgnoredObserverEmails)
	if err != nil {
		return err
	}
	return report.RenderAudit(os.Stdout, buckets)
}
