package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/keckobservatory/koa-daa/internal/config"
	"github.com/keckobservatory/koa-daa/internal/report"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Reconcile program access for a date window",
	Long: `Reconcile every program scheduled in the window against the partner
registry and report who lacks access.

Check tonight:
  daa verify

Check next month and mail the report:
  daa verify --date 2024-02-01 --numdays 29 --email

Submit the corrective actions after reporting:
  daa verify --date 2024-02-01 --numdays 29 --apply`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

var (
	verifyDate    string // --date: window start, yyyy-mm-dd HST
	verifyNumDays int    // --numdays: window length, clamped to [1,180]
	verifyEmail   bool   // --email: mail the report instead of printing
	verifyPIOnly  bool   // --pi-only: roster is the PI alone, no staff/admins
	verifyApply   bool   // --apply: submit actions to the partner registry
)

func init() {
	verifyCmd.Flags().StringVar(&verifyDate, "date", "", "Run date (yyyy-mm-dd, default today)")
	verifyCmd.Flags().IntVar(&verifyNumDays, "numdays", 1, "Number of days from the run date (1 to 180)")
	verifyCmd.Flags().BoolVar(&verifyEmail, "email", false, "Mail the report to the configured recipients")
	verifyCmd.Flags().BoolVar(&verifyPIOnly, "pi-only", false, "Verify PIs only, skipping staff and admin entries")
	verifyCmd.Flags().BoolVar(&verifyApply, "apply", false, "Submit corrective actions to the partner registry")

	rootCmd.AddCommand(verifyCmd)
}

const dateFormat = "2006-01-02"

func runVerify(cmd *cobra.Command, args []string) error {
	start := time.Now()
	if verifyDate != "" {
		var err error
		start, err = time.Parse(dateFormat, verifyDate)
		if err != nil {
			return fmt.Errorf("not a valid date: %q", verifyDate)
		}
	}

	numDays := verifyNumDays
	if numDays < 1 {
		numDays = 1
	}
	if numDays > 180 {
		numDays = 180
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// One reconciliation at a time; overlapping cron runs would hammer
	// the upstream APIs for an identical answer.
	lock := flock.New(filepath.Join(os.TempDir(), "koa-daa.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another reconciliation run is in progress")
	}
	defer lock.Unlock()

	runID := uuid.NewString()
	log := slog.Default().With("run", runID)
	log.Info("starting reconciliation",
		"date", start.Format(dateFormat), "numdays", numDays, "pi_only", verifyPIOnly)

	engine, partner := newEngine(cfg, verifyPIOnly)
	engine.Log = log

	ctx := context.Background()
	results, err := engine.Run(ctx, start, numDays)
	if err != nil {
		if verifyEmail {
			if mailErr := report.NewMailer(cfg.Report).Send(err.Error(), true); mailErr != nil {
				log.Error("mailing failure notice", "err", mailErr)
			}
		}
		return err
	}

	rep := report.Assemble(runID, start, numDays, results)

	if verifyEmail {
		body, err := rep.Text()
		if err != nil {
			return err
		}
		if err := report.NewMailer(cfg.Report).Send(body, false); err != nil {
			return err
		}
		log.Info("report mailed", "recipients", len(cfg.Report.Recipients))
	} else {
		styled := term.IsTerminal(int(os.Stdout.Fd()))
		if err := report.Render(os.Stdout, rep, styled); err != nil {
			return err
		}
	}

	if verifyApply {
		applied, failed := engine.Apply(ctx, partner, results)
		log.Info("actions submitted", "applied", applied, "failed", failed)
		if failed > 0 {
			return fmt.Errorf("%d action(s) failed to apply", failed)
		}
	}
	return nil
}
