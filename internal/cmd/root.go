// Package cmd implements the daa command tree.
package cmd

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/keckobservatory/koa-daa/internal/archive"
	"github.com/keckobservatory/koa-daa/internal/config"
	"github.com/keckobservatory/koa-daa/internal/keck"
	"github.com/keckobservatory/koa-daa/internal/reconcile"
	"github.com/keckobservatory/koa-daa/internal/style"
)

var rootCmd = &cobra.Command{
	Use:   "daa",
	Short: "KOA data access reconciliation",
	Long: `daa reconciles the observatory's scheduling and personnel registries
against the partner archive's access-control registry. For each observing
program in a date window it determines which required people (PI, COIs,
observers, staff, admins) lack archive access and emits the corrective
actions needed, optionally mailing the report or submitting the actions.

Designed to run from cron; every run recomputes from the live registries
and persists nothing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var (
	cfgPath string
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "daa.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

// Execute runs the command tree. Fatal failures print a diagnostic and exit
// nonzero with no report.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.ErrorPrefix, err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// newEngine wires the reconciliation engine from configuration. The archive
// client is returned separately for the --apply path.
func newEngine(cfg *config.Config, piOnly bool) (*reconcile.Engine, *archive.Client) {
	var keckOpts []keck.Option
	if cfg.API.InsecureSkipVerify {
		keckOpts = append(keckOpts, keck.WithInsecureTLS())
	}
	wmko := keck.New(keck.Endpoints{
		Schedule: cfg.API.ScheduleURL,
		Employee: cfg.API.EmployeeURL,
		Observer: cfg.API.ObserverURL,
		COI:      cfg.API.COIURL,
		KOA:      cfg.API.KoaURL,
		KPF:      cfg.API.KpfURL,
		UserInfo: cfg.API.UserInfoURL,
	}, keckOpts...)

	var archiveOpts []archive.Option
	if cfg.API.InsecureSkipVerify {
		archiveOpts = append(archiveOpts, archive.WithHTTPClient(insecureHTTPClient()))
	}
	partner := archive.New(archive.Endpoints{
		Access:    cfg.Archive.AccessURL,
		UserCheck: cfg.Archive.UserCheckURL,
	}, cfg.Archive.User, cfg.Archive.Password, archiveOpts...)

	engine := &reconcile.Engine{
		Schedule:    wmko,
		Staff:       wmko,
		Observers:   wmko,
		CoverSheets: wmko,
		Registry:    partner,
		Policy: reconcile.Policy{
			AdminHandles:    cfg.Policy.AdminUserIDs,
			KPFAdminHandle:  cfg.Policy.KPFAdminUserID,
			IgnoredPIEmails: cfg.Policy.IgnoredPIEmails,
			SkipInstruments: cfg.Policy.SkipInstruments,
			PIOnly:          piOnly,
		},
		Log: slog.Default(),
	}
	return engine, partner
}

func insecureHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}
