// Package cli wires up the command line and dispatches into the sync
// pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fitoori/squirt/internal/config"
	"github.com/fitoori/squirt/internal/models"
	"github.com/fitoori/squirt/internal/pipeline"
	"github.com/fitoori/squirt/internal/result"
)

// version is overridable at link time:
//
//	go build -ldflags "-X github.com/fitoori/squirt/internal/cli.version=1.2.0"
var version = "dev"

// ExitError carries a contract exit code out of cobra's error plumbing.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var (
		configPath  string
		logPath     string
		profileName string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "squirt-sync",
		Short: "Network-quality-gated unison sync runner",
		Long: "squirt-sync probes the wireless link, decides whether conditions allow a\n" +
			"replication run, executes unison under a hard timeout when they do, and\n" +
			"always appends exactly one result record for the dashboard.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logPath != "" {
				cfg.LogPath = logPath
			}
			if profileName != "" {
				cfg.Profile = profileName
			}

			p := pipeline.New(cfg, pipeline.WithDryRun(dryRun))
			if code := p.Run(cmd.Context()); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	// --log-file is the historical spelling from the shell days.
	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "log-file" {
			name = "log"
		}
		return pflag.NormalizedName(name)
	})

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (YAML)")
	cmd.Flags().StringVar(&logPath, "log", "", "result log path (overrides config and UNISON_LOG)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "unison profile name (overrides config)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "probe and gate only, do not sync")

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	log.SetFlags(log.LstdFlags | log.LUTC)
	log.SetPrefix("squirt-sync ")

	err := NewRootCmd().ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		// The pipeline already emitted its record and logged the cause.
		return exitErr.Code
	}

	// Setup failed before the pipeline could own the record guarantee
	// (bad flags, unreadable config). Still leave one FAIL record at the
	// default destination so nothing exits unrecorded.
	fmt.Fprintln(os.Stderr, "Error:", err)
	cfg := config.DefaultConfig()
	result.NewEmitter(cfg.LogPath, cfg.LogFormat).Emit(models.ResultRecord{
		Timestamp: time.Now().UTC(),
		Status:    models.StatusFail,
		Reason:    models.ReasonFault,
		RSSI:      models.RSSIUnknown,
		Loss:      100,
		Latency:   models.LatencyUnknown,
		Exit:      models.ExitInternal,
	})
	return models.ExitInternal
}
