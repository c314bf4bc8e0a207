package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"jugglerbayes/app"
	"jugglerbayes/internal/catalog"
	"jugglerbayes/internal/config"
	"jugglerbayes/internal/logging"
	"jugglerbayes/internal/report"
)

func main() {
	config.LoadDotEnv()

	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// catalogFlags selects where the setting tables come from
type catalogFlags struct {
	File    string
	Builtin string
	JSON    bool
}

func (f *catalogFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.File, "catalog", os.Getenv("CATALOG_FILE"), "Catalog file (.yaml, .yml, .xlsx, .csv); empty uses the built-in table")
	fs.StringVar(&f.Builtin, "builtin", "myjuggler5", "Built-in catalog used when --catalog is empty")
	fs.BoolVar(&f.JSON, "json", false, "Print the report as JSON")
}

func (f *catalogFlags) service(ctx context.Context) (*app.EstimationService, error) {
	src, err := catalog.Open(f.File, f.Builtin)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.NewEstimationService(ctx, src, app.ServiceOptions{
		SweepWorkers:   cfg.Sweep.Workers,
		SweepMaxPoints: cfg.Sweep.MaxPoints,
		MaxTrials:      cfg.Limits.MaxTrials,
	})
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "jugglerbayes",
		Short: "Estimate which Juggler setting a machine is on from a session tally",
		Long: `jugglerbayes compares an observed win count against each setting's
success probability and reports the posterior probability of every setting.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// reports go to stdout, so keep logs on stderr
			logging.SetOutput(cmd.ErrOrStderr())
			return logging.Setup(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"),
		"Log level (trace,debug,info,warn,error)")

	rootCmd.AddCommand(
		newEstimateCmd(),
		newSweepCmd(),
		newSettingsCmd(),
	)
	return rootCmd
}

func newEstimateCmd() *cobra.Command {
	f := &catalogFlags{}
	var trials, successes int

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the setting for one session",
		Long: `Estimate the posterior distribution over settings for one session.

Example: jugglerbayes estimate --trials 2000 --successes 345`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := f.service(cmd.Context())
			if err != nil {
				return err
			}
			r, err := svc.Estimate(cmd.Context(), app.EstimateRequest{Trials: trials, Successes: successes})
			if err != nil {
				return err
			}
			if f.JSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			return report.WriteText(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().IntVar(&trials, "trials", 0, "Total games played")
	cmd.Flags().IntVar(&successes, "successes", 0, "Wins observed (big bonus + regular bonus)")
	_ = cmd.MarkFlagRequired("trials")
	_ = cmd.MarkFlagRequired("successes")
	f.BindFlags(cmd.Flags())
	return cmd
}

func newSweepCmd() *cobra.Command {
	f := &catalogFlags{}
	var req app.SweepRequest

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Estimate across a range of success counts",
		Long: `Estimate the most likely setting for every success count in a range,
holding the number of games fixed.

Example: jugglerbayes sweep --trials 3000 --from 480 --to 560 --step 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := f.service(cmd.Context())
			if err != nil {
				return err
			}
			r, err := svc.Sweep(cmd.Context(), req)
			if err != nil {
				return err
			}
			if f.JSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			return report.WriteSweepText(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().IntVar(&req.Trials, "trials", 0, "Total games played")
	cmd.Flags().IntVar(&req.From, "from", 0, "First success count")
	cmd.Flags().IntVar(&req.To, "to", 0, "Last success count")
	cmd.Flags().IntVar(&req.Step, "step", 1, "Increment between success counts")
	_ = cmd.MarkFlagRequired("trials")
	_ = cmd.MarkFlagRequired("to")
	f.BindFlags(cmd.Flags())
	return cmd
}

func newSettingsCmd() *cobra.Command {
	f := &catalogFlags{}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the setting table estimates run against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := f.service(cmd.Context())
			if err != nil {
				return err
			}
			c := svc.Catalog()
			if f.JSON {
				return writeJSON(cmd.OutOrStdout(), c)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog: %s\n", c.Name)
			fmt.Fprintf(out, "%-10s %-12s %s\n", "setting", "probability", "prior")
			for _, l := range c.Labels() {
				fmt.Fprintf(out, "%-10s 1/%-10.2f %s\n", l, 1/c.Probabilities[l], report.FormatPercent(c.Priors[l]))
			}
			fmt.Fprintf(out, "\nBuilt-in catalogs: %v\n", catalog.Builtins())
			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
