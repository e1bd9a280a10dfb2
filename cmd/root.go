package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"missionsec/pkg/config"
	"missionsec/pkg/loader"
	"missionsec/pkg/logger"
	"missionsec/pkg/riskposture"
)

// rootOptions is the state shared by every subcommand.
type rootOptions struct {
	csvPath    string
	configPath string
	logLevel   string

	cfg      *config.Config
	log      *logrus.Logger
	closeLog func() error
	cache    *loader.Cache
}

// setup resolves configuration, logger and cache. CLI flags win over the
// config file and the environment.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("csv") {
		cfg.Data.CSVPath = o.csvPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	log, closeLog, err := logger.InitLogger(cfg.Log.Level, cfg.Log.File, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	o.cfg = cfg
	o.log = log
	o.closeLog = closeLog
	o.cache = loader.NewCache(loader.WithLogger(log))
	return nil
}

// close releases the log file opened by setup.
func (o *rootOptions) close() error {
	if o.closeLog == nil {
		return nil
	}
	err := o.closeLog()
	o.closeLog = nil
	return err
}

// load returns the report table through the cache. The loader itself logs
// the warnings it raises.
func (o *rootOptions) load() (*loader.Result, error) {
	return o.cache.Load(o.cfg.Data.CSVPath)
}

// filterFlags are the dashboard filter controls shared by summary and report-html.
type filterFlags struct {
	missions    []string
	reportTypes []string
	riskLevels  []string
	from        string
	to          string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.missions, "mission", nil, "Only include these missions (repeatable)")
	cmd.Flags().StringSliceVar(&f.reportTypes, "report-type", nil, "Only include these report types (repeatable)")
	cmd.Flags().StringSliceVar(&f.riskLevels, "risk-level", nil, "Only include these risk levels (repeatable)")
	cmd.Flags().StringVar(&f.from, "from", "", "Earliest report date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "Latest report date, YYYY-MM-DD")
}

func (f *filterFlags) filter() (riskposture.Filter, error) {
	out := riskposture.Filter{
		Missions:    f.missions,
		ReportTypes: f.reportTypes,
		RiskLevels:  f.riskLevels,
	}
	var err error
	if f.from != "" {
		if out.From, err = time.Parse(time.DateOnly, f.from); err != nil {
			return out, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if f.to != "" {
		if out.To, err = time.Parse(time.DateOnly, f.to); err != nil {
			return out, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return out, nil
}

// NewRootCmd builds the missionsec command tree.
func NewRootCmd() *cobra.Command {
	rootCmd, _ := newRootCmd()
	return rootCmd
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "missionsec",
		Short:         "Mission security and compliance report dashboard",
		Long:          "Loads mission security report CSV files and renders KPIs, charts and drill-down tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.csvPath, "csv", loader.DefaultPath, "Path to the mission security reports CSV")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(createSummaryCmd(opts))
	rootCmd.AddCommand(createReportHTMLCmd(opts))
	rootCmd.AddCommand(createServeCmd(opts))
	rootCmd.AddCommand(createValidateCmd(opts))
	return rootCmd, opts
}

// Execute runs the command tree with ctx. The log file is closed even when
// the command fails.
func Execute(ctx context.Context) error {
	rootCmd, opts := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if cerr := opts.close(); err == nil {
		err = cerr
	}
	return err
}
