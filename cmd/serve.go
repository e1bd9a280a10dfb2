package cmd

import (
	"github.com/spf13/cobra"

	"missionsec/pkg/reports"
)

func createServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive dashboard over HTTP",
		Long:  `Serves the dashboard with query-string filters. The report file is loaded once and cached until POST /reload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				opts.cfg.Server.Addr = addr
			}
			// Fail fast when the report file cannot be loaded.
			if _, err := opts.load(); err != nil {
				return err
			}
			h := reports.NewHandler(opts.cache, opts.cfg.Data.CSVPath, opts.cfg.Dashboard.Title, opts.log)
			opts.log.WithField("addr", opts.cfg.Server.Addr).Info("serving dashboard")
			return reports.ServeDashboard(cmd.Context(), opts.cfg.Server.Addr, h)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}
