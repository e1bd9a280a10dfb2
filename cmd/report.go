package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"missionsec/pkg/reports"
)

func createSummaryCmd(opts *rootOptions) *cobra.Command {
	var filters filterFlags
	var showTabs bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print dashboard KPIs and charts to the console",
		Long:  `Loads the report file, applies the filters and prints the KPIs, chart series and timeline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.filter()
			if err != nil {
				return err
			}
			res, err := opts.load()
			if err != nil {
				return err
			}
			view := reports.BuildDashboardView(opts.cfg.Dashboard.Title, res, filter)
			reports.PrintSummary(cmd.OutOrStdout(), view)
			if showTabs && !view.Empty {
				for _, tab := range view.Tabs {
					fmt.Fprintln(cmd.OutOrStdout())
					reports.PrintTab(cmd.OutOrStdout(), tab)
				}
			}
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&showTabs, "tabs", false, "Also print the drill-down tables")
	return cmd
}

func createReportHTMLCmd(opts *rootOptions) *cobra.Command {
	var filters filterFlags
	var output string
	var serve bool
	var port string

	cmd := &cobra.Command{
		Use:   "report-html",
		Short: "Generate the HTML dashboard of the report file",
		Long:  `Renders the filtered dashboard to a standalone HTML file and optionally serves it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.filter()
			if err != nil {
				return err
			}
			res, err := opts.load()
			if err != nil {
				return err
			}
			view := reports.BuildDashboardView(opts.cfg.Dashboard.Title, res, filter)
			if err := reports.GenerateHTMLReport(view, output); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("HTML report written to %s", output))
			if !serve {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving HTML report at http://localhost:%s\n", port)
			return reports.ServeDashboard(cmd.Context(), ":"+port, reports.FileHandler(output))
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "security-report.html", "Output HTML file")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve the generated report over HTTP")
	cmd.Flags().StringVar(&port, "port", "8080", "Port used with --serve")
	return cmd
}
