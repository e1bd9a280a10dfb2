package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func createValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the report file and report problems",
		Long:  `Runs the loader over the report file and prints the row count and any warnings. Fatal problems exit non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range res.Warnings {
				color.New(color.FgYellow).Fprintf(out, "warning: %s\n", w)
			}
			color.New(color.FgGreen).Fprintf(out, "%s: %d rows, %d columns\n",
				opts.cfg.Data.CSVPath, res.Table.Len(), len(res.Table.Columns))
			return nil
		},
	}
}
