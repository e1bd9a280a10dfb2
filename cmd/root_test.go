package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionsec/pkg/loader"
)

const testCSV = `mission,report_type,date,risk_level,status,attack_type,time_to_fix_hours
FLEX,Security Incident Report,2024-01-01,High,Investigating,Phishing,4
BIOMASS,Compliance Report,2024-01-02,,Closed,,
`

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	rootCmd := NewRootCmd()

	assert.Equal(t, "missionsec", rootCmd.Use)
	assert.Equal(t, "Mission security and compliance report dashboard", rootCmd.Short)

	csvFlag := rootCmd.PersistentFlags().Lookup("csv")
	require.NotNil(t, csvFlag)
	assert.Equal(t, loader.DefaultPath, csvFlag.DefValue)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}

func TestRootCommandSubcommands(t *testing.T) {
	rootCmd := NewRootCmd()
	subcommands := []string{"summary", "report-html", "serve", "validate"}

	actual := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		actual[cmd.Use] = true
	}
	for _, subcmd := range subcommands {
		assert.True(t, actual[subcmd], "Subcommand %s not found", subcmd)
	}
}

func TestCommandFactories(t *testing.T) {
	tests := []struct {
		name    string
		cmdFunc func(*rootOptions) *cobra.Command
	}{
		{"summary", createSummaryCmd},
		{"report-html", createReportHTMLCmd},
		{"serve", createServeCmd},
		{"validate", createValidateCmd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.cmdFunc(&rootOptions{})
			assert.NotNil(t, cmd)
			assert.Equal(t, tt.name, cmd.Use)
			assert.NotNil(t, cmd.RunE)
		})
	}
}

func TestFilterFlagsRegistered(t *testing.T) {
	for _, cmd := range []*cobra.Command{createSummaryCmd(&rootOptions{}), createReportHTMLCmd(&rootOptions{})} {
		for _, name := range []string{"mission", "report-type", "risk-level", "from", "to"} {
			assert.NotNil(t, cmd.Flags().Lookup(name), "%s: flag %s", cmd.Use, name)
		}
	}
}

func TestReportHTMLCmdFlagsDefaults(t *testing.T) {
	cmd := createReportHTMLCmd(&rootOptions{})

	outputFlag := cmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "security-report.html", outputFlag.DefValue)

	portFlag := cmd.Flags().Lookup("port")
	require.NotNil(t, portFlag)
	assert.Equal(t, "8080", portFlag.DefValue)
}

func TestSummaryCommand(t *testing.T) {
	path := writeTestCSV(t)

	out, err := run(t, "summary", "--csv", path, "--tabs")
	require.NoError(t, err)

	assert.Contains(t, out, "Total Reports Logged")
	assert.Contains(t, out, "Phishing")
	assert.Contains(t, out, "Security Incident Details")
}

func TestSummaryCommandFilters(t *testing.T) {
	path := writeTestCSV(t)

	out, err := run(t, "summary", "--csv", path, "--mission", "SMOS")
	require.NoError(t, err)
	assert.Contains(t, out, "No data available for the selected filters.")

	_, err = run(t, "summary", "--csv", path, "--from", "01/02/2024")
	assert.Error(t, err)
}

func TestReportHTMLCommand(t *testing.T) {
	path := writeTestCSV(t)
	output := filepath.Join(t.TempDir(), "dashboard.html")

	out, err := run(t, "report-html", "--csv", path, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "HTML report written to")

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Mission Security Dashboard")
}

func TestValidateCommand(t *testing.T) {
	path := writeTestCSV(t)

	out, err := run(t, "validate", "--csv", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows, 7 columns")
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, err := run(t, "validate", "--csv", filepath.Join(t.TempDir(), "missing.csv"))

	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrNotFound)
}

func TestReportHTMLServeStopsWithContext(t *testing.T) {
	path := writeTestCSV(t)
	output := filepath.Join(t.TempDir(), "dashboard.html")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := runContext(t, ctx, "report-html", "--csv", path, "--output", output, "--serve", "--port", "0")
	require.NoError(t, err)

	assert.Contains(t, out, "Serving HTML report at http://localhost:0")
	assert.FileExists(t, output)
}

func TestWarningsReportedOnce(t *testing.T) {
	content := testCSV + "SMOS,Compliance Report,2024-01-03,Low,Closed,None,1,extra\n"
	path := filepath.Join(t.TempDir(), "reports.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := run(t, "validate", "--csv", path)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "loaded with 1 line(s) skipped due to parsing errors"))
	assert.Contains(t, out, "2 rows, 7 columns")
}

func TestLogFileClosedAfterRun(t *testing.T) {
	path := writeTestCSV(t)
	dir := t.TempDir()
	logFile := filepath.Join(dir, "missionsec.log")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  file: "+logFile+"\n"), 0o644))

	root, opts := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"validate", "--csv", path, "--config", configPath})
	require.NoError(t, root.Execute())

	assert.Nil(t, opts.closeLog)
	assert.FileExists(t, logFile)
	assert.NoError(t, opts.close())
}
