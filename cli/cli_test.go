package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/version"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOptions(t *testing.T) {
	cmd := NewStandardCommand("swarmstat", "test")
	require.NoError(t, cmd.ParseFlags([]string{"-v", "--json", "-c", "custom.yml"}))

	opts := GetOptions(cmd)
	assert.True(t, opts.Verbose)
	assert.True(t, opts.JSONOutput)
	assert.Equal(t, "custom.yml", opts.ConfigFile)

	path, err := InitConfig("custom.yml")
	require.NoError(t, err)
	assert.Equal(t, "custom.yml", path)
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	cmd := NewStandardCommand("swarmstat", "test")
	require.NoError(t, cmd.ParseFlags([]string{"-c", "/does/not/exist/swarmstat.yml"}))

	_, err := LoadConfig(cmd)
	assert.True(t, swerrors.Is(err, swerrors.ErrCodeConfigNotFound))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"session", swerrors.SessionNotFound("p", "s"), "swarmstat sessions <project>"},
		{"project", swerrors.ProjectNotFound("p"), "swarmstat projects"},
		{"forbidden", swerrors.ForbiddenPath("/etc/passwd"), ".opencode"},
		{"plain", fmt.Errorf("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &ErrorHandler{Out: &buf}
			assert.Equal(t, tt.err, h.Handle(tt.err))
			assert.Contains(t, buf.String(), "Error: ")
			if tt.want != "" {
				assert.Contains(t, buf.String(), tt.want)
			} else {
				assert.Empty(t, Hint(tt.err))
			}
		})
	}

	assert.NoError(t, NewErrorHandler(false).Handle(nil))
}

func TestErrorHandlerVerbose(t *testing.T) {
	var buf bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &buf}
	_ = h.Handle(swerrors.ProjectNotFound("p"))
	assert.Contains(t, buf.String(), `"code": "PROJECT_NOT_FOUND"`)
}

func TestPrintTableFallsBackToTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, []string{"ID", "TITLE"}, [][]string{{"a", "multi\nline"}, {"b", "tab\there"}}))
	assert.Equal(t, "ID\tTITLE\na\tmulti line\nb\ttab here\n", buf.String())
	assert.False(t, IsTerminal(&buf))
	assert.Equal(t, 80, TerminalWidth(&buf, 80))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Update("b", "started")
	p.Update("a", "completed")
	p.Update("b", "failed")
	p.Done()

	assert.Equal(t, [][2]string{{"a", "completed"}, {"b", "failed"}}, p.Statuses())
	assert.Contains(t, buf.String(), "[~] b: started")
	assert.Contains(t, buf.String(), "Operation completed in")
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("swarmstat", "Session tree analytics")
	sub := &cobra.Command{
		Use:     "waste <project> <session>",
		Short:   "List waste findings",
		Example: "# findings as JSON\nswarmstat waste proj ses_1 --json",
		Run:     func(cmd *cobra.Command, args []string) {},
	}
	sub.Flags().Bool("all", false, "Show every finding")
	root.AddCommand(sub)
	ApplyStyledHelpRecursive(root)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"waste", "--help"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "SWARMSTAT WASTE")
	assert.Contains(t, out, "USAGE")
	assert.Contains(t, out, "--all")
	assert.Contains(t, out, "EXAMPLES")
	assert.True(t, strings.Contains(out, "waste") && strings.Contains(out, "proj"))
}

func TestVersionCommand(t *testing.T) {
	info := version.Info{Version: "1.2.3", Commit: "abcdef0123", BuildDate: "2026-01-01", Platform: "linux/amd64"}
	root := NewStandardCommand("swarmstat", "test")
	root.AddCommand(NewVersionCommand("swarmstat", info))

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), `"version": "1.2.3"`)

	assert.Equal(t, "1.2.3 (abcdef0, 2026-01-01, linux/amd64)", info.String())
}
