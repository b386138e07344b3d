// Package cmd implements the swarmstat commands.
package cmd

import (
	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/pkg/profiling"
	"github.com/grovetools/swarmstat/version"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the swarmstat command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"swarmstat",
		"Session tree analytics and waste detection for opencode agent swarms",
	)
	root.Long = `Aggregates an opencode root session and every delegated sub-agent session
into one tree, estimates token spend and surfaces wasteful patterns.

Commands query a running 'swarmstat serve' when there is one and read the
session store directly otherwise.`
	root.PersistentFlags().Bool("local", false, "Read the session store directly, even when a server is running")
	cli.SetVersionTemplate(root, version.GetInfo())

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(root)
	root.PersistentPreRunE = profiler.PreRun
	root.PersistentPostRun = profiler.PostRun

	root.AddCommand(
		NewProjectsCmd(),
		NewSessionsCmd(),
		NewTreeCmd(),
		NewWasteCmd(),
		NewSummaryCmd(),
		NewReportCmd(),
		NewSwarmCmd(),
		NewImportCmd(),
		NewServeCmd(),
		NewWatchCmd(),
		NewDashCmd(),
		NewAgentsCmd(),
		NewConfigCmd(),
		NewPathsCmd(),
		cli.NewVersionCommand("swarmstat", version.GetInfo()),
	)
	cli.ApplyStyledHelpRecursive(root)
	return root
}
