package cmd

import (
	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the directories and files swarmstat reads and writes.
type PathsOutput struct {
	ConfigDir      string `json:"config_dir"`
	DataDir        string `json:"data_dir"`
	StateDir       string `json:"state_dir"`
	CacheDir       string `json:"cache_dir"`
	LogDir         string `json:"log_dir"`
	OpencodeStore  string `json:"opencode_storage"`
	OpencodeAgents string `json:"opencode_agents"`
	Snapshot       string `json:"snapshot"`
	PidFile        string `json:"pid_file"`
}

func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by swarmstat",
		Long: `Print the paths used by swarmstat as JSON.

The swarmstat directories follow the XDG Base Directory Specification:
- config_dir: Configuration files (swarmstat.yml)
- data_dir: Persistent data
- state_dir: Runtime state (snapshot database, pid file, logs)
- cache_dir: Temporary/regenerable data

The opencode paths are where sessions and agent definitions are read from
unless the configuration points elsewhere.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.PrintJSON(cmd.OutOrStdout(), PathsOutput{
				ConfigDir:      paths.ConfigDir(),
				DataDir:        paths.DataDir(),
				StateDir:       paths.StateDir(),
				CacheDir:       paths.CacheDir(),
				LogDir:         paths.LogDir(),
				OpencodeStore:  paths.OpencodeStorageDir(),
				OpencodeAgents: paths.OpencodeAgentDir(),
				Snapshot:       paths.SnapshotPath(),
				PidFile:        paths.PidFilePath(),
			})
		},
	}
}
