// Package cli holds the flag, logging, output and error conventions shared
// by every swarmstat command.
package cli

import (
	"os"

	"github.com/grovetools/swarmstat/config"
	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds common options for swarmstat commands
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to swarmstat.yml config file")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the component logger of the running command. With
// --verbose the level drops to debug.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("cli")
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	return entry
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// InitConfig resolves the configuration file path: the --config flag, or
// the nearest swarmstat.yml above the working directory. An empty path
// with a nil error means no file exists.
func InitConfig(configFile string) (string, error) {
	if configFile != "" {
		return configFile, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	found, err := config.FindConfigFile(cwd)
	if err != nil {
		// No config file found, that's okay
		return "", nil
	}
	return found, nil
}

// LoadConfig loads the configuration for cmd. An explicit --config must
// exist; otherwise the layered search is used and a missing file yields
// the defaults.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromWithLogger(cwd, GetLogger(cmd).Logger)
	if swerrors.Is(err, swerrors.ErrCodeConfigNotFound) {
		return config.Default(), nil
	}
	return cfg, err
}
