package logging

// Config is the `logging` extension section of swarmstat.yml.
type Config struct {
	// Level is debug, info, warn or error. SWARMSTAT_LOG_LEVEL overrides it.
	Level string `yaml:"level"`

	// ReportCaller adds file:line to each entry. Also SWARMSTAT_LOG_CALLER=true.
	ReportCaller bool `yaml:"report_caller"`

	File   FileSinkConfig `yaml:"file"`
	Format FormatConfig   `yaml:"format"`
}

// FileSinkConfig enables a log file. The default path is
// <state dir>/logs/<component>-<date>.log.
type FileSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type FormatConfig struct {
	// Preset is "default", "simple" or "json".
	Preset           string `yaml:"preset"`
	DisableTimestamp bool   `yaml:"disable_timestamp"`
	DisableComponent bool   `yaml:"disable_component"`
	// StructuredToStderr is "auto", "always" or "never". In auto mode
	// interactive terminals only see structured logs when debugging.
	StructuredToStderr string `yaml:"structured_to_stderr"`
}
