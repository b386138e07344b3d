package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/pkg/paths"
	"github.com/grovetools/swarmstat/schema"
	"github.com/grovetools/swarmstat/util/pathutil"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

var configNames = []string{
	"swarmstat.yml",
	"swarmstat.yaml",
	"swarmstat.toml",
	".swarmstat.yml",
	".swarmstat.yaml",
}

var overrideNames = []string{
	"swarmstat.override.yml",
	"swarmstat.override.yaml",
	".swarmstat.override.yml",
	".swarmstat.override.yaml",
}

// Load reads, validates and defaults a single configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	cfg.Sources = []string{path}
	return finalize(cfg)
}

// LoadDefault finds and loads the configuration with hierarchical merging:
// 1. Global config ($XDG_CONFIG_HOME/swarmstat/swarmstat.yml) - base layer
// 2. Project config (swarmstat.yml, searched upward) - overrides global
// 3. Local override (swarmstat.override.yml) - overrides all
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory.
func LoadFrom(startDir string) (*Config, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return LoadFromWithLogger(startDir, logger)
}

// LoadFromWithLogger loads configuration with hierarchical merging and logging.
// It returns a CONFIG_NOT_FOUND error when neither a global nor a project
// file exists; callers usually fall back to Default.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	var finalConfig *Config
	var sources []string

	globalPath := getXDGConfigPath()
	if globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			globalConfig, err := loadRaw(globalPath)
			if err != nil {
				logger.WithError(err).Warn("Failed to parse global configuration, continuing without it")
			} else {
				finalConfig = globalConfig
				sources = append(sources, globalPath)
			}
		}
	}

	projectPath, err := FindConfigFile(startDir)
	if err != nil && finalConfig == nil {
		return nil, err
	}

	if projectPath != "" && projectPath != globalPath {
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		projectConfig, err := loadRaw(projectPath)
		if err != nil {
			return nil, err
		}
		if finalConfig == nil {
			finalConfig = projectConfig
		} else {
			logger.Debug("Merging project configuration over global configuration")
			finalConfig = mergeConfigs(finalConfig, projectConfig)
		}
		sources = append(sources, projectPath)

		projectDir := filepath.Dir(projectPath)
		for _, name := range overrideNames {
			overridePath := filepath.Join(projectDir, name)
			if _, err := os.Stat(overridePath); err != nil {
				continue
			}
			logger.WithField("path", overridePath).Debug("Loading local override configuration")
			overrideConfig, err := loadRaw(overridePath)
			if err != nil {
				logger.WithError(err).Warn("Failed to parse override file, skipping")
				continue
			}
			finalConfig = mergeConfigs(finalConfig, overrideConfig)
			sources = append(sources, overridePath)
		}
	}

	finalConfig.Sources = sources
	cfg, err := finalize(finalConfig)
	if err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded and validated successfully")
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		if data, err := yaml.Marshal(cfg); err == nil {
			logger.Debugf("Merged configuration:\n%s", string(data))
		}
	}
	return cfg, nil
}

// LoadFromBytes parses YAML configuration, validates it and applies defaults.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := decode("swarmstat.yml", data)
	if err != nil {
		return nil, err
	}
	return finalize(cfg)
}

// finalize runs schema validation on the raw merged config, applies
// defaults and finishes with semantic validation.
func finalize(cfg *Config) (*Config, error) {
	if err := schema.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return cfg, nil
}

func loadRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	return decode(path, data)
}

// decode picks the format from the file extension. TOML documents are
// routed through a generic map so unknown sections still land in
// Extensions.
func decode(path string, data []byte) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var generic map[string]interface{}
		if err := toml.Unmarshal(expanded, &generic); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration").
				WithDetail("path", path)
		}
		var err error
		expanded, err = yaml.Marshal(generic)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to convert TOML configuration").
				WithDetail("path", path)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration").
			WithDetail("path", path)
	}
	return &cfg, nil
}

// FindConfigFile searches for a project configuration file:
// 1. Current directory up to filesystem root
// 2. Git repository root (if in a git repo)
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		if path := firstExisting(dir, configNames); path != "" {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if gitRoot, err := getGitRoot(startDir); err == nil && gitRoot != "" {
		if path := firstExisting(gitRoot, configNames); path != "" {
			return path, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

func expandPath(path string) string {
	return pathutil.Expand(path)
}

func getGitRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// getXDGConfigPath returns the global swarmstat.yml location.
func getXDGConfigPath() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "swarmstat.yml")
}
