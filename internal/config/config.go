// internal/config/config.go
//
// This package handles configuration and the .assignflow directory structure.
// A project opts in by running `assignflow init`, which creates .assignflow/
// next to its assignments directory.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DataDir is the name of the directory we create in each project
	DataDir = ".assignflow"

	defaultAssignmentsDir  = "assignments"
	defaultAmbiguityWindow = 15 * time.Minute
	defaultMinContentBytes = 16
	defaultLogLevel        = "info"
)

// Interactive modes for resolving ties between assignments.
const (
	InteractiveAuto   = "auto"
	InteractiveAlways = "always"
	InteractiveNever  = "never"
)

const defaultProjectConfigYAML = `# assignflow project configuration
version: 1

assignments:
  # Relative paths resolve against the project root.
  dir: assignments

selection:
  # Assignments in the same state touched within this window are treated as tied.
  ambiguity_window: 15m
  # auto asks only when attached to a terminal; never always reports the tie.
  interactive: auto

artifacts:
  # design.md and proposal.md bodies shorter than this are treated as missing.
  min_content_bytes: 16

log:
  level: info
`

// AssignmentsConfig locates the assignments.
type AssignmentsConfig struct {
	Dir string `yaml:"dir"`
}

// SelectionConfig tunes the assignment selector.
type SelectionConfig struct {
	AmbiguityWindow string `yaml:"ambiguity_window"`
	Interactive     string `yaml:"interactive"`

	window time.Duration
}

// ArtifactsConfig tunes artifact probing.
type ArtifactsConfig struct {
	MinContentBytes *int `yaml:"min_content_bytes,omitempty"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ProjectConfig models .assignflow/config.yaml.
type ProjectConfig struct {
	Version     int               `yaml:"version"`
	Assignments AssignmentsConfig `yaml:"assignments"`
	Selection   SelectionConfig   `yaml:"selection"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`
	Log         LogConfig         `yaml:"log"`
}

// Config holds the runtime configuration for one project.
type Config struct {
	// ProjectDir is the directory assignflow runs against
	ProjectDir string

	// DataProjectDir is ProjectDir/.assignflow
	DataProjectDir string

	Project ProjectConfig
}

// InitDataDir creates the .assignflow directory structure in the given
// project directory and writes a default config.yaml if none exists.
//
// Structure created:
// .assignflow/
// ├── config.yaml
// └── logs/        <- assignflow.log and the selection journal
func InitDataDir(projectDir string) error {
	dataDir := filepath.Join(projectDir, DataDir)
	if err := os.MkdirAll(filepath.Join(dataDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(dataDir, "config.yaml"))
}

// Load reads the project configuration. A missing config file yields the
// defaults.
func Load(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{
		ProjectDir:     abs,
		DataProjectDir: filepath.Join(abs, DataDir),
		Project:        defaultProjectConfig(),
	}
	cfg.Project.normalize(abs)
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DataProjectDir, "config.yaml")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataProjectDir, "logs")
}

// AssignmentsDir returns the absolute assignments directory.
func (c *Config) AssignmentsDir() string {
	return c.Project.Assignments.Dir
}

// AmbiguityWindow returns the parsed selection window.
func (c *Config) AmbiguityWindow() time.Duration {
	return c.Project.Selection.window
}

// InteractiveMode returns auto, always or never.
func (c *Config) InteractiveMode() string {
	return c.Project.Selection.Interactive
}

// MinContentBytes returns the design/proposal content threshold.
func (c *Config) MinContentBytes() int {
	if c.Project.Artifacts.MinContentBytes == nil {
		return defaultMinContentBytes
	}
	return *c.Project.Artifacts.MinContentBytes
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	return c.Project.Log.Level
}

// SetInteractiveMode overrides the interactive mode for this run (flags and
// environment take precedence over the file).
func (c *Config) SetInteractiveMode(mode string) error {
	mode = normalizeMode(mode)
	if err := validateMode(mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.Selection.Interactive = mode
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Assignments.Dir) == "" {
		pc.Assignments.Dir = defaultAssignmentsDir
	}
	if strings.TrimSpace(pc.Selection.AmbiguityWindow) == "" {
		pc.Selection.AmbiguityWindow = defaultAmbiguityWindow.String()
	}
	if strings.TrimSpace(pc.Selection.Interactive) == "" {
		pc.Selection.Interactive = InteractiveAuto
	}
	if pc.Artifacts.MinContentBytes == nil {
		n := defaultMinContentBytes
		pc.Artifacts.MinContentBytes = &n
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = defaultLogLevel
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Assignments.Dir = resolvePath(base, pc.Assignments.Dir)
	pc.Selection.Interactive = normalizeMode(pc.Selection.Interactive)
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
	if d, err := time.ParseDuration(strings.TrimSpace(pc.Selection.AmbiguityWindow)); err == nil {
		pc.Selection.window = d
	} else {
		pc.Selection.window = -1
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Selection.window < 0 {
		return fmt.Errorf("selection.ambiguity_window %q must be a non-negative duration such as 15m", pc.Selection.AmbiguityWindow)
	}
	if err := validateMode(pc.Selection.Interactive); err != nil {
		return err
	}
	if pc.Artifacts.MinContentBytes != nil && *pc.Artifacts.MinContentBytes < 0 {
		return fmt.Errorf("artifacts.min_content_bytes must be >= 0")
	}
	switch pc.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

func normalizeMode(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func validateMode(mode string) error {
	switch mode {
	case InteractiveAuto, InteractiveAlways, InteractiveNever:
		return nil
	default:
		return fmt.Errorf("selection.interactive must be 'auto', 'always' or 'never'")
	}
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
