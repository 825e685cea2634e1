package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	DBPath     string `toml:"db_path"`
}

// SourceLimits overrides the download admission policy for one source.
type SourceLimits struct {
	Concurrency       int `toml:"concurrency"`
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// Downloads contains fetch scheduling and retry configuration.
type Downloads struct {
	FetchWorkers      int                     `toml:"fetch_workers"`
	Concurrency       int                     `toml:"concurrency"`
	RequestsPerMinute int                     `toml:"requests_per_minute"`
	RetryCeiling      int                     `toml:"retry_ceiling"`
	BackoffBaseMS     int                     `toml:"backoff_base_ms"`
	BackoffCapMS      int                     `toml:"backoff_cap_ms"`
	VerifyLength      bool                    `toml:"verify_length"`
	SourceOverrides   map[string]SourceLimits `toml:"source_overrides"`
}

// Conversion contains post-fetch transcoding configuration.
type Conversion struct {
	Enabled      bool   `toml:"enabled"`
	Codec        string `toml:"codec"`
	BitrateKbps  int    `toml:"bitrate_kbps"`
	SamplingRate int    `toml:"sampling_rate"`
	BitDepth     int    `toml:"bit_depth"`
	Workers      int    `toml:"workers"`
}

// Library contains final placement configuration.
type Library struct {
	PathTemplate      string `toml:"path_template"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ripple.
//
// Sections by subsystem:
//   - Paths: staging/library/log directories and the dedup database path
//   - Downloads: worker count, per-source admission limits, retry policy
//   - Conversion: target codec and the independent transcoding ceiling
//   - Library: destination path template and overwrite policy
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Downloads  Downloads  `toml:"downloads"`
	Conversion Conversion `toml:"conversion"`
	Library    Library    `toml:"library"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ripple/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The bool reports whether
// a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("ripple.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.DBPath, err = expandPath(c.Paths.DBPath); err != nil {
		return err
	}
	c.Conversion.Codec = strings.ToUpper(strings.TrimSpace(c.Conversion.Codec))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// EnsureDirectories creates required directories. LibraryDir is created on a
// best-effort basis so a run can start while external storage is offline; the
// organizer fails per-item if it is still missing at placement time.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, filepath.Dir(c.Paths.DBPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// SourceLimitsFor returns the admission limits for a source, falling back to
// the global downloads policy when no override exists.
func (c *Config) SourceLimitsFor(source string) SourceLimits {
	limits := SourceLimits{
		Concurrency:       c.Downloads.Concurrency,
		RequestsPerMinute: c.Downloads.RequestsPerMinute,
	}
	override, ok := c.Downloads.SourceOverrides[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return limits
	}
	if override.Concurrency > 0 {
		limits.Concurrency = override.Concurrency
	}
	if override.RequestsPerMinute > 0 {
		limits.RequestsPerMinute = override.RequestsPerMinute
	}
	return limits
}

// FFmpegBinary returns the transcoder executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
