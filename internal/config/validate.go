package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownCodecs = map[string]struct{}{
	"FLAC":   {},
	"ALAC":   {},
	"MP3":    {},
	"OPUS":   {},
	"OGG":    {},
	"VORBIS": {},
	"AAC":    {},
	"M4A":    {},
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		problems = append(problems, "paths.staging_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		problems = append(problems, "paths.library_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.DBPath) == "" {
		problems = append(problems, "paths.db_path must not be empty")
	}
	if c.Downloads.FetchWorkers < 1 {
		problems = append(problems, "downloads.fetch_workers must be at least 1")
	}
	if c.Downloads.Concurrency < 1 {
		problems = append(problems, "downloads.concurrency must be at least 1")
	}
	if c.Downloads.RequestsPerMinute < 1 {
		problems = append(problems, "downloads.requests_per_minute must be at least 1")
	}
	if c.Downloads.RetryCeiling < 0 {
		problems = append(problems, "downloads.retry_ceiling must not be negative")
	}
	if c.Downloads.BackoffBaseMS < 0 || c.Downloads.BackoffCapMS < 0 {
		problems = append(problems, "downloads backoff values must not be negative")
	}
	if c.Downloads.BackoffCapMS > 0 && c.Downloads.BackoffBaseMS > c.Downloads.BackoffCapMS {
		problems = append(problems, "downloads.backoff_base_ms must not exceed downloads.backoff_cap_ms")
	}
	for source, limits := range c.Downloads.SourceOverrides {
		if limits.Concurrency < 0 || limits.RequestsPerMinute < 0 {
			problems = append(problems, fmt.Sprintf("downloads.source_overrides.%s values must not be negative", source))
		}
	}
	if c.Conversion.Enabled {
		if _, ok := knownCodecs[c.Conversion.Codec]; !ok {
			problems = append(problems, fmt.Sprintf("conversion.codec %q is not supported", c.Conversion.Codec))
		}
		if c.Conversion.Workers < 1 {
			problems = append(problems, "conversion.workers must be at least 1")
		}
		if c.Conversion.BitDepth != 0 && c.Conversion.BitDepth != 16 && c.Conversion.BitDepth != 24 && c.Conversion.BitDepth != 32 {
			problems = append(problems, "conversion.bit_depth must be 16, 24, or 32")
		}
	}
	if strings.TrimSpace(c.Library.PathTemplate) == "" {
		problems = append(problems, "library.path_template must not be empty")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
