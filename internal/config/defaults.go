package config

const (
	defaultStagingDir        = "~/.local/share/ripple/staging"
	defaultLibraryDir        = "~/music"
	defaultLogDir            = "~/.local/share/ripple/logs"
	defaultDBPath            = "~/.local/share/ripple/downloads.db"
	defaultFetchWorkers      = 4
	defaultConcurrency       = 3
	defaultRequestsPerMin    = 60
	defaultRetryCeiling      = 3
	defaultBackoffBaseMS     = 1000
	defaultBackoffCapMS      = 30000
	defaultConversionCodec   = "FLAC"
	defaultConversionWorkers = 2
	defaultPathTemplate      = "{artist}/{album}/{position} - {title}.{ext}"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			DBPath:     defaultDBPath,
		},
		Downloads: Downloads{
			FetchWorkers:      defaultFetchWorkers,
			Concurrency:       defaultConcurrency,
			RequestsPerMinute: defaultRequestsPerMin,
			RetryCeiling:      defaultRetryCeiling,
			BackoffBaseMS:     defaultBackoffBaseMS,
			BackoffCapMS:      defaultBackoffCapMS,
			VerifyLength:      true,
		},
		Conversion: Conversion{
			Enabled: false,
			Codec:   defaultConversionCodec,
			Workers: defaultConversionWorkers,
		},
		Library: Library{
			PathTemplate: defaultPathTemplate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
