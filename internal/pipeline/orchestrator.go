package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ripple/internal/config"
	"ripple/internal/convert"
	"ripple/internal/dedup"
	"ripple/internal/fetch"
	"ripple/internal/logging"
	"ripple/internal/organizer"
	"ripple/internal/ratelimit"
	"ripple/internal/source"
)

// Transcoder converts a staged file into the target codec's container.
// Satisfied by convert.Runner.
type Transcoder interface {
	Convert(ctx context.Context, codec convert.Codec, input string, opts convert.Options) (string, error)
}

// Orchestrator drives batches of items through fetch, conversion, and
// placement.
type Orchestrator struct {
	cfg        *config.Config
	clients    *source.Registry
	store      *dedup.Store
	gates      *ratelimit.Registry
	transcoder Transcoder
	organizer  *organizer.Organizer
	policy     fetch.Policy
	logger     *slog.Logger
}

// New builds an Orchestrator from configuration. The store must stay open
// for the lifetime of the orchestrator.
func New(cfg *config.Config, clients *source.Registry, store *dedup.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	gates := ratelimit.NewRegistry(func(sourceName string) ratelimit.Limits {
		limits := cfg.SourceLimitsFor(sourceName)
		return ratelimit.Limits{
			Concurrency:       limits.Concurrency,
			RequestsPerMinute: limits.RequestsPerMinute,
		}
	})
	return &Orchestrator{
		cfg:        cfg,
		clients:    clients,
		store:      store,
		gates:      gates,
		transcoder: convert.NewRunner(cfg.FFmpegBinary(), logger),
		organizer:  organizer.New(cfg, logger),
		policy: fetch.Policy{
			Base:        time.Duration(cfg.Downloads.BackoffBaseMS) * time.Millisecond,
			Cap:         time.Duration(cfg.Downloads.BackoffCapMS) * time.Millisecond,
			MaxAttempts: cfg.Downloads.RetryCeiling,
		},
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// targetCodec resolves the configured conversion codec, or reports that
// conversion is disabled.
func (o *Orchestrator) targetCodec() (convert.Codec, bool, error) {
	if !o.cfg.Conversion.Enabled {
		return convert.Codec{}, false, nil
	}
	codec, err := convert.Lookup(o.cfg.Conversion.Codec)
	if err != nil {
		return convert.Codec{}, false, fmt.Errorf("conversion config: %w", err)
	}
	return codec, true, nil
}

func (o *Orchestrator) conversionOptions() convert.Options {
	return convert.Options{
		BitrateKbps:  o.cfg.Conversion.BitrateKbps,
		SamplingRate: o.cfg.Conversion.SamplingRate,
		BitDepth:     o.cfg.Conversion.BitDepth,
	}
}
