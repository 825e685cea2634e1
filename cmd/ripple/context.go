package main

import (
	"log/slog"
	"strings"
	"sync"

	"ripple/internal/config"
	"ripple/internal/logging"
	"ripple/internal/source"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// clientRegistry builds the source registry for a run. The basic HTTP client
// serves direct URLs; provider-specific clients register here as they are
// added.
func (c *commandContext) clientRegistry() (*source.Registry, error) {
	registry := source.NewRegistry()
	for _, name := range []string{"http", "https"} {
		if err := registry.Register(source.NewBasicClient(name, nil)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
