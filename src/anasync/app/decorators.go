package app

import (
	"fmt"
	"os"
	"path"

	"github.com/uber/analysis-sync/src/anasync/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Context struct {
	Environment        string `yaml:"environment"`
	RuntimeEnvironment string `yaml:"runtimeEnvironment"`
}

const (
	// EnvLocal indicates that the service is running locally.
	EnvLocal = "local"

	// EnvDevelopment indicates that the service is running in a development environment.
	EnvDevelopment = "development"

	// Environment variables
	_envAnasyncEnvironment = "ANASYNC_ENVIRONMENT"
)

func decorateEnvContext(env Context) Context {
	envValue := EnvLocal
	if os.Getenv(_envAnasyncEnvironment) == EnvDevelopment {
		envValue = EnvDevelopment
	}

	env.Environment = envValue
	env.RuntimeEnvironment = envValue
	return env
}

// DecorateConfigParams is the set of dependencies required to decorate the config.Provider.
type DecorateConfigParams struct {
	fx.In

	Env Context
	Cfg config.Provider
	FS  fs.FS
}

// decorateConfigProvider includes any steps that modify the config.Provider before it is used, or use its data for any startup related activities.
func decorateConfigProvider(p DecorateConfigParams) (config.Provider, error) {
	cfg := p.Cfg
	if p.Env.RuntimeEnvironment == EnvDevelopment {
		var err error
		if cfg, err = withDevelopmentLogging(cfg); err != nil {
			return nil, fmt.Errorf("applying development overrides: %v", err)
		}
	}

	combined, err := ensureLogFolder(cfg, p.FS)
	if err != nil {
		return nil, fmt.Errorf("ensuring log folder: %v", err)
	}

	return combined, nil
}

// withDevelopmentLogging layers debug level logging over cfg.
func withDevelopmentLogging(cfg config.Provider) (config.Provider, error) {
	return config.NewYAML(
		config.Static(cfg.Get(config.Root).Value()),
		config.Static(map[string]interface{}{
			"logging": map[string]interface{}{
				"level":       "debug",
				"development": true,
			},
		}),
	)
}

// Ensure that all configured logging output directories exist or create if necessary.
func ensureLogFolder(cfg config.Provider, fs fs.FS) (config.Provider, error) {
	var c zap.Config
	if err := cfg.Get("logging").Populate(&c); err != nil {
		return nil, fmt.Errorf("loading logging config: %v", err)
	}

	for _, outputPath := range c.OutputPaths {
		dir := path.Dir(outputPath)
		exists, err := fs.DirExists(dir)
		if err != nil {
			return nil, fmt.Errorf("checking logging directory: %v", err)
		}
		if exists {
			continue
		}
		if err := fs.MkdirAll(dir); err != nil {
			return nil, fmt.Errorf("creating logging directory: %v", err)
		}
	}

	return cfg, nil
}
