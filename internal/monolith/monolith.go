// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/fd1az/deal-finder/internal/config"
	"github.com/fd1az/deal-finder/internal/di"
	"github.com/fd1az/deal-finder/internal/fallback"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
	"github.com/fd1az/deal-finder/internal/ratelimit"
)

// Names of the global services every module may resolve.
const (
	ServiceConfig    = "config"
	ServiceLogger    = "logger"
	ServiceRemoteLLM = "remoteLLM"
	ServiceScanLLM   = "scanLLM"
	ServiceLocalLLM  = "localLLM"
	ServiceFallback  = "fallback"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	RemoteLLM() *llm.OpenAIClient
	LocalLLM() *llm.OllamaClient
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	remoteLLM *llm.OpenAIClient
	localLLM  *llm.OllamaClient
	container di.Container
}

// New creates a new Monolith instance. The remote estimate and scan clients
// share one rate limiter since they draw on the same account quota.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	limiter := ratelimit.NewNamed("llm-remote", cfg.LLM.Remote.RequestsPerMinute)

	remote, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL: cfg.LLM.Remote.BaseURL,
		APIKey:  cfg.LLM.Remote.APIKey,
		Model:   cfg.LLM.Remote.Model,
		Timeout: cfg.LLM.Remote.Timeout,
	}, limiter, log)
	if err != nil {
		return nil, err
	}

	scanModel := cfg.LLM.Remote.ScanModel
	if scanModel == "" {
		scanModel = cfg.LLM.Remote.Model
	}
	scan, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL: cfg.LLM.Remote.BaseURL,
		APIKey:  cfg.LLM.Remote.APIKey,
		Model:   scanModel,
		Timeout: cfg.LLM.Remote.Timeout,
	}, limiter, log)
	if err != nil {
		return nil, err
	}

	local, err := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL: cfg.LLM.Local.BaseURL,
		Model:   cfg.LLM.Local.Model,
		Timeout: cfg.LLM.Local.Timeout,
	}, log)
	if err != nil {
		return nil, err
	}

	recorder, err := fallback.NewRecorder(log)
	if err != nil {
		return nil, err
	}

	container := di.NewContainer()

	// Register global services
	container.Register(ServiceConfig, cfg)
	container.Register(ServiceLogger, log)
	container.Register(ServiceRemoteLLM, remote)
	container.Register(ServiceScanLLM, scan)
	container.Register(ServiceLocalLLM, local)
	container.Register(ServiceFallback, recorder)

	return &app{
		config:    cfg,
		logger:    log,
		remoteLLM: remote,
		localLLM:  local,
		container: container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) RemoteLLM() *llm.OpenAIClient {
	return a.remoteLLM
}

func (a *app) LocalLLM() *llm.OllamaClient {
	return a.localLLM
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases shared resources.
func (a *app) Close() error {
	return nil
}
