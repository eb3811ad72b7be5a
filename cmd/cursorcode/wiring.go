package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	cursorcode "github.com/linolazarous/cursorcode-ai"
	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/internal/tokenizer"
	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/metering"
	"github.com/linolazarous/cursorcode-ai/metrics"
	"github.com/linolazarous/cursorcode-ai/model"
	"github.com/linolazarous/cursorcode-ai/model/anthropic"
	"github.com/linolazarous/cursorcode-ai/model/ollama"
	"github.com/linolazarous/cursorcode-ai/model/openai"
	"github.com/linolazarous/cursorcode-ai/secrets"
)

// app holds the wired platform and everything that must be closed on exit.
type app struct {
	cfg      *config.Config
	logger   *logging.StructuredLogger
	platform *cursorcode.Platform
	registry *prometheus.Registry
	closers  []func(ctx context.Context) error
}

// Close drains the async sinks and closes the stores, in reverse order.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLogger(cfg *config.Config, out io.Writer) *logging.StructuredLogger {
	lc := logging.DefaultLoggerConfig()
	lc.Level = logging.ParseLevel(cfg.Log().Level)
	if cfg.Log().Format != "" {
		lc.Format = cfg.Log().Format
	}
	lc.AddSource = false
	lc.Output = out
	lc.Component = "cursorcode"
	return logging.NewLogger(lc)
}

// awsLoader loads the shared AWS config at most once.
type awsLoader struct {
	cfg    *aws.Config
	loadFn func(ctx context.Context) (aws.Config, error)
}

func (l *awsLoader) get(ctx context.Context) (aws.Config, error) {
	if l.cfg != nil {
		return *l.cfg, nil
	}
	c, err := l.loadFn(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	l.cfg = &c
	return c, nil
}

func newAWSLoader() *awsLoader {
	return &awsLoader{loadFn: func(ctx context.Context) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	}}
}

// buildApp wires every component from cfg. logOut receives structured logs.
func buildApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	a := &app{cfg: cfg, logger: newLogger(cfg, logOut)}
	loader := newAWSLoader()

	llm, err := resolveModel(ctx, cfg.Provider(), loader)
	if err != nil {
		return nil, err
	}

	sink, reader, err := a.auditSink(cfg.Audit())
	if err != nil {
		return nil, err
	}
	reporter, err := a.usageReporter(ctx, cfg.Metering(), loader)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	estimator, err := tokenizer.New(cfg.Tokens().Estimator)
	if err != nil {
		a.logger.Warn("Token estimator unavailable, using character ratio", "error", err.Error())
		estimator = tokenizer.Chars{}
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p, err := cursorcode.New(cfg, llm, func(o *cursorcode.Options) {
		o.Sink = sink
		o.AuditReader = reader
		o.Reporter = reporter
		o.Metrics = metrics.NewPrometheusRecorder(a.registry)
		o.Gatherer = a.registry
		o.Logger = a.logger
		o.Estimator = estimator
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.platform = p
	return a, nil
}

func (a *app) auditSink(s config.AuditSettings) (audit.Sink, audit.Reader, error) {
	async := func(store audit.Store) *audit.AsyncSink {
		sink := audit.NewAsyncSink(store, func(o *audit.AsyncOptions) {
			o.QueueSize = s.QueueSize
			o.MaxRetries = s.MaxRetries
			o.RetryDelay = s.RetryDelay
			o.Logger = a.logger
		})
		a.closers = append(a.closers, sink.Close)
		return sink
	}

	switch s.Driver {
	case "memory":
		rec := audit.NewMemoryRecorder()
		return rec, rec, nil
	case "sqlite":
		store, err := audit.OpenSQLite(s.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		return async(store), store, nil
	default:
		return async(audit.LogStore{Logger: a.logger.WithComponent("audit")}), nil, nil
	}
}

func (a *app) usageReporter(ctx context.Context, s config.MeteringSettings, loader *awsLoader) (metering.Reporter, error) {
	async := func(store metering.Store) *metering.AsyncReporter {
		r := metering.NewAsyncReporter(store, func(o *metering.AsyncOptions) {
			o.QueueSize = s.QueueSize
			o.MaxRetries = s.MaxRetries
			o.RetryDelay = s.RetryDelay
			o.Logger = a.logger
		})
		a.closers = append(a.closers, r.Close)
		return r
	}

	switch s.Driver {
	case "memory":
		return metering.NewMemoryRecorder(), nil
	case "dynamodb":
		awsCfg, err := loader.get(ctx)
		if err != nil {
			return nil, err
		}
		store, err := metering.NewDynamoDBStore(dynamodb.NewFromConfig(awsCfg), s.Table)
		if err != nil {
			return nil, err
		}
		return async(store), nil
	default:
		return async(metering.LogStore{Logger: a.logger.WithComponent("metering")}), nil
	}
}

// resolveModel builds the provider transport, reading the API key from
// Parameter Store when only a parameter name is configured.
func resolveModel(ctx context.Context, p config.ProviderSettings, loader *awsLoader) (model.Model, error) {
	key := p.APIKey
	if key == "" && p.APIKeyParam != "" {
		awsCfg, err := loader.get(ctx)
		if err != nil {
			return nil, err
		}
		store, err := secrets.NewParamStore(ssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, err
		}
		key, err = secrets.ResolveAPIKey(ctx, store, p.APIKey, p.APIKeyParam)
		if err != nil {
			return nil, err
		}
	}
	return newModel(p, key)
}

// newModel maps a provider name to its adapter. The xAI base URL is the
// configured default and is ignored by the other providers.
func newModel(p config.ProviderSettings, apiKey string) (model.Model, error) {
	baseURL := p.BaseURL
	if p.Name != "xai" && p.Name != "" && baseURL == openai.XAIBaseURL {
		baseURL = ""
	}

	switch p.Name {
	case "", "xai":
		if baseURL == "" {
			baseURL = openai.XAIBaseURL
		}
		return openai.NewModel(func(o *openai.Options) {
			o.BaseURL = baseURL
			o.APIKey = apiKey
			o.Provider = "xai"
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.BaseURL = baseURL
			o.APIKey = apiKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.BaseURL = baseURL
			o.APIKey = apiKey
		}), nil
	case "ollama":
		return ollama.NewModel(func(o *ollama.Options) {
			if baseURL != "" {
				o.Host = baseURL
			}
		}), nil
	case "scripted":
		return model.NewScriptedModel(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Name)
	}
}
