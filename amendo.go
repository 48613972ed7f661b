// Package amendo provides a top-level convenience entry point that wires
// the configured managers together with minimal boilerplate.
//
// Usage:
//
//	import "github.com/amendo-ai/amendo"
//
//	client, err := amendo.New(nil, amendo.WithProvider(myProvider))
//	person, err := amendo.Repair[Person](ctx, client, "", modelOutput)
//
// For finer control, construct llm.Manager, speech.Manager, and
// video.Manager directly.
package amendo

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/amendo-ai/amendo/config"
	"github.com/amendo-ai/amendo/internal/metrics"
	"github.com/amendo-ai/amendo/llm"
	"github.com/amendo-ai/amendo/llm/cache"
	"github.com/amendo-ai/amendo/llm/retry"
	"github.com/amendo-ai/amendo/speech"
	"github.com/amendo-ai/amendo/structured"
	"github.com/amendo-ai/amendo/video"
)

// Client bundles the managers built from one configuration.
type Client struct {
	LLM      *llm.Manager
	Registry *llm.Registry
	Speech   *speech.Manager
	Video    *video.Manager

	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector
}

// Option configures the client created by New.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	providers    []llm.Provider
	synthesizers []speech.Synthesizer
	transcribers []speech.Transcriber
	generators   []video.Generator
	registerer   prometheus.Registerer
	redisClient  *redis.Client
}

// WithLogger sets a custom zap logger instead of building one from the
// log configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProvider registers a text generation provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.providers = append(o.providers, p) }
}

// WithSynthesizer registers a text-to-speech provider.
func WithSynthesizer(s speech.Synthesizer) Option {
	return func(o *options) { o.synthesizers = append(o.synthesizers, s) }
}

// WithTranscriber registers a speech-to-text provider.
func WithTranscriber(t speech.Transcriber) Option {
	return func(o *options) { o.transcribers = append(o.transcribers, t) }
}

// WithVideoGenerator registers a video generation provider.
func WithVideoGenerator(g video.Generator) Option {
	return func(o *options) { o.generators = append(o.generators, g) }
}

// WithMetricsRegisterer sets the Prometheus registerer for the client's
// metric families. Defaults to the global registerer.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithRedisClient supplies the Redis connection for the redis and
// two-level cache backends. Without it those backends fall back to the
// in-process cache.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) { o.redisClient = client }
}

// New builds a Client from cfg. A nil cfg loads configuration from the
// environment via config.NewLoader.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if cfg == nil {
		loaded, err := config.NewLoader().Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		built, err := config.NewLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
		logger = built
	}

	collector := metrics.NewCollector("amendo", o.registerer, logger)

	retryer := retry.NewBackoffRetryer(&retry.Policy{
		MaxRetries:   cfg.Retry.MaxRetries,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   cfg.Retry.Multiplier,
		Jitter:       cfg.Retry.Jitter,
	}, logger)

	registry := llm.NewRegistry()
	for _, p := range o.providers {
		registry.Register(p)
	}
	if cfg.LLM.FallbackProvider != "" {
		if err := registry.SetFallback(cfg.LLM.FallbackProvider); err != nil {
			return nil, err
		}
	}

	llmOpts := []llm.ManagerOption{
		llm.WithRetryer(retryer),
		llm.WithLogger(logger),
		llm.WithMetrics(collector),
	}
	if cfg.LLM.RateLimitPerSecond > 0 {
		llmOpts = append(llmOpts, llm.WithRateLimit(cfg.LLM.RateLimitPerSecond, cfg.LLM.RateLimitBurst))
	}
	if cfg.Cache.Enabled {
		llmOpts = append(llmOpts, llm.WithCache(buildCache(cfg, o.redisClient, logger)))
	}

	client := &Client{
		LLM:       llm.NewManager(registry, llmOpts...),
		Registry:  registry,
		cfg:       cfg,
		logger:    logger,
		collector: collector,
	}

	client.Speech = speech.NewManager(
		speech.WithRetryer(retryer),
		speech.WithLogger(logger),
	)
	for _, s := range o.synthesizers {
		client.Speech.AddSynthesizer(s)
	}
	for _, t := range o.transcribers {
		client.Speech.AddTranscriber(t)
	}

	client.Video = video.NewManager(
		video.WithRetryer(retryer),
		video.WithLogger(logger),
		video.WithPollInterval(cfg.Video.PollInterval),
	)
	for _, g := range o.generators {
		client.Video.AddGenerator(g)
	}

	return client, nil
}

// Config returns the resolved configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Mender builds a structured.Mender for T wired to this client's
// generation path, repair budget, logger, and metrics. Extra options
// override the configured ones.
func Mender[T any](c *Client, model string, opts ...structured.MenderOption) *structured.Mender[T] {
	if model == "" {
		model = c.cfg.LLM.DefaultModel
	}
	base := []structured.MenderOption{
		structured.WithMaxRetries(c.cfg.Repair.MaxRetries),
		structured.WithHealMaxTokens(c.cfg.Repair.HealMaxTokens),
		structured.WithLogger(c.logger),
		structured.WithMetrics(c.collector),
	}
	return structured.NewMender[T](c.LLM.Call, model, append(base, opts...)...)
}

// Repair extracts, validates, and heals YAML from text into a T. An empty
// model uses the configured default.
func Repair[T any](ctx context.Context, c *Client, model, text string, opts ...structured.MenderOption) (T, error) {
	return Mender[T](c, model, opts...).Repair(ctx, text)
}

// RepairEach repairs several documents concurrently, bounded by the
// configured repair concurrency.
func RepairEach[T any](ctx context.Context, c *Client, model string, texts []string, opts ...structured.MenderOption) ([]T, error) {
	return structured.RepairEach(ctx, Mender[T](c, model, opts...), texts, c.cfg.Repair.Concurrency)
}

func buildCache(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) llm.ResponseCache {
	local := cache.NewLRU(cfg.Cache.Capacity, cfg.Cache.TTL)

	switch cfg.Cache.Backend {
	case "redis", "two-level":
		if redisClient == nil {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				PoolSize: cfg.Redis.PoolSize,
			})
		}
		remote := cache.NewRedis(redisClient, cfg.Cache.TTL, logger)
		if cfg.Cache.Backend == "redis" {
			return remote
		}
		return cache.NewTwoLevel(local, remote)
	default:
		return local
	}
}

// Timeout returns the configured per-call LLM timeout, for callers that
// wrap context deadlines around generation.
func (c *Client) Timeout() time.Duration { return c.cfg.LLM.Timeout }
