package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/amendo-ai/amendo/llm/retry"
	"github.com/amendo-ai/amendo/types"
)

// ResponseCache stores completed response text keyed by request fingerprint.
// Implementations live in llm/cache.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, text string) error
}

// MetricsRecorder receives per-request outcome observations.
// internal/metrics provides the Prometheus implementation.
type MetricsRecorder interface {
	RecordGeneration(provider, model, outcome string, duration time.Duration)
	RecordCacheLookup(hit bool)
}

// CacheKey fingerprints a request for response caching.
// Timestamps and request ids are excluded so identical prompts collide.
func CacheKey(req *Request) string {
	type keyMessage struct {
		Role    types.Role `json:"role"`
		Content string     `json:"content"`
	}
	type keyShape struct {
		Model       string       `json:"model"`
		Messages    []keyMessage `json:"messages"`
		Temperature float32      `json:"temperature"`
		MaxTokens   int          `json:"max_tokens"`
	}

	shape := keyShape{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		shape.Messages = append(shape.Messages, keyMessage{Role: m.Role, Content: m.Content})
	}

	data, _ := json.Marshal(shape)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Manager is the caller-facing generation entry point. It routes a model id
// to its provider and layers rate limiting, response caching, transport
// retry, logging, and metrics around the call.
type Manager struct {
	registry  *Registry
	retryer   retry.Retryer
	cache     ResponseCache
	metrics   MetricsRecorder
	tokenizer *Tokenizer
	logger    *zap.Logger

	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRetryer sets the transport retryer. Defaults to a backoff retryer
// with retry.DefaultPolicy.
func WithRetryer(r retry.Retryer) ManagerOption {
	return func(m *Manager) { m.retryer = r }
}

// WithCache enables response caching for deterministic requests.
func WithCache(c ResponseCache) ManagerOption {
	return func(m *Manager) { m.cache = c }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec MetricsRecorder) ManagerOption {
	return func(m *Manager) { m.metrics = rec }
}

// WithLogger sets the zap logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithRateLimit applies a per-provider request rate limit.
// A zero limit disables limiting.
func WithRateLimit(perSecond float64, burst int) ManagerOption {
	return func(m *Manager) {
		m.limit = rate.Limit(perSecond)
		m.burst = burst
	}
}

// NewManager creates a Manager over the given registry.
func NewManager(registry *Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:  registry,
		tokenizer: NewTokenizer(),
		logger:    zap.NewNop(),
		limiters:  make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.retryer == nil {
		m.retryer = retry.NewBackoffRetryer(retry.DefaultPolicy(), m.logger)
	}
	return m
}

// Complete routes the request and executes it with the full middleware stack.
func (m *Manager) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	provider, err := m.registry.ProviderFor(req.Model)
	if err != nil {
		return nil, err
	}

	if err := m.waitLimit(ctx, provider.Name()); err != nil {
		return nil, err
	}

	// Only deterministic requests are cacheable: a sampled response is not
	// a faithful stand-in for a fresh one.
	var key string
	cacheable := m.cache != nil && req.Temperature == 0
	if cacheable {
		key = CacheKey(req)
		if text, ok := m.cache.Get(ctx, key); ok {
			m.recordCache(true)
			m.logger.Debug("generation cache hit",
				zap.String("request_id", req.ID),
				zap.String("model", req.Model),
			)
			return &Response{
				ID:        req.ID,
				Provider:  provider.Name(),
				Model:     req.Model,
				Text:      text,
				CreatedAt: time.Now(),
			}, nil
		}
		m.recordCache(false)
	}

	start := time.Now()
	resp, err := retry.DoTyped[*Response](m.retryer, ctx, func() (*Response, error) {
		return provider.Complete(ctx, req)
	})
	elapsed := time.Since(start)

	if err != nil {
		m.recordGeneration(provider.Name(), req.Model, "error", elapsed)
		m.logger.Warn("generation failed",
			zap.String("request_id", req.ID),
			zap.String("provider", provider.Name()),
			zap.String("model", req.Model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	m.recordGeneration(provider.Name(), req.Model, "ok", elapsed)
	m.logger.Debug("generation completed",
		zap.String("request_id", req.ID),
		zap.String("provider", provider.Name()),
		zap.String("model", req.Model),
		zap.Duration("elapsed", elapsed),
		zap.Int("prompt_tokens_est", m.tokenizer.CountMessages(req.Messages)),
	)

	if cacheable {
		if err := m.cache.Set(ctx, key, resp.Text); err != nil {
			m.logger.Warn("response cache set failed", zap.Error(err))
		}
	}

	return resp, nil
}

// Call is the normalized generation convenience:
// (model, messages, temperature, maxTokens) -> text.
// Its signature matches what the structured repair loop expects from a
// Generation Call.
func (m *Manager) Call(ctx context.Context, model string, messages []types.Message, temperature float32, maxTokens int) (string, error) {
	resp, err := m.Complete(ctx, &Request{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (m *Manager) waitLimit(ctx context.Context, provider string) error {
	if m.limit == 0 {
		return nil
	}
	m.mu.Lock()
	limiter, ok := m.limiters[provider]
	if !ok {
		limiter = rate.NewLimiter(m.limit, m.burst)
		m.limiters[provider] = limiter
	}
	m.mu.Unlock()
	return limiter.Wait(ctx)
}

func (m *Manager) recordGeneration(provider, model, outcome string, d time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordGeneration(provider, model, outcome, d)
	}
}

func (m *Manager) recordCache(hit bool) {
	if m.metrics != nil {
		m.metrics.RecordCacheLookup(hit)
	}
}
