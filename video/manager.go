package video

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/amendo-ai/amendo/llm/retry"
	"github.com/amendo-ai/amendo/types"
)

const defaultPollInterval = 5 * time.Second

// Manager routes generation jobs to named providers, applies transport
// retry, and can await asynchronous jobs to completion.
type Manager struct {
	mu         sync.RWMutex
	generators map[string]Generator

	retryer      retry.Retryer
	logger       *zap.Logger
	pollInterval time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRetryer sets the transport retry policy.
func WithRetryer(r retry.Retryer) ManagerOption {
	return func(m *Manager) { m.retryer = r }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithPollInterval sets the delay between Await polls.
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.pollInterval = d }
}

// NewManager creates an empty Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		generators:   make(map[string]Generator),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.retryer == nil {
		m.retryer = retry.NewBackoffRetryer(retry.DefaultPolicy(), m.logger)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// AddGenerator registers a provider under its name.
func (m *Manager) AddGenerator(g Generator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generators[g.Name()] = g
}

func (m *Manager) generator(name string) (Generator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.generators[name]
	if !ok {
		return nil, types.NewError(types.ErrProviderUnavailable,
			fmt.Sprintf("video provider %q not registered", name)).WithProvider(name)
	}
	return g, nil
}

// Start submits a generation job to the named provider.
func (m *Manager) Start(ctx context.Context, provider string, req *GenerationRequest) (*Job, error) {
	g, err := m.generator(provider)
	if err != nil {
		return nil, err
	}

	job, err := retry.DoTyped(m.retryer, ctx, func() (*Job, error) {
		return g.Start(ctx, req)
	})
	if err != nil {
		m.logger.Error("video generation failed to start",
			zap.String("provider", provider), zap.Error(err))
		return nil, err
	}

	m.logger.Info("video generation started",
		zap.String("provider", provider),
		zap.String("job_id", job.ID))
	return job, nil
}

// Poll fetches the current state of a job.
func (m *Manager) Poll(ctx context.Context, provider, jobID string) (*Job, error) {
	g, err := m.generator(provider)
	if err != nil {
		return nil, err
	}
	return retry.DoTyped(m.retryer, ctx, func() (*Job, error) {
		return g.Poll(ctx, jobID)
	})
}

// Await polls the job until it reaches a terminal state or the context is
// done. A job that ends in StateFailed returns an upstream error carrying
// the provider's message.
func (m *Manager) Await(ctx context.Context, provider, jobID string) (*Job, error) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		job, err := m.Poll(ctx, provider, jobID)
		if err != nil {
			return nil, err
		}
		if job.State.Terminal() {
			if job.State == StateFailed {
				return job, types.NewError(types.ErrUpstreamError,
					fmt.Sprintf("video generation failed: %s", job.Error)).WithProvider(provider)
			}
			m.logger.Info("video generation finished",
				zap.String("provider", provider),
				zap.String("job_id", jobID),
				zap.String("url", job.VideoURL))
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Generate is the synchronous convenience path: start a job and await it.
func (m *Manager) Generate(ctx context.Context, provider string, req *GenerationRequest) (*Job, error) {
	job, err := m.Start(ctx, provider, req)
	if err != nil {
		return nil, err
	}
	return m.Await(ctx, provider, job.ID)
}
