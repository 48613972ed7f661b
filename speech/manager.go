package speech

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/amendo-ai/amendo/llm/retry"
	"github.com/amendo-ai/amendo/types"
)

// Manager routes synthesis and transcription requests to named providers
// and wraps each call in the transport retry policy. It is safe for
// concurrent use.
type Manager struct {
	mu           sync.RWMutex
	synthesizers map[string]Synthesizer
	transcribers map[string]Transcriber

	retryer retry.Retryer
	logger  *zap.Logger
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

// NewManager creates an empty Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		synthesizers: make(map[string]Synthesizer),
		transcribers: make(map[string]Transcriber),
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

// AddSynthesizer registers a text-to-speech provider under its name.
func (m *Manager) AddSynthesizer(s Synthesizer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synthesizers[s.Name()] = s
}

// AddTranscriber registers a speech-to-text provider under its name.
func (m *Manager) AddTranscriber(t Transcriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcribers[t.Name()] = t
}

func (m *Manager) synthesizer(name string) (Synthesizer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.synthesizers[name]
	if !ok {
		return nil, types.NewError(types.ErrProviderUnavailable,
			fmt.Sprintf("synthesizer %q not registered", name)).WithProvider(name)
	}
	return s, nil
}

func (m *Manager) transcriber(name string) (Transcriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transcribers[name]
	if !ok {
		return nil, types.NewError(types.ErrProviderUnavailable,
			fmt.Sprintf("transcriber %q not registered", name)).WithProvider(name)
	}
	return t, nil
}

// Synthesize renders text as speech through the named provider.
func (m *Manager) Synthesize(ctx context.Context, provider string, req *SynthesisRequest) (*Audio, error) {
	s, err := m.synthesizer(provider)
	if err != nil {
		return nil, err
	}

	audio, err := retry.DoTyped(m.retryer, ctx, func() (*Audio, error) {
		return s.Synthesize(ctx, req)
	})
	if err != nil {
		m.logger.Error("synthesis failed",
			zap.String("provider", provider),
			zap.String("voice", req.Voice),
			zap.Error(err))
		return nil, err
	}

	m.logger.Debug("synthesis complete",
		zap.String("provider", provider),
		zap.String("voice", req.Voice),
		zap.Int("bytes", len(audio.Data)))
	return audio, nil
}

// Transcribe turns audio into text through the named provider.
func (m *Manager) Transcribe(ctx context.Context, provider string, req *TranscriptionRequest) (*Transcript, error) {
	t, err := m.transcriber(provider)
	if err != nil {
		return nil, err
	}

	transcript, err := retry.DoTyped(m.retryer, ctx, func() (*Transcript, error) {
		return t.Transcribe(ctx, req)
	})
	if err != nil {
		m.logger.Error("transcription failed",
			zap.String("provider", provider),
			zap.Error(err))
		return nil, err
	}
	return transcript, nil
}

// Voices lists the named provider's voice catalog.
func (m *Manager) Voices(ctx context.Context, provider string) ([]Voice, error) {
	s, err := m.synthesizer(provider)
	if err != nil {
		return nil, err
	}
	return s.Voices(ctx)
}

// Check verifies the named synthesizer can produce audio. Useful at
// startup to fail fast on misconfigured credentials.
func (m *Manager) Check(ctx context.Context, provider string) error {
	s, err := m.synthesizer(provider)
	if err != nil {
		return err
	}
	audio, err := s.Synthesize(ctx, &SynthesisRequest{Text: "test", Format: FormatMP3})
	if err != nil {
		return err
	}
	if len(audio.Data) == 0 {
		return types.NewError(types.ErrUpstreamError, "provider returned empty audio").WithProvider(provider)
	}
	return nil
}
