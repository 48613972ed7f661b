package speech

import "context"

// AudioFormat names a container/encoding for audio payloads.
type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatWAV AudioFormat = "wav"
	FormatOGG AudioFormat = "ogg"
)

// SynthesisRequest asks a provider to render text as speech.
type SynthesisRequest struct {
	Text   string      `json:"text" yaml:"text"`
	Voice  string      `json:"voice" yaml:"voice"`
	Speed  float64     `json:"speed,omitempty" yaml:"speed,omitempty"`
	Format AudioFormat `json:"format,omitempty" yaml:"format,omitempty"`
}

// Audio is synthesized speech with its provenance.
type Audio struct {
	Provider string      `json:"provider"`
	Voice    string      `json:"voice"`
	Format   AudioFormat `json:"format"`
	Data     []byte      `json:"-"`
}

// Voice describes one entry in a provider's voice catalog.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// TranscriptionRequest asks a provider to turn audio into text.
type TranscriptionRequest struct {
	Audio    []byte      `json:"-"`
	Format   AudioFormat `json:"format,omitempty"`
	Language string      `json:"language,omitempty"`
}

// Segment is one timed span of a transcript, in seconds from the start.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is recognized speech with optional timing detail.
type Transcript struct {
	Provider string    `json:"provider"`
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Synthesizer is a text-to-speech backend.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *SynthesisRequest) (*Audio, error)
	Voices(ctx context.Context) ([]Voice, error)
	Name() string
}

// Transcriber is a speech-to-text backend.
type Transcriber interface {
	Transcribe(ctx context.Context, req *TranscriptionRequest) (*Transcript, error)
	Name() string
}
