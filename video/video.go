package video

import (
	"context"
	"time"
)

// JobState is the lifecycle stage of a generation job.
type JobState string

const (
	StateQueued     JobState = "queued"
	StateProcessing JobState = "processing"
	StateSucceeded  JobState = "succeeded"
	StateFailed     JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// GenerationRequest describes the clip to generate. ImageURL, when set,
// seeds an image-to-video generation.
type GenerationRequest struct {
	Prompt      string        `json:"prompt" yaml:"prompt"`
	ImageURL    string        `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Duration    time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	AspectRatio string        `json:"aspect_ratio,omitempty" yaml:"aspect_ratio,omitempty"`
}

// Job is the server-side state of one generation.
type Job struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	State     JobState  `json:"state"`
	VideoURL  string    `json:"video_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Generator is a video generation backend.
type Generator interface {
	Start(ctx context.Context, req *GenerationRequest) (*Job, error)
	Poll(ctx context.Context, jobID string) (*Job, error)
	Name() string
}
