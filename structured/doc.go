// Package structured turns free-form model output into validated Go values.
//
// The pipeline extracts a fenced YAML block from generated text, validates
// it against a schema derived from a Go type, and when validation fails
// asks a model to heal the content, iterating up to a configured bound.
package structured
