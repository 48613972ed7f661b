package structured

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/amendo-ai/amendo/types"
)

// GenerateFunc is the text-completion primitive the repair loop depends on.
// llm.Manager.Call satisfies it. Transport retry is the generator's own
// concern; the repair loop only counts healing rounds.
type GenerateFunc func(ctx context.Context, model string, messages []types.Message, temperature float32, maxTokens int) (string, error)

// MetricsRecorder receives repair loop observations. Implementations must
// be safe for concurrent use.
type MetricsRecorder interface {
	RecordRepairOutcome(outcome string, attempts int)
	RecordHealingCall(success bool)
}

// ExhaustedError describes a repair session that spent its attempt budget
// without the content ever validating. It carries the last observed
// validation error and surfaces from Repair wrapped in a REPAIR_EXHAUSTED
// coded error, so both types.IsErrorCode and errors.As reach it.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed to validate yaml after %d healing attempts, last error: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

const defaultHealMaxTokens = 40000

// Mender extracts YAML from model output, validates it against the schema
// derived from T, and heals invalid content through a generation call.
//
// A Mender is stateless between Repair invocations and safe for concurrent
// use; each invocation carries its own content and attempt counter.
type Mender[T any] struct {
	generate      GenerateFunc
	model         string
	schema        *Schema
	validator     *Validator
	maxRetries    int
	healMaxTokens int
	logger        *zap.Logger
	metrics       MetricsRecorder
}

// MenderOption configures a Mender.
type MenderOption func(*menderOptions)

type menderOptions struct {
	maxRetries    int
	healMaxTokens int
	logger        *zap.Logger
	metrics       MetricsRecorder
	validator     *Validator
	schema        *Schema
}

// WithMaxRetries bounds the healing rounds. Total validation passes are
// maxRetries+1. Negative values are treated as zero.
func WithMaxRetries(n int) MenderOption {
	return func(o *menderOptions) { o.maxRetries = n }
}

// WithHealMaxTokens overrides the output-token ceiling for healing calls.
func WithHealMaxTokens(n int) MenderOption {
	return func(o *menderOptions) { o.healMaxTokens = n }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) MenderOption {
	return func(o *menderOptions) { o.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) MenderOption {
	return func(o *menderOptions) { o.metrics = m }
}

// WithValidator replaces the default validator, e.g. to register custom
// string formats.
func WithValidator(v *Validator) MenderOption {
	return func(o *menderOptions) { o.validator = v }
}

// WithSchema replaces the schema derived from T with a hand-built one.
func WithSchema(s *Schema) MenderOption {
	return func(o *menderOptions) { o.schema = s }
}

// NewMender creates a Mender for T. The schema is derived from T's struct
// tags unless WithSchema overrides it.
func NewMender[T any](generate GenerateFunc, model string, opts ...MenderOption) *Mender[T] {
	o := menderOptions{
		maxRetries:    3,
		healMaxTokens: defaultHealMaxTokens,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxRetries < 0 {
		o.maxRetries = 0
	}
	if o.healMaxTokens <= 0 {
		o.healMaxTokens = defaultHealMaxTokens
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.validator == nil {
		o.validator = NewValidator()
	}
	if o.schema == nil {
		o.schema = FromTypeOf[T]()
	}
	return &Mender[T]{
		generate:      generate,
		model:         model,
		schema:        o.schema,
		validator:     o.validator,
		maxRetries:    o.maxRetries,
		healMaxTokens: o.healMaxTokens,
		logger:        o.logger,
		metrics:       o.metrics,
	}
}

// Repair extracts YAML from text, validates it, and heals it until it
// decodes into T or the attempt budget is spent.
//
// When no YAML is extractable from the input there is nothing to heal:
// Repair fails immediately with an EXTRACTION_NOT_FOUND error and makes
// no generation calls. A failed healing call is absorbed: the previous
// content is re-validated on the next pass and the attempt counter still
// advances, so the budget bounds the loop regardless.
func (m *Mender[T]) Repair(ctx context.Context, text string) (T, error) {
	var zero T

	current, ok := FindYAML(text)
	if !ok {
		m.recordOutcome("not_found", 0)
		return zero, types.NewError(types.ErrExtractionNotFound,
			"no yaml content found in the provided text, probably wrong yaml block usage or format")
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		value, err := m.decode(current)
		if err == nil {
			m.recordOutcome("success", attempt)
			return value, nil
		}
		lastErr = err

		if attempt == m.maxRetries {
			break
		}

		m.logger.Info("healing yaml",
			zap.String("model", m.model),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", m.maxRetries),
			zap.String("error", err.Error()))

		healed, healErr := m.heal(ctx, current, err)
		if healErr != nil {
			// Keep the previous content; the attempt is still consumed.
			m.logger.Warn("healing call failed, retrying with previous content", zap.Error(healErr))
			continue
		}
		if healed != "" {
			current = healed
		}
	}

	m.recordOutcome("exhausted", m.maxRetries)
	exhausted := &ExhaustedError{Attempts: m.maxRetries, LastErr: lastErr}
	return zero, types.NewError(types.ErrRepairExhausted, exhausted.Error()).WithCause(exhausted)
}

// decode runs one validation pass: parse, schema check, then unmarshal
// into T. Any failure is heal-worthy.
func (m *Mender[T]) decode(raw string) (T, error) {
	var zero T
	if _, err := m.validator.Validate(raw, m.schema); err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
		return zero, &ParseError{Message: err.Error()}
	}
	return out, nil
}

// heal asks the model for corrected content. Temperature is pinned to zero
// and the token ceiling kept large to avoid truncated documents. A response
// with no extractable block returns empty content without error.
func (m *Mender[T]) heal(ctx context.Context, current string, cause error) (string, error) {
	prompt := healingPrompt(cause, ExampleYAML(m.schema), current)
	messages := types.NewMessageBuilder().System(prompt).Build()

	response, err := m.generate(ctx, m.model, messages, 0, m.healMaxTokens)
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordHealingCall(false)
		}
		return "", types.NewError(types.ErrGenerationFailure, "healing call failed").WithCause(err)
	}
	if m.metrics != nil {
		m.metrics.RecordHealingCall(true)
	}

	healed, _ := FindYAML(response)
	return healed, nil
}

func (m *Mender[T]) recordOutcome(outcome string, attempts int) {
	if m.metrics != nil {
		m.metrics.RecordRepairOutcome(outcome, attempts)
	}
}

// Repair is a one-shot convenience wrapper around NewMender.
func Repair[T any](ctx context.Context, generate GenerateFunc, model, text string, opts ...MenderOption) (T, error) {
	return NewMender[T](generate, model, opts...).Repair(ctx, text)
}

func errorKind(err error) string {
	switch err.(type) {
	case *ParseError:
		return "YAML parsing error"
	case *SchemaError:
		return "schema validation error"
	default:
		return "validation error"
	}
}

const yamlQuotingGuide = `1. Quote these ALWAYS:
   - Strings containing ": " (colon-space)
   - Strings containing quotes (" or ')
   - Strings starting with: {}[]>|*&!%#@,?:-
   - Boolean-like values when meant as strings: yes, no, true, false, True, False

2. List items need special attention:
   - - "text with: colon" is valid
   - - 'text with "quotes"' is valid
   - - text with: colon WILL FAIL

3. Quoting methods (use appropriately):
   - Single quotes: 'literal text, "quotes" are fine' (no escaping)
   - Double quotes: "text with \n escapes" (allows escape sequences)
   - Block scalar for complex strings:
     key: |
       Multi-line text with "quotes" and: colons
       Preserves formatting exactly

4. Common fixes:
   - somebody said: hello  ->  "somebody said: hello"
   - "hello" world  ->  '"hello" world'

Remember: unquoted special characters are interpreted as YAML syntax, not string content.`

func healingPrompt(cause error, example, current string) string {
	return fmt.Sprintf(`You are a YAML healing expert. The following YAML has an error and needs to be fixed.

**Error Type:** %s
**Error Message:**
%s

**Expected Schema (example):**
`+"```yaml\n%s```"+`

**Current YAML (with errors):**
`+"```yaml\n%s\n```"+`

Guidelines:
%s

Please fix the YAML to match the expected schema. Return the corrected YAML in a `+"```yaml"+` code block.
`, errorKind(cause), cause.Error(), example, current, yamlQuotingGuide)
}
