package structured

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amendo-ai/amendo/types"
)

type testPerson struct {
	Name  string `yaml:"name" schema:"required"`
	Age   int    `yaml:"age" schema:"required,min=0"`
	Email string `yaml:"email" schema:"required,format=email"`
}

type testTeam struct {
	TeamName string       `yaml:"team_name" schema:"required"`
	Members  []testPerson `yaml:"members" schema:"required,minItems=1"`
	Budget   float64      `yaml:"budget" schema:"required"`
	IsActive bool         `yaml:"is_active"`
}

// scriptedGen returns each response in turn, repeating the last one, and
// counts calls.
func scriptedGen(calls *int, responses ...string) GenerateFunc {
	return func(ctx context.Context, model string, messages []types.Message, temperature float32, maxTokens int) (string, error) {
		i := *calls
		*calls++
		if i >= len(responses) {
			i = len(responses) - 1
		}
		return responses[i], nil
	}
}

func failingGen(calls *int) GenerateFunc {
	return func(ctx context.Context, model string, messages []types.Message, temperature float32, maxTokens int) (string, error) {
		*calls++
		return "", types.NewError(types.ErrUpstreamTimeout, "timeout").WithRetryable(true)
	}
}

func TestRepair_ValidFirstAttempt(t *testing.T) {
	calls := 0
	m := NewMender[testPerson](scriptedGen(&calls, "unused"), "test/model")

	input := "Here's a person config:\n```yaml\nname: John Smith\nage: 22\nemail: john@example.com\n```\n"
	got, err := m.Repair(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, testPerson{Name: "John Smith", Age: 22, Email: "john@example.com"}, got)
	assert.Equal(t, 0, calls, "valid input must not trigger healing")
}

func TestRepair_NoExtractableContent(t *testing.T) {
	calls := 0
	m := NewMender[testPerson](scriptedGen(&calls, "unused"), "test/model", WithMaxRetries(5))

	_, err := m.Repair(context.Background(), "just prose with nothing structured in it")

	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrExtractionNotFound))
	assert.Equal(t, 0, calls, "there is nothing to heal, so no generation calls")
}

func TestRepair_HealsInvalidEmail(t *testing.T) {
	calls := 0
	healed := "```yaml\nname: John Smith\nage: 22\nemail: john@example.com\n```"
	m := NewMender[testPerson](scriptedGen(&calls, healed), "test/model", WithMaxRetries(3))

	input := "```yaml\nname: John Smith\nage: 22\nemail: cacaca#gmail.com\n```"
	got, err := m.Repair(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "john@example.com", got.Email)
	assert.Equal(t, "John Smith", got.Name)
	assert.Equal(t, 1, calls, "one healing round should suffice")
}

func TestRepair_HealsScalarToList(t *testing.T) {
	calls := 0
	healed := "```yaml\n" +
		"team_name: Engineering Team\n" +
		"members:\n" +
		"  - name: John Doe\n" +
		"    age: 30\n" +
		"    email: john@example.com\n" +
		"budget: 50000.0\n" +
		"is_active: true\n" +
		"```"
	m := NewMender[testTeam](scriptedGen(&calls, healed), "test/model", WithMaxRetries(3))

	input := "Team configuration:\n```yaml\nteam_name: Engineering Team\nmembers: John Doe\nbudget: 50000.0\n```"
	got, err := m.Repair(context.Background(), input)

	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "John Doe", got.Members[0].Name)
	assert.Equal(t, 1, calls)
}

func TestRepair_ExhaustsBudget(t *testing.T) {
	// Every healing round returns content that still violates the schema.
	stillBad := "```yaml\nname: John\nage: -1\nemail: john@example.com\n```"
	calls := 0
	m := NewMender[testPerson](scriptedGen(&calls, stillBad), "test/model", WithMaxRetries(2))

	input := "```yaml\nname: John\nage: -5\nemail: john@example.com\n```"
	_, err := m.Repair(context.Background(), input)

	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrRepairExhausted))
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Equal(t, 2, calls, "maxRetries bounds the generation calls")

	var schemaErr *SchemaError
	require.ErrorAs(t, exhausted.LastErr, &schemaErr)
	assert.Equal(t, "age", schemaErr.Path)
}

func TestRepair_ValidationPassCount(t *testing.T) {
	// Count validation passes through a custom format validator attached to
	// a field every pass must visit.
	passes := 0
	v := NewValidator()
	v.RegisterFormat("counted", func(string) bool {
		passes++
		return false // never valid, so the loop always exhausts
	})
	schema := NewObject().
		AddProperty("name", NewString().WithFormat("counted")).
		AddRequired("name")

	calls := 0
	m := NewMender[map[string]any](scriptedGen(&calls, "```yaml\nname: x\n```"), "test/model",
		WithMaxRetries(2), WithValidator(v), WithSchema(schema))

	_, err := m.Repair(context.Background(), "```yaml\nname: x\n```")

	require.Error(t, err)
	assert.Equal(t, 3, passes, "maxRetries=2 means exactly 3 validation passes")
	assert.Equal(t, 2, calls, "and exactly 2 generation calls")
}

func TestRepair_AbsorbsHealingFailures(t *testing.T) {
	// The generation call fails every time; the loop keeps re-validating
	// the stale content and the budget still bounds it.
	calls := 0
	m := NewMender[testPerson](failingGen(&calls), "test/model", WithMaxRetries(2))

	input := "```yaml\nname: John\nage: twenty\nemail: john@example.com\n```"
	_, err := m.Repair(context.Background(), input)

	require.Error(t, err)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, calls)

	// The surfaced error is the validation failure, not the transport one.
	var schemaErr *SchemaError
	assert.ErrorAs(t, exhausted.LastErr, &schemaErr)
}

func TestRepair_HealingResponseWithoutBlockKeepsContent(t *testing.T) {
	calls := 0
	responses := []string{
		"Sorry, I cannot help with that.", // no extractable block
		"```yaml\nname: John\nage: 22\nemail: john@example.com\n```",
	}
	m := NewMender[testPerson](scriptedGen(&calls, responses...), "test/model", WithMaxRetries(3))

	input := "```yaml\nname: John\nage: twenty\nemail: john@example.com\n```"
	got, err := m.Repair(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 22, got.Age)
	assert.Equal(t, 2, calls, "the blockless response consumes an attempt")
}

func TestRepair_HealingPromptContents(t *testing.T) {
	var prompt string
	var temp float32 = -1
	var maxTokens int
	gen := func(ctx context.Context, model string, messages []types.Message, temperature float32, mt int) (string, error) {
		require.Len(t, messages, 1)
		assert.Equal(t, types.RoleSystem, messages[0].Role)
		prompt = messages[0].Content
		temp = temperature
		maxTokens = mt
		return "```yaml\nname: John\nage: 22\nemail: john@example.com\n```", nil
	}

	m := NewMender[testPerson](gen, "test/model", WithMaxRetries(1))
	input := "```yaml\nname: John\nage: twenty\nemail: john@example.com\n```"
	_, err := m.Repair(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, float32(0), temp, "healing must be deterministic")
	assert.Equal(t, defaultHealMaxTokens, maxTokens)

	assert.Contains(t, prompt, "expected integer", "the validation error is embedded")
	assert.Contains(t, prompt, "age: twenty", "the offending content is embedded")
	assert.Contains(t, prompt, "email: user@example.com", "the schema example is embedded")
	assert.Contains(t, prompt, "Quote these ALWAYS", "the quoting guide is embedded")
}

func TestRepair_OneShotHelper(t *testing.T) {
	got, err := Repair[testPerson](context.Background(), scriptedGen(new(int), "unused"), "test/model",
		"```yaml\nname: Ada\nage: 36\nemail: ada@example.com\n```")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	healOK   int
	healFail int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: make(map[string]int)}
}

func (c *countingMetrics) RecordRepairOutcome(outcome string, attempts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[outcome]++
}

func (c *countingMetrics) RecordHealingCall(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.healOK++
	} else {
		c.healFail++
	}
}

func TestRepair_RecordsMetrics(t *testing.T) {
	metrics := newCountingMetrics()
	calls := 0
	healed := "```yaml\nname: John\nage: 22\nemail: john@example.com\n```"
	m := NewMender[testPerson](scriptedGen(&calls, healed), "test/model",
		WithMaxRetries(2), WithMetrics(metrics))

	_, err := m.Repair(context.Background(), "```yaml\nname: John\nage: twenty\nemail: john@example.com\n```")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.outcomes["success"])
	assert.Equal(t, 1, metrics.healOK)

	_, err = m.Repair(context.Background(), "no structure here")
	require.Error(t, err)
	assert.Equal(t, 1, metrics.outcomes["not_found"])
}

func TestRepairEach(t *testing.T) {
	calls := 0
	m := NewMender[testPerson](scriptedGen(&calls, "unused"), "test/model")

	texts := make([]string, 5)
	for i := range texts {
		texts[i] = fmt.Sprintf("```yaml\nname: Person %d\nage: %d\nemail: p%d@example.com\n```", i, 20+i, i)
	}

	results, err := RepairEach(context.Background(), m, texts, 2)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, p := range results {
		assert.Equal(t, fmt.Sprintf("Person %d", i), p.Name)
		assert.Equal(t, 20+i, p.Age)
	}
}

func TestRepairEach_FailureNamesDocument(t *testing.T) {
	m := NewMender[testPerson](scriptedGen(new(int), "unused"), "test/model")

	texts := []string{
		"```yaml\nname: Ok\nage: 1\nemail: ok@example.com\n```",
		"nothing structured at all",
	}
	_, err := RepairEach(context.Background(), m, texts, 0)

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "document 1"))
	assert.True(t, types.IsErrorCode(err, types.ErrExtractionNotFound))
}

func TestExhaustedError_Unwrap(t *testing.T) {
	inner := &SchemaError{Path: "age", Message: "expected integer"}
	err := &ExhaustedError{Attempts: 3, LastErr: inner}

	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, err.Error(), "after 3 healing attempts")
}
