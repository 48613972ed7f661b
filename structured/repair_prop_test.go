package structured

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// The attempt budget must bound the loop no matter how unhelpful the
// healing responses are.
func TestRepair_AttemptBoundProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	invalidInput := "```yaml\nname: John\nage: twenty\nemail: john@example.com\n```"
	stillInvalid := "```yaml\nname: John\nage: still not a number\nemail: john@example.com\n```"

	properties.Property("maxRetries=N means exactly N generation calls before exhaustion", prop.ForAll(
		func(maxRetries int) bool {
			calls := 0
			m := NewMender[testPerson](scriptedGen(&calls, stillInvalid), "test/model",
				WithMaxRetries(maxRetries))

			_, err := m.Repair(context.Background(), invalidInput)

			var exhausted *ExhaustedError
			return errors.As(err, &exhausted) &&
				exhausted.Attempts == maxRetries &&
				calls == maxRetries
		},
		gen.IntRange(0, 6),
	))

	properties.Property("valid input never generates, regardless of budget", prop.ForAll(
		func(maxRetries int) bool {
			calls := 0
			m := NewMender[testPerson](scriptedGen(&calls, stillInvalid), "test/model",
				WithMaxRetries(maxRetries))

			valid := "```yaml\nname: John\nage: 22\nemail: john@example.com\n```"
			_, err := m.Repair(context.Background(), valid)
			return err == nil && calls == 0
		},
		gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}
