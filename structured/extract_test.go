package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindYAML_FencedBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "tagged yaml block",
			input: "Here is the config:\n```yaml\nname: John\nage: 30\n```\nDone.",
			want:  "name: John\nage: 30",
			found: true,
		},
		{
			name:  "yml tag",
			input: "```yml\nkey: value\n```",
			want:  "key: value",
			found: true,
		},
		{
			name:  "uppercase tag",
			input: "```YAML\nkey: value\n```",
			want:  "key: value",
			found: true,
		},
		{
			name:  "first of several blocks wins",
			input: "```yaml\nfirst: 1\n```\ntext\n```yaml\nsecond: 2\n```",
			want:  "first: 1",
			found: true,
		},
		{
			name:  "empty block is not found",
			input: "```yaml\n```",
			want:  "",
			found: false,
		},
		{
			name:  "untagged block does not match",
			input: "```\nkey: value\n```",
			want:  "key: value",
			found: true, // falls through to the bare-document heuristic
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindYAML(tt.input)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Contains(t, got, tt.want)
			}
		})
	}
}

func TestFindYAML_BareDocumentHeuristic(t *testing.T) {
	got, found := FindYAML("name: John\nage: 30\n")
	require.True(t, found)
	assert.Equal(t, "name: John\nage: 30", got)
}

func TestFindYAML_NotFound(t *testing.T) {
	for _, input := range []string{
		"",
		"just prose with no structure at all",
		"   \n\t\n",
		"a sentence: but only after words with spaces",
	} {
		_, found := FindYAML(input)
		assert.False(t, found, "input %q", input)
	}
}
