package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/amendo-ai/amendo/types"
)

// Tokenizer estimates token counts for prompt sizing and logging.
// It lazily initializes a tiktoken encoding (which may download data on
// first use) and falls back to a character-based estimate when the
// encoding is unavailable.
type Tokenizer struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTokenizer creates a Tokenizer with the cl100k_base encoding, which
// approximates most current chat models closely enough for budgeting.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{encoding: "cl100k_base"}
}

func (t *Tokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = err
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// Count returns the estimated token count of text.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	if err := t.init(); err != nil {
		// ~4 bytes per token for English-heavy text.
		return (len(text) + 3) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessages returns the estimated token count of a message list,
// including a small per-message framing overhead.
func (t *Tokenizer) CountMessages(messages []types.Message) int {
	total := 0
	for _, msg := range messages {
		total += 4
		total += t.Count(msg.Content)
		total += t.Count(string(msg.Role))
	}
	if total > 0 {
		total += 3
	}
	return total
}
