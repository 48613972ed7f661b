package structured

import (
	"regexp"
	"strings"
)

var (
	fencedBlockRe = regexp.MustCompile("(?is)```[ \t]*ya?ml[ \t]*\r?\n(.*?)```")
	topLevelKeyRe = regexp.MustCompile(`(?m)^[A-Za-z_][A-Za-z0-9_-]*[ \t]*:(\s|$)`)
)

// FindYAML scans free-form text for YAML content. It returns the body of
// the first fenced code block tagged yaml or yml (tag match is
// case-insensitive). When no tagged block exists, the whole input is
// accepted as raw content only if it superficially resembles a YAML
// document (a top-level "key:" line); otherwise the second return is
// false. Absence is a normal outcome, never a panic.
func FindYAML(text string) (string, bool) {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		content := strings.TrimSpace(m[1])
		return content, content != ""
	}

	trimmed := strings.TrimSpace(text)
	if trimmed != "" && topLevelKeyRe.MatchString(trimmed) {
		return trimmed, true
	}
	return "", false
}
