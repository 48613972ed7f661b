package structured

import (
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ExampleYAML renders a schema as an example YAML document for prompting.
// Field order follows the schema, so the output is deterministic for a
// given schema. Placeholders prefer the field default, then the first enum
// value, then a type-, format-, or pattern-appropriate stand-in; lists are rendered
// with one representative element. The result is prompt context only and
// is never parsed back.
func ExampleYAML(s *Schema) string {
	out, err := yaml.Marshal(exampleNode(s))
	if err != nil {
		return ""
	}
	return string(out)
}

func exampleNode(s *Schema) *yaml.Node {
	if s == nil {
		return scalarString("string", "")
	}
	if s.Default != nil {
		return encodeValue(s.Default, s.Description)
	}
	if len(s.Enum) > 0 {
		return encodeValue(s.Enum[0], s.Description)
	}

	switch s.Type {
	case TypeObject:
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range s.Fields() {
			key := &yaml.Node{Kind: yaml.ScalarNode, Value: name}
			node.Content = append(node.Content, key, exampleNode(s.Property(name)))
		}
		return node
	case TypeArray:
		return &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{exampleNode(s.Items)}}
	case TypeString:
		return scalarString(stringPlaceholder(s), s.Description)
	case TypeInteger:
		v := 0
		if s.Minimum != nil {
			v = int(*s.Minimum)
		}
		return scalarTagged(strconv.Itoa(v), "!!int", s.Description)
	case TypeNumber:
		v := 0.0
		if s.Minimum != nil {
			v = *s.Minimum
		}
		return scalarTagged(strconv.FormatFloat(v, 'f', 1, 64), "!!float", s.Description)
	case TypeBoolean:
		return scalarTagged("false", "!!bool", s.Description)
	default:
		return scalarString("string", s.Description)
	}
}

// patternCandidates are tried in order against a pattern-constrained field
// so common patterns (identifiers, emails, URLs, dates, digits) still get a
// placeholder that satisfies them.
var patternCandidates = []string{
	"string",
	"user@example.com",
	"https://example.com",
	"123e4567-e89b-12d3-a456-426614174000",
	"2024-01-01",
	"2024-01-01T00:00:00Z",
	"123",
	"abc123",
	"A",
}

func stringPlaceholder(s *Schema) string {
	var base string
	switch s.Format {
	case FormatEmail:
		base = "user@example.com"
	case FormatURI:
		base = "https://example.com"
	case FormatUUID:
		base = "123e4567-e89b-12d3-a456-426614174000"
	case FormatDate:
		base = "2024-01-01"
	case FormatDateTime:
		base = "2024-01-01T00:00:00Z"
	default:
		base = "string"
	}
	if s.Pattern == "" {
		return base
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil || re.MatchString(base) {
		return base
	}
	for _, candidate := range patternCandidates {
		if re.MatchString(candidate) {
			return candidate
		}
	}
	return base
}

func scalarString(value, comment string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, LineComment: comment}
}

func scalarTagged(value, tag, comment string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value, LineComment: comment}
}

func encodeValue(v any, comment string) *yaml.Node {
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return scalarString("string", comment)
	}
	if comment != "" && node.Kind == yaml.ScalarNode {
		node.LineComment = comment
	}
	return node
}
