// Package params resolves {name} placeholders inside prompt templates.
// Doubled braces ({{ and }}) are escapes for literal brace characters and are
// never expanded, even when the text between them matches a parameter name.
package params

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"feedlens/internal/models"
)

// Substitute replaces every unescaped {name} occurrence that has an entry in
// values. A placeholder without a value is left as literal text; supplying
// every discovered parameter is the caller's responsibility.
func Substitute(template string, values map[string]string) string {
	var out strings.Builder
	out.Grow(len(template))

	i := 0
	for i < len(template) {
		switch {
		case strings.HasPrefix(template[i:], "{{"):
			out.WriteByte('{')
			i += 2
		case strings.HasPrefix(template[i:], "}}"):
			out.WriteByte('}')
			i += 2
		case template[i] == '{':
			name, end, ok := scanPlaceholder(template, i)
			if !ok {
				out.WriteByte('{')
				i++
				continue
			}
			if value, found := values[name]; found {
				out.WriteString(value)
			} else {
				out.WriteString(template[i:end])
			}
			i = end
		default:
			out.WriteByte(template[i])
			i++
		}
	}

	return out.String()
}

// ParseParameters returns the distinct parameter names found in template,
// sorted case-insensitively. Names inside escaped-brace runs are ignored.
func ParseParameters(template string) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)

	i := 0
	for i < len(template) {
		switch {
		case strings.HasPrefix(template[i:], "{{"):
			i += 2
		case strings.HasPrefix(template[i:], "}}"):
			i += 2
		case template[i] == '{':
			name, end, ok := scanPlaceholder(template, i)
			if !ok {
				i++
				continue
			}
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				names = append(names, name)
			}
			i = end
		default:
			i++
		}
	}

	sort.Slice(names, func(a, b int) bool {
		return strings.ToLower(names[a]) < strings.ToLower(names[b])
	})

	return names
}

// scanPlaceholder reads a {name} starting at the opening brace and returns
// the name and the index one past the closing brace.
func scanPlaceholder(template string, start int) (string, int, bool) {
	close := strings.IndexByte(template[start+1:], '}')
	if close == -1 {
		return "", 0, false
	}

	end := start + 1 + close
	name := template[start+1 : end]
	if !isParameterName(name) {
		return "", 0, false
	}

	return name, end + 1, true
}

func isParameterName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// Source identifies where a parameter value comes from. Resolution happens at
// the call site; the substitution engine itself only sees final strings.
type Source string

const (
	SourceCustom      Source = "custom"
	SourceCurrentDate Source = "current-date"
	SourceTimestamp   Source = "timestamp"
	SourceThread      Source = "thread"
	SourceQAPair      Source = "qa-pair"
)

type Value struct {
	Source Source
	Text   string
}

// Resolve turns a source-tagged value map into the plain string map the
// substitution engine consumes.
func Resolve(values map[string]Value, thread models.ThreadRecord, pair *models.QAPair, now time.Time) (map[string]string, error) {
	resolved := make(map[string]string, len(values))

	for name, value := range values {
		switch value.Source {
		case SourceCustom:
			resolved[name] = value.Text
		case SourceCurrentDate:
			resolved[name] = now.Format("2006-01-02")
		case SourceTimestamp:
			resolved[name] = now.Format(time.RFC3339)
		case SourceThread:
			if thread == nil {
				return nil, fmt.Errorf("parameter %s requires an active thread", name)
			}
			data, err := json.Marshal(thread)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize thread for parameter %s: %w", name, err)
			}
			resolved[name] = string(data)
		case SourceQAPair:
			if pair == nil {
				return nil, fmt.Errorf("parameter %s requires an active Q&A pair", name)
			}
			data, err := json.Marshal(pair)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize Q&A pair for parameter %s: %w", name, err)
			}
			resolved[name] = string(data)
		default:
			return nil, fmt.Errorf("unknown parameter source: %s", value.Source)
		}
	}

	return resolved, nil
}
