// internal/llmutil/parser.go
package llmutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
)

// ErrNoJSON is returned when a response holds no JSON object at all.
var ErrNoJSON = errors.New("no JSON object in model response")

// fencedBlockRegex matches a markdown code block with an optional json tag.
// \x60 is a backtick; raw strings cannot hold one.
var fencedBlockRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(.*?)\\s*\x60\x60\x60")

// ExtractJSONObject pulls the JSON object out of a model answer. A fenced
// block wins; otherwise the text between the outermost braces is used.
// Returns "" when neither is present.
func ExtractJSONObject(response string) string {
	response = strings.TrimSpace(response)
	if m := fencedBlockRegex.FindStringSubmatch(response); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first != -1 && last > first {
		return response[first : last+1]
	}
	return ""
}

// ParseJSONResponse decodes the JSON object of a model answer into T.
func ParseJSONResponse[T any](response string) (*T, error) {
	payload := ExtractJSONObject(response)
	if payload == "" {
		return nil, ErrNoJSON
	}

	var result T
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model JSON: %w (extracted: %s)", err, truncate(payload, 200))
	}
	return &result, nil
}

// truncate shortens s for error messages. It may split a multi-byte rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
