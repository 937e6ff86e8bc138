package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const snippetLimit = 160

// DecodeLLMJSON unmarshals a model reply into target. Replies wrapped in a
// markdown code fence or surrounded by prose are reduced to the outermost
// JSON object or array before a second attempt.
func DecodeLLMJSON(content string, target any) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("empty reply")
	}
	firstErr := json.Unmarshal([]byte(content), target)
	if firstErr == nil {
		return nil
	}

	body := extractJSON(content)
	if body == "" || body == content {
		return fmt.Errorf("%w (reply: %s)", firstErr, snippet(content))
	}
	if err := json.Unmarshal([]byte(body), target); err != nil {
		return fmt.Errorf("%w (extracted: %s)", err, snippet(body))
	}
	return nil
}

func extractJSON(content string) string {
	body := unfence(content)
	if body == "" || body[0] == '{' || body[0] == '[' {
		return body
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(body, pair[0])
		end := strings.LastIndex(body, pair[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(body[start : end+1])
		}
	}
	return body
}

// unfence strips a ``` or ```json fence around content.
func unfence(content string) string {
	content = strings.TrimSpace(content)
	rest, ok := strings.CutPrefix(content, "```")
	if !ok {
		return content
	}
	rest = strings.TrimLeft(rest, " \t\r\n")
	if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
		rest = rest[4:]
	}
	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

// snippet flattens whitespace and truncates text for error messages.
func snippet(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	if flat == "" {
		return "<empty>"
	}
	if runes := []rune(flat); len(runes) > snippetLimit {
		return string(runes[:snippetLimit]) + "..."
	}
	return flat
}
