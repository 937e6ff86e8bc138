package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"twinkle/internal/services/llm"
	"twinkle/internal/textutil"
)

const (
	defaultCategory   = "Uncategorized"
	defaultConfidence = 0.5
	defaultFolder     = "Misc"
	defaultReasoning  = "No specific reasoning provided"
)

type reply struct {
	Category        string          `json:"category"`
	Confidence      json.RawMessage `json:"confidence"`
	SuggestedFolder string          `json:"suggestedFolder"`
	Reasoning       string          `json:"reasoning"`
}

// Parse decodes an oracle reply. The text may be bare JSON, fenced JSON, or
// prose around a single object. Missing or empty fields take defaults, the
// confidence is clamped to [0,1], and the suggested folder is reduced to one
// safe path segment.
func Parse(raw string) (Classification, error) {
	if !strings.Contains(raw, "{") {
		return Classification{}, errors.New("no JSON object in reply")
	}
	var r reply
	if err := llm.DecodeLLMJSON(raw, &r); err != nil {
		return Classification{}, fmt.Errorf("decode reply: %w", err)
	}

	out := Classification{
		Category:        strings.TrimSpace(r.Category),
		Confidence:      parseConfidence(r.Confidence),
		SuggestedFolder: textutil.SanitizeFolderName(r.SuggestedFolder),
		Reasoning:       strings.TrimSpace(r.Reasoning),
		Source:          SourceOracle,
	}
	if out.Category == "" {
		out.Category = defaultCategory
	}
	if out.SuggestedFolder == "" {
		out.SuggestedFolder = defaultFolder
	}
	if out.Reasoning == "" {
		out.Reasoning = defaultReasoning
	}
	return out, nil
}

// parseConfidence accepts a number or a numeric string. Absent, zero, or
// unparseable values become the default; the rest are clamped to [0,1].
func parseConfidence(raw json.RawMessage) float64 {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		return defaultConfidence
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value == 0 {
		return defaultConfidence
	}
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}
