package classifier

import (
	"context"
	"fmt"
	"strings"
)

// SystemPrompt frames every classification request.
const SystemPrompt = "You classify files for a desktop file organizer. Respond with a single JSON object and nothing else."

// Request describes one file to the oracle.
type Request struct {
	FileName      string
	Extension     string
	FileSize      string
	ContentSample string
}

// Oracle answers a classification request with raw model text.
type Oracle interface {
	Classify(ctx context.Context, req Request) (string, error)
}

// Completer sends a system and user prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PromptOracle renders Requests into the classification prompt.
type PromptOracle struct {
	completer Completer
}

// NewPromptOracle wraps completer as an Oracle.
func NewPromptOracle(completer Completer) *PromptOracle {
	return &PromptOracle{completer: completer}
}

// Classify implements Oracle.
func (o *PromptOracle) Classify(ctx context.Context, req Request) (string, error) {
	return o.completer.Complete(ctx, SystemPrompt, BuildPrompt(req))
}

// BuildPrompt renders the user prompt for req.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Analyze this file and classify it into an appropriate folder category:\n\n")
	fmt.Fprintf(&b, "File Name: %s\n", req.FileName)
	fmt.Fprintf(&b, "Extension: %s\n", req.Extension)
	fmt.Fprintf(&b, "File Size: %s\n", req.FileSize)
	if req.ContentSample != "" {
		fmt.Fprintf(&b, "Content Sample:\n%s\n", req.ContentSample)
	}
	b.WriteString(`
Please provide:
1. A category name (e.g., "Documents", "Images", "Code", "Downloads", etc.)
2. A confidence score (0-1)
3. A suggested folder name for organization
4. Brief reasoning for the classification

Respond ONLY with valid JSON format (no markdown, no extra text):
{
  "category": "string",
  "confidence": number,
  "suggestedFolder": "string",
  "reasoning": "string"
}`)
	return b.String()
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize renders size in 1024-based units with two decimals, e.g. "1.50 KB".
func FormatFileSize(size int64) string {
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}
