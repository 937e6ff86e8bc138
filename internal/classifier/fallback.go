package classifier

import "strings"

const fallbackConfidence = 0.8

type tableEntry struct {
	category string
	folder   string
}

var extensionTable = map[string]tableEntry{
	".jpg":  {"Images", "Photos"},
	".jpeg": {"Images", "Photos"},
	".png":  {"Images", "Images"},
	".gif":  {"Images", "Images"},
	".bmp":  {"Images", "Images"},
	".svg":  {"Images", "Vectors"},

	".pdf":  {"Documents", "PDFs"},
	".doc":  {"Documents", "Word Documents"},
	".docx": {"Documents", "Word Documents"},
	".txt":  {"Documents", "Text Files"},
	".md":   {"Documents", "Markdown"},

	".js":   {"Code", "JavaScript"},
	".ts":   {"Code", "TypeScript"},
	".py":   {"Code", "Python"},
	".java": {"Code", "Java"},

	".zip": {"Archives", "Compressed Files"},
	".rar": {"Archives", "Compressed Files"},
	".7z":  {"Archives", "Compressed Files"},
	".tar": {"Archives", "Compressed Files"},
	".gz":  {"Archives", "Compressed Files"},

	".mp4":  {"Videos", "Videos"},
	".avi":  {"Videos", "Videos"},
	".mov":  {"Videos", "Videos"},
	".mp3":  {"Audio", "Music"},
	".wav":  {"Audio", "Audio Files"},
	".flac": {"Audio", "Music"},
}

// Fallback classifies by extension alone. ext includes the leading dot and is
// matched case-insensitively; unknown extensions map to Other/Misc.
func Fallback(ext string) Classification {
	ext = strings.ToLower(strings.TrimSpace(ext))
	entry, ok := extensionTable[ext]
	if !ok {
		entry = tableEntry{"Other", "Misc"}
	}
	return Classification{
		Category:        entry.category,
		Confidence:      fallbackConfidence,
		SuggestedFolder: entry.folder,
		Reasoning:       "Classification based on file extension " + ext,
		Source:          SourceFallback,
	}
}
