package classifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"twinkle/internal/logging"
	"twinkle/internal/services"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultSampleChars    = 500
	defaultMaxSampleBytes = 1024 * 1024
)

// Source records which path produced a Classification.
type Source string

const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

// Classification is the verdict for one file. All fields are always populated.
type Classification struct {
	Category        string  `json:"category"`
	Confidence      float64 `json:"confidence"`
	SuggestedFolder string  `json:"suggestedFolder"`
	Reasoning       string  `json:"reasoning"`
	Source          Source  `json:"source"`
}

// textExtensions are sampled for content before asking the oracle.
var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".csv": {}, ".log": {}, ".json": {}, ".xml": {}, ".html": {},
	".js": {}, ".ts": {}, ".py": {}, ".java": {}, ".cpp": {}, ".c": {}, ".h": {},
}

// Options tunes request timing and content sampling.
type Options struct {
	Timeout        time.Duration
	SampleChars    int
	MaxSampleBytes int64
	// Provider names the oracle backend in logs.
	Provider string
}

// Classifier wraps an Oracle with timeout, validation, and fallback.
type Classifier struct {
	oracle Oracle
	opts   Options
	logger *slog.Logger
}

// New builds a Classifier. A nil oracle classifies every file by extension.
func New(oracle Oracle, opts Options, logger *slog.Logger) *Classifier {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.SampleChars <= 0 {
		opts.SampleChars = defaultSampleChars
	}
	if opts.MaxSampleBytes <= 0 {
		opts.MaxSampleBytes = defaultMaxSampleBytes
	}
	if strings.TrimSpace(opts.Provider) == "" {
		opts.Provider = "none"
		if oracle != nil {
			opts.Provider = "custom"
		}
	}
	return &Classifier{
		oracle: oracle,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "classifier"),
	}
}

// Provider reports the configured oracle backend name.
func (c *Classifier) Provider() string {
	return c.opts.Provider
}

// Classify returns a verdict for the file at path.
func (c *Classifier) Classify(ctx context.Context, path string) Classification {
	req := c.describe(path)
	logger := logging.WithContext(ctx, c.logger).With(logging.String("file", req.FileName))

	if c.oracle == nil {
		logger.Debug("no classification oracle configured; using extension table",
			logging.String(logging.FieldEventType, "classification_fallback"),
			logging.String("extension", req.Extension),
		)
		return Fallback(req.Extension)
	}

	result, err := c.ask(ctx, req)
	if err != nil {
		fallback := Fallback(req.Extension)
		logging.WarnWithContext(logger, "classification failed; using extension table", "classification_fallback",
			logging.Error(err),
			logging.String("error_kind", services.Kind(err)),
			logging.String("provider", c.opts.Provider),
			logging.String("fallback_folder", fallback.SuggestedFolder),
			logging.String(logging.FieldErrorHint, "check oracle credentials, model name, and network reachability"),
			logging.String(logging.FieldImpact, "file organized by extension instead of content"),
		)
		return fallback
	}

	logger.Debug("file classified",
		logging.String(logging.FieldEventType, "classification_completed"),
		logging.String("category", result.Category),
		logging.String("suggested_folder", result.SuggestedFolder),
		logging.Float64("confidence", result.Confidence),
	)
	return result
}

func (c *Classifier) ask(ctx context.Context, req Request) (Classification, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	raw, err := c.oracle.Classify(reqCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return Classification{}, services.Wrap(services.ErrTimeout, "classifier", "oracle request",
				"oracle did not answer within "+c.opts.Timeout.String(), err)
		}
		return Classification{}, services.Wrap(services.ErrClassification, "classifier", "oracle request", "oracle request failed", err)
	}
	result, err := Parse(raw)
	if err != nil {
		return Classification{}, services.Wrap(services.ErrClassification, "classifier", "parse reply", "oracle reply unusable", err)
	}
	return result, nil
}

func (c *Classifier) describe(path string) Request {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	req := Request{
		FileName:  name,
		Extension: ext,
		FileSize:  FormatFileSize(size),
	}
	if _, ok := textExtensions[ext]; ok && size < c.opts.MaxSampleBytes {
		sample, err := readSample(path, c.opts.SampleChars)
		if err != nil {
			c.logger.Debug("content sample unavailable",
				logging.String("file", name),
				logging.Error(err),
			)
		}
		req.ContentSample = sample
	}
	return req
}

// readSample returns up to chars runes from the head of the file.
func readSample(path string, chars int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	limit := int64(chars) * utf8.UTFMax
	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return "", err
	}
	truncated := int64(len(data)) == limit

	var b strings.Builder
	count := 0
	for len(data) > 0 && count < chars {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && truncated && !utf8.FullRune(data) {
			break
		}
		b.WriteRune(r)
		data = data[size:]
		count++
	}
	return b.String(), nil
}
