package schema

import (
	"errors"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// DefaultSampleBytes bounds the offending excerpt attached to parse warnings.
const DefaultSampleBytes = 120

// Extractor pulls section schemas out of template sources. Invalid schemas
// degrade to "no schema" after a warning.
type Extractor struct {
	logger      interfaces.Logger
	sampleBytes int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger overrides the warning sink.
func WithLogger(logger interfaces.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSampleBytes overrides the excerpt length.
func WithSampleBytes(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.sampleBytes = n
		}
	}
}

// NewExtractor builds an extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{logger: logging.NoOp(), sampleBytes: DefaultSampleBytes}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the schema of source, or nil when the source has none or
// the block cannot be parsed. The error is only set in the latter case.
func (e *Extractor) Extract(source string) (*Schema, error) {
	body, ok := Locate(source)
	if !ok {
		return nil, nil
	}
	parsed, err := Parse(body)
	if err != nil {
		sample := body
		var perr *ParseError
		if errors.As(err, &perr) {
			sample = perr.Sample
		}
		e.logger.Warn("schema.parse_failed", "error", err, "sample", logging.Truncate(sample, e.sampleBytes))
		return nil, err
	}
	return parsed, nil
}
