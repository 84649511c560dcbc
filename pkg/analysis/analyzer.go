// Package analysis is the boundary to the external stock-analysis
// collaborator: given a free-text instruction it returns a structured
// analysis or a failure.
package analysis

import (
	"context"
	"errors"
)

// Analyzer runs a free-text instruction against the analysis backend.
// A backend-reported failure is returned as a *Failure error.
type Analyzer interface {
	Analyze(ctx context.Context, query string) (*Analysis, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, query string) (*Analysis, error)

// Analyze calls f(ctx, query).
func (f AnalyzerFunc) Analyze(ctx context.Context, query string) (*Analysis, error) {
	return f(ctx, query)
}

// Analysis is a successful analysis. Nil fields were absent in the backend reply.
type Analysis struct {
	Ticker                *string
	CompanyName           *string
	Recommendation        *string
	ConfidenceScore       *float64
	CurrentPrice          *float64
	PriceChangePercentage *float64
	Response              *string
	ExtractedData         map[string]any
	Timestamp             *string
}

// Extracted returns extracted_data[key] when it is a non-empty object.
func (a *Analysis) Extracted(key string) (map[string]any, bool) {
	if a == nil || a.ExtractedData == nil {
		return nil, false
	}
	m, ok := a.ExtractedData[key].(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	return m, true
}

// Failure is a failure reported by the backend itself. Message may be empty.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return "analysis failed"
	}
	return f.Message
}

// FailureMessage returns the backend's own message when err is a *Failure
// carrying one, err's text for any other error, and fallback otherwise.
func FailureMessage(err error, fallback string) string {
	var f *Failure
	if errors.As(err, &f) {
		if f.Message != "" {
			return f.Message
		}
		return fallback
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

// Unavailable is used when no backend is configured; every call fails.
type Unavailable struct{}

// Analyze always returns a *Failure.
func (Unavailable) Analyze(context.Context, string) (*Analysis, error) {
	return nil, &Failure{Message: "analysis backend not configured"}
}
