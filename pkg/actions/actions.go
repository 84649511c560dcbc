// Package actions implements the stock agent's domain operations on top of
// an analysis.Analyzer: each builds an instruction from its parameters and
// projects the analysis onto a fixed result shape with fallbacks.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/analysis"
)

const logPrefix = "actions:actions"

// Fallback values used when the analysis omits a field.
const (
	UnknownValue          = "unknown"
	DefaultRecommendation = "Hold"
	DefaultConfidence     = 50.0
)

// Implementation runs one capability against a parameter bag.
type Implementation func(ctx context.Context, params map[string]any) (map[string]any, error)

// Actions runs the domain operations against one analyzer.
type Actions struct {
	analyzer analysis.Analyzer
	now      func() time.Time
}

// New creates Actions backed by analyzer. A nil analyzer fails every call.
func New(analyzer analysis.Analyzer) *Actions {
	if analyzer == nil {
		analyzer = analysis.Unavailable{}
	}
	return &Actions{analyzer: analyzer, now: time.Now}
}

// Implementations returns the capability id to implementation table.
func (a *Actions) Implementations() map[string]Implementation {
	return map[string]Implementation{
		a2a.CapabilityAnalyzeStock: func(ctx context.Context, p map[string]any) (map[string]any, error) {
			return a.AnalyzeStock(ctx, StringParam(p, ParamCompanyNameOrTicker))
		},
		a2a.CapabilityGetMarketData: func(ctx context.Context, p map[string]any) (map[string]any, error) {
			return a.GetMarketData(ctx, StringParam(p, ParamTicker), IncludeHistorical(p))
		},
		a2a.CapabilityResolveCompanyName: func(ctx context.Context, p map[string]any) (map[string]any, error) {
			return a.ResolveCompanyName(ctx, StringParam(p, ParamCompanyName))
		},
		a2a.CapabilityQuery: func(ctx context.Context, p map[string]any) (map[string]any, error) {
			return a.Query(ctx, StringParam(p, ParamQuery))
		},
	}
}

// AnalyzeStock produces an investment recommendation for a company or ticker.
func (a *Actions) AnalyzeStock(ctx context.Context, companyOrTicker string) (map[string]any, error) {
	res, err := a.analyze(ctx, fmt.Sprintf("Analyze %s stock and provide investment recommendations", companyOrTicker), "analysis failed")
	if err != nil {
		return nil, err
	}

	analysisID := UnknownValue
	if inv, ok := res.Extracted("investment_analysis"); ok {
		if id, ok := inv["analysis_id"]; ok && id != nil {
			analysisID = fmt.Sprint(id)
		}
	}

	return map[string]any{
		"ticker":                  str(res.Ticker, UnknownValue),
		"company_name":            str(res.CompanyName, UnknownValue),
		"recommendation":          str(res.Recommendation, DefaultRecommendation),
		"confidence_score":        num(res.ConfidenceScore, DefaultConfidence),
		"current_price":           num(res.CurrentPrice, 0),
		"price_change_percentage": num(res.PriceChangePercentage, 0),
		"reasoning":               str(res.Response, ""),
		"analysis_id":             analysisID,
		"timestamp":               str(res.Timestamp, a.timestamp()),
	}, nil
}

// GetMarketData returns market data for ticker. The backend's extracted
// market data is passed through when present.
func (a *Actions) GetMarketData(ctx context.Context, ticker string, includeHistorical bool) (map[string]any, error) {
	query := fmt.Sprintf("Get market data for %s", ticker)
	if includeHistorical {
		query += " including 6-month historical data"
	}
	res, err := a.analyze(ctx, query, fmt.Sprintf("failed to retrieve market data for %s", ticker))
	if err != nil {
		return nil, err
	}

	if md, ok := res.Extracted("market_data"); ok {
		return md, nil
	}
	return map[string]any{
		"ticker":                  ticker,
		"current_price":           num(res.CurrentPrice, 0),
		"price_change_percentage": num(res.PriceChangePercentage, 0),
		"timestamp":               a.timestamp(),
	}, nil
}

// ResolveCompanyName maps a company name to its ticker.
func (a *Actions) ResolveCompanyName(ctx context.Context, name string) (map[string]any, error) {
	res, err := a.analyze(ctx, fmt.Sprintf("What is the ticker symbol for %s?", name), fmt.Sprintf("failed to resolve company name: %s", name))
	if err != nil {
		return nil, err
	}

	if cr, ok := res.Extracted("company_resolution"); ok {
		return map[string]any{
			"input_name":            name,
			"ticker":                anyOr(cr["ticker"], UnknownValue),
			"resolved_company_name": anyOr(cr["company_name"], name),
			"confidence":            anyOr(cr["confidence"], 1.0),
		}, nil
	}

	ticker := str(res.Ticker, UnknownValue)
	confidence := 0.0
	if ticker != UnknownValue {
		confidence = 0.8
	}
	return map[string]any{
		"input_name":            name,
		"ticker":                ticker,
		"resolved_company_name": str(res.CompanyName, name),
		"confidence":            confidence,
	}, nil
}

// Query answers a free-text question verbatim.
func (a *Actions) Query(ctx context.Context, query string) (map[string]any, error) {
	res, err := a.analyze(ctx, query, "query processing failed")
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"response":         str(res.Response, ""),
		"ticker":           str(res.Ticker, UnknownValue),
		"recommendation":   str(res.Recommendation, DefaultRecommendation),
		"confidence_score": num(res.ConfidenceScore, DefaultConfidence),
		"timestamp":        str(res.Timestamp, a.timestamp()),
	}, nil
}

// analyze calls the backend. Every failure comes back as a *analysis.Failure
// whose message is the backend's own or fallback.
func (a *Actions) analyze(ctx context.Context, query, fallback string) (*analysis.Analysis, error) {
	res, err := a.analyzer.Analyze(ctx, query)
	if err == nil && res == nil {
		err = &analysis.Failure{}
	}
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - analysis failed for %q: %v", logPrefix, query, err))
		return nil, &analysis.Failure{Message: analysis.FailureMessage(err, fallback)}
	}
	return res, nil
}

func (a *Actions) timestamp() string {
	return a2a.FormatTimestamp(a.now())
}

func str(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func num(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func anyOr(v any, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
