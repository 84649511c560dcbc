package a2a

// Capability ids served by the stock agent.
const (
	CapabilityAnalyzeStock       = "nasdaq.analyze_stock"
	CapabilityGetMarketData      = "nasdaq.get_market_data"
	CapabilityResolveCompanyName = "nasdaq.resolve_company_name"
	CapabilityQuery              = "nasdaq.query"
)

func floatPtr(f float64) *float64 { return &f }

// DefaultCapabilities returns the capability set registered at process start.
func DefaultCapabilities() []Capability {
	return []Capability{
		{
			ID:          CapabilityAnalyzeStock,
			Name:        "Analyze NASDAQ Stock",
			Description: "Perform comprehensive AI-powered analysis of a NASDAQ stock with investment recommendations",
			Type:        CapabilityTypeAnalysis,
			InputSchema: Schema{
				Type: "object",
				Properties: []Property{
					{Name: "company_name_or_ticker", Kind: KindString, Description: "Company name (e.g., 'Apple', 'Microsoft') or ticker symbol (e.g., 'AAPL', 'MSFT')"},
				},
				Required: []string{"company_name_or_ticker"},
			},
			OutputSchema: Schema{
				Type: "object",
				Properties: []Property{
					{Name: "ticker", Kind: KindString},
					{Name: "company_name", Kind: KindString},
					{Name: "recommendation", Kind: KindString, Enum: []string{"Buy", "Hold", "Sell"}},
					{Name: "confidence_score", Kind: KindNumber, Minimum: floatPtr(0), Maximum: floatPtr(100)},
					{Name: "current_price", Kind: KindNumber},
					{Name: "price_change_percentage", Kind: KindNumber},
					{Name: "reasoning", Kind: KindString},
					{Name: "analysis_id", Kind: KindString},
				},
			},
			Version: DefaultCapabilityVersion,
		},
		{
			ID:          CapabilityGetMarketData,
			Name:        "Get Market Data",
			Description: "Retrieve current and historical market data for a NASDAQ stock",
			Type:        CapabilityTypeDataRetrieval,
			InputSchema: Schema{
				Type: "object",
				Properties: []Property{
					{Name: "ticker", Kind: KindString, Description: "Stock ticker symbol (e.g., 'AAPL', 'MSFT')"},
					{Name: "include_historical", Kind: KindBoolean, Description: "Whether to include 6-month historical data", Default: true},
				},
				Required: []string{"ticker"},
			},
			OutputSchema: Schema{
				Type: "object",
				Properties: []Property{
					{Name: "ticker", Kind: KindString},
					{Name: "current_price", Kind: KindNumber},
					{Name: "volume", Kind: KindNumber},
					{Name: "daily_high", Kind: KindNumber},
					{Name: "daily_low", Kind: KindNumber},
					{Name: "historical_data", Kind: KindArray},
				},
			},
			Version: DefaultCapabilityVersion,
		},
		{
			ID:          CapabilityResolveCompanyName,
			Name:        "Resolve Company Name",
			Description: "Convert company name to NASDAQ ticker symbol with fuzzy matching",
			Type:        CapabilityTypeResolution,
			InputSchema: Schema{
				Type: "object",
				Properties: []Property{
					{Name: "company_name", Kind: KindString, Description: "Company name to resolve (e.g., 'Apple Inc.', 'Microsoft Corporation')"},
				},
				Required: []string{"company_name"},
			},
			OutputSchema: Schema{
				Type: "object",
				Properties: []Property{
					{Name: "input_name", Kind: KindString},
					{Name: "ticker", Kind: KindString},
					{Name: "resolved_company_name", Kind: KindString},
					{Name: "confidence", Kind: KindNumber, Minimum: floatPtr(0), Maximum: floatPtr(1)},
				},
			},
			Version: DefaultCapabilityVersion,
		},
		{
			ID:          CapabilityQuery,
			Name:        "Natural Language Query",
			Description: "Process natural language queries about NASDAQ stocks",
			Type:        CapabilityTypeQuery,
			InputSchema: Schema{
				Type: "object",
				Properties: []Property{
					{Name: "query", Kind: KindString, Description: "Natural language query about stocks (e.g., 'Should I buy Apple stock?')"},
				},
				Required: []string{"query"},
			},
			OutputSchema: Schema{
				Type: "object",
				Properties: []Property{
					{Name: "response", Kind: KindString},
					{Name: "ticker", Kind: KindString},
					{Name: "recommendation", Kind: KindString},
					{Name: "confidence_score", Kind: KindNumber},
				},
			},
			Version: DefaultCapabilityVersion,
		},
	}
}
