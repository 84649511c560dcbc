package actions

import "fmt"

// Parameter names read by the domain operations.
const (
	ParamCompanyNameOrTicker = "company_name_or_ticker"
	ParamTicker              = "ticker"
	ParamIncludeHistorical   = "include_historical"
	ParamCompanyName         = "company_name"
	ParamQuery               = "query"
)

// StringParam returns params[name] as text. Missing and null values are "".
func StringParam(params map[string]any, name string) string {
	v, ok := params[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IncludeHistorical reads include_historical, defaulting to true when absent.
func IncludeHistorical(params map[string]any) bool {
	v, ok := params[ParamIncludeHistorical]
	if !ok {
		return true
	}
	return truthy(v)
}

// truthy treats nil, false, zero numbers and empty strings or collections as false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}
