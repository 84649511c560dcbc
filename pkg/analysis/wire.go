package analysis

import (
	"encoding/json"
	"fmt"
)

const wireLogPrefix = "analysis:wire"

// Request is the body sent to the backend.
type Request struct {
	Query string `json:"query"`
}

type resultWire struct {
	Success               *bool          `json:"success"`
	Ticker                *string        `json:"ticker"`
	CompanyName           *string        `json:"company_name"`
	Recommendation        *string        `json:"recommendation"`
	ConfidenceScore       *float64       `json:"confidence_score"`
	CurrentPrice          *float64       `json:"current_price"`
	PriceChangePercentage *float64       `json:"price_change_percentage"`
	Response              *string        `json:"response"`
	ExtractedData         map[string]any `json:"extracted_data"`
	Error                 *string        `json:"error"`
	Timestamp             *string        `json:"timestamp"`
}

// DecodeResult reads a backend reply. A reply without success:true is a *Failure.
func DecodeResult(data []byte) (*Analysis, error) {
	var w resultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%s - failed to decode analysis result: %w", wireLogPrefix, err)
	}
	if w.Success == nil || !*w.Success {
		f := &Failure{}
		if w.Error != nil {
			f.Message = *w.Error
		}
		return nil, f
	}
	return &Analysis{
		Ticker:                w.Ticker,
		CompanyName:           w.CompanyName,
		Recommendation:        w.Recommendation,
		ConfidenceScore:       w.ConfidenceScore,
		CurrentPrice:          w.CurrentPrice,
		PriceChangePercentage: w.PriceChangePercentage,
		Response:              w.Response,
		ExtractedData:         w.ExtractedData,
		Timestamp:             w.Timestamp,
	}, nil
}

// EncodeResult writes a as a successful backend reply. Used by test doubles
// and by in-process backends answering over COMMS.
func EncodeResult(a *Analysis) ([]byte, error) {
	ok := true
	return json.Marshal(resultWire{
		Success:               &ok,
		Ticker:                a.Ticker,
		CompanyName:           a.CompanyName,
		Recommendation:        a.Recommendation,
		ConfidenceScore:       a.ConfidenceScore,
		CurrentPrice:          a.CurrentPrice,
		PriceChangePercentage: a.PriceChangePercentage,
		Response:              a.Response,
		ExtractedData:         a.ExtractedData,
		Timestamp:             a.Timestamp,
	})
}

// EncodeFailure writes a failed backend reply carrying msg.
func EncodeFailure(msg string) ([]byte, error) {
	ok := false
	var errPtr *string
	if msg != "" {
		errPtr = &msg
	}
	return json.Marshal(resultWire{Success: &ok, Error: errPtr})
}
