package dto

import "time"

// PricePoint is one normalized OHLC point from any price provider. Close is a
// pointer because provider payloads can omit it; points without a close are
// dropped before upsert.
type PricePoint struct {
	Timestamp time.Time
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	Volume    *int64
}

// YahooChartResponse is the Yahoo Finance v8 chart response. Timestamps and
// quote fields are parallel arrays; entries may be null.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}
