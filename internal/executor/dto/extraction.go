package dto

// CallCandidate is one directional statement proposed by the completion model
// before validation and confidence gating.
type CallCandidate struct {
	Asset      string  `json:"asset"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Quote      string  `json:"quote"`
	Reasoning  string  `json:"reasoning"`
}

// ExtractionResponse is the JSON object the completion model is asked to
// return.
type ExtractionResponse struct {
	Calls []CallCandidate `json:"calls"`
}

// ExtractionResult carries the model's raw JSON output plus usage telemetry.
// Parsing and validation happen at the caller so a malformed response is
// absorbed rather than treated as a transport failure.
type ExtractionResult struct {
	RawJSON     string
	TotalTokens int
}

// StreamDataCallExtraction is the payload on the call-extraction stream.
type StreamDataCallExtraction struct {
	ContentID uint `json:"content_id"`
}

// StreamDataAccountSync is the payload on the account-sync stream.
type StreamDataAccountSync struct {
	AccountType string `json:"account_type"`
	AccountID   uint   `json:"account_id"`
}

// StreamDataPriceFetch is the payload on the price-fetch stream.
type StreamDataPriceFetch struct {
	AssetID uint `json:"asset_id"`
	Days    int  `json:"days"`
}
