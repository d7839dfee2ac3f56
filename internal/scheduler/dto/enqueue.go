package dto

// EnqueueExtractionRequest triggers an extraction task for one content row.
type EnqueueExtractionRequest struct {
	ContentID uint `json:"content_id"`
}

// EnqueueAccountSyncRequest triggers a sync task for one tracked account.
type EnqueueAccountSyncRequest struct {
	AccountType string `json:"account_type"`
	AccountID   uint   `json:"account_id"`
}

// EnqueuePriceFetchRequest triggers a price fetch task for one asset.
type EnqueuePriceFetchRequest struct {
	AssetID uint `json:"asset_id"`
	Days    int  `json:"days"`
}

// EnqueueResponse reports the published stream message.
type EnqueueResponse struct {
	Stream    string `json:"stream"`
	MessageID string `json:"message_id"`
}
