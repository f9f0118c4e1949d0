package models

const (
	IngestStatusSuccess = "success"
	IngestStatusError   = "error"
)

// IngestSummary is the result of one ingestion pass.
type IngestSummary struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	New          int    `json:"new"`
	Updated      int    `json:"updated"`
	Skipped      int    `json:"skipped"`
	TotalFetched int    `json:"total_fetched"`
}
