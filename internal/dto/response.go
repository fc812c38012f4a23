package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"invalid url"`
}

// IngestEventResponse represents a successful event ingestion response
type IngestEventResponse struct {
	EventID string `json:"event_id" example:"8f14e45f-ceea-467f-a1d1-91ab6f13ab2c"`
	Status  string `json:"status" example:"accepted"`
}

// IngestBulkEventsResponse represents a successful bulk ingestion response
type IngestBulkEventsResponse struct {
	Accepted int      `json:"accepted" example:"5"`
	Rejected int      `json:"rejected" example:"0"`
	EventIDs []string `json:"event_ids,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}
