package dto

import "github.com/rirts/attribution-os/internal/domain"

// IngestEventRequest is the tracker payload accepted by the ingest API.
// Only type and url are mandatory; ts and event_id are filled in by the
// service when absent.
type IngestEventRequest struct {
	EventID    string                 `json:"event_id"`
	TS         string                 `json:"ts"`
	Type       string                 `json:"type" binding:"required" example:"pageview"`
	URL        string                 `json:"url" binding:"required" example:"https://shop.example.com/p/42?utm_source=google"`
	Referrer   string                 `json:"referrer"`
	UTM        domain.UTM             `json:"utm"`
	Client     domain.ClientInfo      `json:"client"`
	IDs        domain.Identifiers     `json:"ids"`
	Device     domain.DeviceInfo      `json:"device"`
	Properties map[string]interface{} `json:"properties"`
}

// IngestEventsBulkRequest carries multiple events in one call.
type IngestEventsBulkRequest struct {
	Events []IngestEventRequest `json:"events" binding:"required,min=1,max=1000,dive"`
}
