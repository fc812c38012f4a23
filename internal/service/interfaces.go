package service

import (
	"github.com/rirts/attribution-os/internal/dto"
)

// EventIngester defines the interface for ingest service operations
type EventIngester interface {
	ProcessEvent(event *dto.IngestEventRequest) (string, error)
	ProcessBulkEvents(events []dto.IngestEventRequest) ([]string, []string, error)
}
