package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/domain"
	"github.com/rirts/attribution-os/internal/dto"
	"github.com/rirts/attribution-os/internal/queue"
)

// IngestService validates and normalizes tracker payloads and hands them to
// the queue. All downstream processing consumes the normalized shape it
// produces.
type IngestService struct {
	publisher queue.Publisher
	log       *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(publisher queue.Publisher, log *zap.Logger) *IngestService {
	return &IngestService{
		publisher: publisher,
		log:       log,
	}
}

// ProcessEvent validates one event, fills in defaults, and publishes it.
// Returns the event id, generated when the tracker did not send one.
func (s *IngestService) ProcessEvent(req *dto.IngestEventRequest) (string, error) {
	ctx := context.Background()

	event, err := s.normalize(req)
	if err != nil {
		return "", err
	}

	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		return "", fmt.Errorf("failed to publish event to queue: %w", err)
	}

	return event.EventID, nil
}

// ProcessBulkEvents validates and processes multiple events. Individual
// failures are collected, not fatal.
func (s *IngestService) ProcessBulkEvents(events []dto.IngestEventRequest) ([]string, []string, error) {
	var eventIDs []string
	var errors []string

	for i, event := range events {
		eventID, err := s.ProcessEvent(&event)
		if err != nil {
			errors = append(errors, err.Error())
			s.log.Warn("Failed to process event in bulk",
				zap.Int("index", i),
				zap.Error(err),
				zap.String("type", event.Type))
			continue
		}
		eventIDs = append(eventIDs, eventID)
	}

	return eventIDs, errors, nil
}

// normalize applies the ingest rules: type must be a known interaction
// type, the url must be absolute, the timestamp defaults to now and is
// normalized to UTC RFC3339, the event id defaults to a fresh UUID.
func (s *IngestService) normalize(req *dto.IngestEventRequest) (*domain.RawEvent, error) {
	if domain.ParseEventType(req.Type) == domain.EventOther {
		s.log.Warn("Rejecting event with invalid type", zap.String("type", req.Type))
		return nil, fmt.Errorf("invalid type: %q", req.Type)
	}

	u, err := url.Parse(req.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		s.log.Warn("Rejecting event with invalid url", zap.String("url", req.URL))
		return nil, fmt.Errorf("invalid url: %q", req.URL)
	}

	ts := time.Now().UTC()
	if req.TS != "" {
		parsed, err := time.Parse(time.RFC3339, req.TS)
		if err != nil {
			return nil, fmt.Errorf("invalid ts: %q", req.TS)
		}
		ts = parsed.UTC()
	}

	eventID := req.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	properties := req.Properties
	if properties == nil {
		properties = map[string]interface{}{}
	}

	return &domain.RawEvent{
		EventID:    eventID,
		TS:         ts.Format(time.RFC3339),
		Type:       string(domain.ParseEventType(req.Type)),
		URL:        req.URL,
		Referrer:   req.Referrer,
		UTM:        req.UTM,
		Client:     req.Client,
		IDs:        req.IDs,
		Device:     req.Device,
		Properties: properties,
	}, nil
}
