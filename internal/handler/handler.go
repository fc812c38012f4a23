package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/dto"
	"github.com/rirts/attribution-os/internal/service"
)

type Handler struct {
	ingest service.EventIngester
	router *gin.Engine
	log    *zap.Logger
}

func NewHandler(ingest service.EventIngester, log *zap.Logger) *Handler {
	h := &Handler{
		ingest: ingest,
		router: gin.Default(),
		log:    log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/v1/events", h.ingestEvent)
	h.router.POST("/v1/events/bulk", h.ingestEventsBulk)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ingestEvent handles POST /v1/events
func (h *Handler) ingestEvent(c *gin.Context) {
	var req dto.IngestEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	eventID, err := h.ingest.ProcessEvent(&req)
	if err != nil {
		h.log.Warn("Failed to process event",
			zap.Error(err),
			zap.String("type", req.Type))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_event",
			Message: err.Error(),
		})
		return
	}

	h.log.Info("Event accepted",
		zap.String("event_id", eventID),
		zap.String("type", req.Type))

	c.JSON(http.StatusAccepted, dto.IngestEventResponse{
		EventID: eventID,
		Status:  "accepted",
	})
}

// ingestEventsBulk handles POST /v1/events/bulk
func (h *Handler) ingestEventsBulk(c *gin.Context) {
	var bulkRequest dto.IngestEventsBulkRequest

	if err := c.ShouldBindJSON(&bulkRequest); err != nil {
		h.log.Warn("Invalid bulk event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	eventIDs, errors, err := h.ingest.ProcessBulkEvents(bulkRequest.Events)
	if err != nil {
		h.log.Error("Failed to process bulk events",
			zap.Error(err),
			zap.Int("event_count", len(bulkRequest.Events)))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	h.log.Info("Bulk events processed",
		zap.Int("accepted", len(eventIDs)),
		zap.Int("rejected", len(errors)),
		zap.Int("total", len(bulkRequest.Events)))

	c.JSON(http.StatusAccepted, dto.IngestBulkEventsResponse{
		Accepted: len(eventIDs),
		Rejected: len(errors),
		EventIDs: eventIDs,
		Errors:   errors,
	})
}
