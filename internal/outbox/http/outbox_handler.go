// Package http provides the outbox admin API: queue health and event
// inspection. The surface is read-only; the outbox is mutated only by the
// business layer and the dispatcher.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/httputil"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
	"github.com/allisson/kbsync/internal/outbox/http/dto"
	outboxUseCase "github.com/allisson/kbsync/internal/outbox/usecase"
	customValidation "github.com/allisson/kbsync/internal/validation"
)

// OutboxHandler handles HTTP requests for outbox observability.
type OutboxHandler struct {
	statsUseCase outboxUseCase.StatsUseCase
	logger       *slog.Logger
}

// NewOutboxHandler creates a new outbox handler.
func NewOutboxHandler(statsUseCase outboxUseCase.StatsUseCase, logger *slog.Logger) *OutboxHandler {
	return &OutboxHandler{
		statsUseCase: statsUseCase,
		logger:       logger,
	}
}

// StatsHandler returns the outbox health snapshot.
// GET /v1/outbox/stats
func (h *OutboxHandler) StatsHandler(c *gin.Context) {
	stats, err := h.statsUseCase.Stats(c.Request.Context(), time.Now().UTC())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatsToResponse(stats))
}

// ListEventsHandler returns outbox events, newest first.
// GET /v1/outbox/events?state=dead&aggregate_id=...&offset=0&limit=50
func (h *OutboxHandler) ListEventsHandler(c *gin.Context) {
	var req dto.ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := outboxDomain.EventFilter{State: req.State}
	if req.AggregateID != "" {
		filter.AggregateID = uuid.MustParse(req.AggregateID)
	}

	events, err := h.statsUseCase.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToListResponse(events))
}
