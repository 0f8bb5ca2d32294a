package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// SegmentHandler serves the segment configuration and command endpoints.
type SegmentHandler struct {
	segments  map[string]*domain.Segment
	store     domain.SegmentStore
	listings  domain.ListingStore
	sellerFor func(segmentID string) domain.AgentID
	logger    *slog.Logger
}

// NewSegmentHandler creates a SegmentHandler over the live segments.
// sellerFor resolves the engine's seller identity for force-expiry.
func NewSegmentHandler(segments map[string]*domain.Segment, store domain.SegmentStore, listings domain.ListingStore, sellerFor func(segmentID string) domain.AgentID, logger *slog.Logger) *SegmentHandler {
	return &SegmentHandler{
		segments:  segments,
		store:     store,
		listings:  listings,
		sellerFor: sellerFor,
		logger:    logHandler(logger, "segment"),
	}
}

// segmentView is the API representation of one segment.
type segmentView struct {
	Config     domain.SegmentConfig `json:"config"`
	LiveCounts []int                `json:"live_counts"`
}

func viewOf(seg *domain.Segment) segmentView {
	cfg, counts := seg.Snapshot()
	return segmentView{Config: cfg, LiveCounts: counts[:]}
}

// ListSegments returns every segment's configuration and live counts.
// GET /api/segments
func (h *SegmentHandler) ListSegments(w http.ResponseWriter, r *http.Request) {
	out := make([]segmentView, 0, len(h.segments))
	for _, seg := range h.segments {
		out = append(out, viewOf(seg))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSegment returns one segment by id.
// GET /api/segments/{id}
func (h *SegmentHandler) GetSegment(w http.ResponseWriter, r *http.Request) {
	seg, ok := h.segments[pathParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "segment not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(seg))
}

// ApplyCommand applies one reconfiguration command to a live segment and
// persists the updated configuration.
// POST /api/segments/{id}/commands
func (h *SegmentHandler) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	seg, ok := h.segments[pathParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "segment not found")
		return
	}

	var cmd domain.SegmentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := seg.Apply(cmd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCommand) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "apply command failed")
		return
	}

	if err := h.store.Upsert(r.Context(), cfg); err != nil {
		h.logger.ErrorContext(r.Context(), "persist segment config failed",
			slog.String("segment", cfg.ID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "persist segment config failed")
		return
	}

	h.logger.InfoContext(r.Context(), "segment reconfigured",
		slog.String("segment", cfg.ID),
		slog.String("op", string(cmd.Op)),
	)
	writeJSON(w, http.StatusOK, viewOf(seg))
}

// ForceExpire rewrites the expiry of all engine-owned listings in a segment
// to now, handing them to the expiry sweep.
// POST /api/segments/{id}/expire
func (h *SegmentHandler) ForceExpire(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	seg, ok := h.segments[id]
	if !ok {
		writeError(w, http.StatusNotFound, "segment not found")
		return
	}

	owner := h.sellerFor(seg.ID())
	n, err := h.listings.ExpireByOwner(r.Context(), seg.ID(), owner, time.Now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "force expire failed",
			slog.String("segment", id),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "force expire failed")
		return
	}

	h.logger.InfoContext(r.Context(), "listings force expired",
		slog.String("segment", id),
		slog.Int("count", n),
	)
	writeJSON(w, http.StatusOK, map[string]any{"expired": n})
}
