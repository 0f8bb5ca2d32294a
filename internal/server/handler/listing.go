package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// ListingHandler serves read access to active listings.
type ListingHandler struct {
	listings domain.ListingStore
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler backed by the given store.
func NewListingHandler(listings domain.ListingStore, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		logger:   logHandler(logger, "listing"),
	}
}

// listingView is the API representation of one listing.
type listingView struct {
	ID         string `json:"id"`
	SegmentID  string `json:"segment_id"`
	TemplateID string `json:"template_id"`
	Count      int    `json:"count"`
	Seller     string `json:"seller"`
	StartBid   int64  `json:"start_bid"`
	Buyout     int64  `json:"buyout"`
	Bid        int64  `json:"bid"`
	Bidder     string `json:"bidder"`
	CreatedAt  string `json:"created_at"`
	ExpiresAt  string `json:"expires_at"`
}

func listingViewOf(l domain.Listing) listingView {
	return listingView{
		ID:         l.ID,
		SegmentID:  l.SegmentID,
		TemplateID: l.TemplateID,
		Count:      l.Count,
		Seller:     string(l.Seller),
		StartBid:   l.StartBid,
		Buyout:     l.Buyout,
		Bid:        l.Bid,
		Bidder:     string(l.Bidder),
		CreatedAt:  l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		ExpiresAt:  l.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ListBySegment returns all listings of a segment.
// GET /api/segments/{id}/listings
func (h *ListingHandler) ListBySegment(w http.ResponseWriter, r *http.Request) {
	ls, err := h.listings.ListBySegment(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list listings failed",
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "list listings failed")
		return
	}

	out := make([]listingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, listingViewOf(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetListing returns one listing by id.
// GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "listing not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get listing failed")
		return
	}
	writeJSON(w, http.StatusOK, listingViewOf(l))
}
