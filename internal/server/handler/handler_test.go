package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeListingStore backs the handlers with canned listings. Only the read
// paths and force-expiry are exercised over HTTP.
type fakeListingStore struct {
	listings map[string]domain.Listing
	expired  int
	failing  bool
}

func newFakeListingStore(ls ...domain.Listing) *fakeListingStore {
	s := &fakeListingStore{listings: make(map[string]domain.Listing)}
	for _, l := range ls {
		s.listings[l.ID] = l
	}
	return s
}

func (s *fakeListingStore) Get(_ context.Context, id string) (domain.Listing, error) {
	if s.failing {
		return domain.Listing{}, fmt.Errorf("store down")
	}
	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (s *fakeListingStore) ListBySegment(_ context.Context, segmentID string) ([]domain.Listing, error) {
	if s.failing {
		return nil, fmt.Errorf("store down")
	}
	var out []domain.Listing
	for _, l := range s.listings {
		if l.SegmentID == segmentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeListingStore) ListByOwner(context.Context, string, domain.AgentID) ([]domain.Listing, error) {
	return nil, nil
}

func (s *fakeListingStore) ListCandidates(context.Context, string, domain.AgentID) ([]domain.Listing, error) {
	return nil, nil
}

func (s *fakeListingStore) CountBySegment(_ context.Context, segmentID string) (int, error) {
	n := 0
	for _, l := range s.listings {
		if l.SegmentID == segmentID {
			n++
		}
	}
	return n, nil
}

func (s *fakeListingStore) ExpireByOwner(_ context.Context, segmentID string, owner domain.AgentID, _ time.Time) (int, error) {
	if s.failing {
		return 0, fmt.Errorf("store down")
	}
	n := 0
	for _, l := range s.listings {
		if l.SegmentID == segmentID && l.Seller == owner {
			n++
		}
	}
	s.expired += n
	return n, nil
}

func (s *fakeListingStore) Begin(context.Context) (domain.ListingTx, error) {
	return nil, fmt.Errorf("not supported")
}

// fakeSegmentStore records configuration upserts.
type fakeSegmentStore struct {
	upserts []domain.SegmentConfig
	failing bool
}

func (s *fakeSegmentStore) List(context.Context) ([]domain.SegmentConfig, error) {
	return nil, nil
}

func (s *fakeSegmentStore) Upsert(_ context.Context, cfg domain.SegmentConfig) error {
	if s.failing {
		return fmt.Errorf("store down")
	}
	s.upserts = append(s.upserts, cfg)
	return nil
}
