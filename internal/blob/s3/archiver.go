package s3blob

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// CycleArchiver persists completed cycle summaries to object storage, one
// JSON object per cycle under reports/{segment}/{timestamp}.json. It is an
// optional observer off the hot path; upload failures are the caller's to
// log, not to retry.
type CycleArchiver struct {
	writer domain.BlobWriter
}

// NewCycleArchiver creates a CycleArchiver writing through the given blob
// writer.
func NewCycleArchiver(writer domain.BlobWriter) *CycleArchiver {
	return &CycleArchiver{writer: writer}
}

// ArchiveCycle serializes a cycle summary and uploads it.
func (a *CycleArchiver) ArchiveCycle(ctx context.Context, sum domain.CycleSummary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("s3blob: marshal cycle summary: %w", err)
	}
	path := fmt.Sprintf("reports/%s/%s.json", sum.SegmentID, sum.StartedAt.UTC().Format("20060102T150405Z"))
	if err := a.writer.Put(ctx, path, data, "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive cycle: %w", err)
	}
	return nil
}
