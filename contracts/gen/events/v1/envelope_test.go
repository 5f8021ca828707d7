package v1

import (
	"testing"
	"time"
)

func TestDataHashTracksPayload(t *testing.T) {
	source := Source{Service: "scrape-job", PartitionKeyPath: "clip_id"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := source.New("evt-1", "clip.views_reported", "clip-1", now, map[string]any{"clip_id": "clip-1", "views": 10})
	if err != nil {
		t.Fatalf("build envelope failed: %v", err)
	}
	replay, err := source.New("evt-1", "clip.views_reported", "clip-1", now.Add(time.Minute), map[string]any{"clip_id": "clip-1", "views": 10})
	if err != nil {
		t.Fatalf("build envelope failed: %v", err)
	}
	changed, err := source.New("evt-1", "clip.views_reported", "clip-1", now, map[string]any{"clip_id": "clip-1", "views": 11})
	if err != nil {
		t.Fatalf("build envelope failed: %v", err)
	}

	if len(first.DataHash()) != 64 {
		t.Fatalf("expected hex sha256, got %q", first.DataHash())
	}
	if first.DataHash() != replay.DataHash() {
		t.Fatalf("expected equal payloads to hash alike")
	}
	if first.DataHash() == changed.DataHash() {
		t.Fatalf("expected different payloads to hash apart")
	}
}
