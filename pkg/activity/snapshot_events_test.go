package activity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildSnapshotCapturedEventMetadata(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	input := SnapshotEventInput{
		ActorID:    " actor ",
		Ref:        " counter/main ",
		SnapshotID: "snap-1",
		ETag:       "etag-1",
		Keys:       []string{"items", "count"},
		Entries:    7,
		Metadata:   meta,
		Channel:    "reload",
	}

	event := BuildSnapshotCapturedEvent(input)

	if event.Verb != VerbSnapshotCaptured || event.ObjectType != ObjectTypeSnapshot || event.ObjectID != "snap-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.ActorID != "actor" || event.Channel != "reload" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	want := map[string]any{
		"custom":      "value",
		"ref":         "counter/main",
		"snapshot_id": "snap-1",
		"etag":        "etag-1",
		"keys":        []string{"count", "items"},
		"entries":     7,
	}
	if diff := cmp.Diff(want, event.Metadata); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
	if len(meta) != 1 || input.Keys[0] != "items" {
		t.Fatalf("expected input untouched")
	}
}

func TestBuildSnapshotRestoredEventCounters(t *testing.T) {
	event := BuildSnapshotRestoredEvent(SnapshotEventInput{
		Ref:       "counter",
		Reused:    3,
		Allocated: 1,
		Deleted:   []string{"stale", "old"},
	})

	if event.Verb != VerbSnapshotRestored || event.ObjectID != "counter" {
		t.Fatalf("expected ref to be the object id, got %+v", event)
	}
	if event.Metadata["reused"] != 3 || event.Metadata["allocated"] != 1 {
		t.Fatalf("unexpected counters: %+v", event.Metadata)
	}
	if diff := cmp.Diff([]string{"old", "stale"}, event.Metadata["deleted"]); diff != "" {
		t.Fatalf("deleted mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSnapshotDiscardedEventFallbacks(t *testing.T) {
	event := BuildSnapshotDiscardedEvent(SnapshotEventInput{Reason: " setup failed "})

	if event.ObjectID != ObjectTypeSnapshot {
		t.Fatalf("expected fallback object id, got %q", event.ObjectID)
	}
	if diff := cmp.Diff(map[string]any{"reason": "setup failed"}, event.Metadata); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
}
