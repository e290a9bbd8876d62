package activity

import (
	"sort"
	"strings"
	"time"
)

// Verbs and object type used for snapshot lifecycle events.
const (
	VerbSnapshotCaptured  = "snapshot.captured"
	VerbSnapshotRestored  = "snapshot.restored"
	VerbSnapshotDiscarded = "snapshot.discarded"

	ObjectTypeSnapshot = "hotstate.snapshot"
)

// SnapshotEventInput carries the fields shared by snapshot events. Counters
// left at zero and empty lists are omitted from the metadata.
type SnapshotEventInput struct {
	ActorID  string
	UserID   string
	TenantID string
	Channel  string

	// Ref is the identifier of the module instance the snapshot belongs to.
	Ref        string
	SnapshotID string
	ETag       string

	Keys      []string
	Entries   int
	Reused    int
	Allocated int
	Deleted   []string
	Reason    string

	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildSnapshotCapturedEvent describes a live state being serialized and saved.
func BuildSnapshotCapturedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbSnapshotCaptured, input)
}

// BuildSnapshotRestoredEvent describes a saved snapshot revived onto a new
// module instance.
func BuildSnapshotRestoredEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbSnapshotRestored, input)
}

// BuildSnapshotDiscardedEvent describes a snapshot that was dropped, for
// example because a reload failed before it could be restored.
func BuildSnapshotDiscardedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbSnapshotDiscarded, input)
}

func buildSnapshotEvent(verb string, input SnapshotEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}

	ref := strings.TrimSpace(input.Ref)
	if ref != "" {
		set("ref", ref)
	}
	if id := strings.TrimSpace(input.SnapshotID); id != "" {
		set("snapshot_id", id)
	}
	if etag := strings.TrimSpace(input.ETag); etag != "" {
		set("etag", etag)
	}
	if len(input.Keys) > 0 {
		set("keys", sortedCopy(input.Keys))
	}
	if input.Entries > 0 {
		set("entries", input.Entries)
	}
	if input.Reused > 0 {
		set("reused", input.Reused)
	}
	if input.Allocated > 0 {
		set("allocated", input.Allocated)
	}
	if len(input.Deleted) > 0 {
		set("deleted", sortedCopy(input.Deleted))
	}
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		set("reason", reason)
	}

	objectID := strings.TrimSpace(input.SnapshotID)
	if objectID == "" {
		objectID = ref
	}
	if objectID == "" {
		objectID = ObjectTypeSnapshot
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeSnapshot,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
