package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-hotstate/pkg/activity"
	"github.com/goliatone/go-hotstate/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsSnapshotEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	snapshotID := uuid.New().String()

	event := activity.BuildSnapshotCapturedEvent(activity.SnapshotEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		UserID:     "editor-bot",
		Ref:        "counter/main",
		SnapshotID: snapshotID,
		Entries:    4,
		Channel:    "reload",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if want := uuid.NewSHA1(usersink.Namespace, []byte("editor-bot")); record.UserID != want {
		t.Fatalf("expected name-based user id %s, got %s", want, record.UserID)
	}
	if record.Verb != activity.VerbSnapshotCaptured || record.ObjectType != activity.ObjectTypeSnapshot || record.ObjectID != snapshotID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "reload" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["ref"] != "counter/main" || record.Data["entries"] != 4 {
		t.Fatalf("expected metadata passthrough, got %v", record.Data)
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyReturnsSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}

	err := hook.Notify(context.Background(), activity.BuildSnapshotRestoredEvent(activity.SnapshotEventInput{Ref: "counter"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestHookWithoutSinkIsNoop(t *testing.T) {
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x"}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestHookFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbSnapshotDiscarded}}

	_ = hook.Notify(context.Background(), activity.BuildSnapshotCapturedEvent(activity.SnapshotEventInput{Ref: "counter"}))
	_ = hook.Notify(context.Background(), activity.BuildSnapshotDiscardedEvent(activity.SnapshotEventInput{Ref: "counter", Reason: "closed"}))

	if len(sink.records) != 1 || sink.records[0].Verb != activity.VerbSnapshotDiscarded {
		t.Fatalf("expected only the discarded event, got %+v", sink.records)
	}
	if sink.records[0].Data["reason"] != "closed" {
		t.Fatalf("expected reason in data, got %v", sink.records[0].Data)
	}
}

func TestRecordIdentityIsStable(t *testing.T) {
	first := usersink.Record(activity.Event{ActorID: "alice", TenantID: " "})
	second := usersink.Record(activity.Event{ActorID: "alice"})
	if first.ActorID != second.ActorID || first.ActorID == uuid.Nil {
		t.Fatalf("expected stable non-nil actor id, got %s and %s", first.ActorID, second.ActorID)
	}
	if first.TenantID != uuid.Nil {
		t.Fatalf("expected blank tenant to map to uuid.Nil, got %s", first.TenantID)
	}
}
