package state

import (
	"context"
	"fmt"
	"time"

	hotstate "github.com/goliatone/go-hotstate"
	"github.com/goliatone/go-hotstate/pkg/activity"
	"github.com/google/uuid"
)

// Keeper captures live module state into a Store and restores it onto the
// next version of the module.
type Keeper struct {
	Store   Store
	Emitter *activity.Emitter
	Options []hotstate.Option

	// Actor fields are copied onto every emitted event.
	ActorID  string
	TenantID string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Capture serializes live and saves it under ref with a fresh snapshot id and
// ETag. When meta.ETag is set it must match the stored ETag. meta.Extra is
// kept on the saved record.
//
// The returned Meta is valid whenever the save succeeded, even if emitting
// the activity event then failed.
func (k Keeper) Capture(ctx context.Context, ref Ref, live map[string]any, meta Meta) (Meta, error) {
	key, err := k.check(ref)
	if err != nil {
		return Meta{}, err
	}

	_, loaded, ok, err := k.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %q: %w", key, err)
	}
	if !ok {
		loaded = Meta{}
	}
	if meta.ETag != "" && loaded.ETag != "" && meta.ETag != loaded.ETag {
		return loaded, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loaded.ETag)
	}

	entries := hotstate.Serialize(live, k.Options...)

	save := mergeMeta(loaded, Meta{Extra: meta.Extra})
	save.SnapshotID = uuid.NewString()
	save.ETag = uuid.NewString()
	save.UpdatedAt = k.now()

	saved, err := k.Store.Save(ctx, ref, entries, save)
	if err != nil {
		return loaded, fmt.Errorf("state: save %q: %w", key, err)
	}

	return saved, k.emit(ctx, activity.BuildSnapshotCapturedEvent(k.input(key, saved, activity.SnapshotEventInput{
		Keys:    entries.Keys(),
		Entries: len(entries),
	})))
}

// Restore loads the snapshot for ref and revives it onto dest. ok is false
// when nothing was stored, in which case dest is left untouched.
func (k Keeper) Restore(ctx context.Context, ref Ref, dest map[string]any) (Meta, bool, error) {
	key, err := k.check(ref)
	if err != nil {
		return Meta{}, false, err
	}

	entries, meta, ok, err := k.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, false, fmt.Errorf("state: load %q: %w", key, err)
	}
	if !ok {
		return Meta{}, false, nil
	}

	trace, err := hotstate.ReviveWithTrace(dest, entries, k.Options...)
	if err != nil {
		return meta, true, fmt.Errorf("state: revive %q: %w", key, err)
	}

	return meta, true, k.emit(ctx, activity.BuildSnapshotRestoredEvent(k.input(key, meta, activity.SnapshotEventInput{
		Keys:      entries.Keys(),
		Entries:   len(entries),
		Reused:    trace.Count(hotstate.OutcomeReused),
		Allocated: trace.Count(hotstate.OutcomeAllocated),
		Deleted:   trace.Deleted,
	})))
}

// Discard deletes the snapshot for ref. reason is recorded on the event.
func (k Keeper) Discard(ctx context.Context, ref Ref, reason string) error {
	key, err := k.check(ref)
	if err != nil {
		return err
	}
	_, meta, ok, err := k.Store.Load(ctx, ref)
	if err != nil {
		return fmt.Errorf("state: load %q: %w", key, err)
	}
	if !ok {
		return nil
	}
	if _, err := k.Store.Delete(ctx, ref); err != nil {
		return fmt.Errorf("state: delete %q: %w", key, err)
	}
	return k.emit(ctx, activity.BuildSnapshotDiscardedEvent(k.input(key, meta, activity.SnapshotEventInput{
		Reason: reason,
	})))
}

func (k Keeper) check(ref Ref) (string, error) {
	if k.Store == nil {
		return "", fmt.Errorf("state: store is required")
	}
	return ref.Identifier()
}

func (k Keeper) input(key string, meta Meta, input activity.SnapshotEventInput) activity.SnapshotEventInput {
	input.ActorID = k.ActorID
	input.TenantID = k.TenantID
	input.Ref = key
	input.SnapshotID = meta.SnapshotID
	input.ETag = meta.ETag
	input.OccurredAt = k.now()
	return input
}

func (k Keeper) emit(ctx context.Context, event activity.Event) error {
	if err := k.Emitter.Emit(ctx, event); err != nil {
		return fmt.Errorf("state: emit %s: %w", event.Verb, err)
	}
	return nil
}

func (k Keeper) now() time.Time {
	if k.Now != nil {
		return k.Now()
	}
	return time.Now()
}
