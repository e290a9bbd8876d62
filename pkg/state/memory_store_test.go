package state_test

import (
	"context"
	"testing"

	hotstate "github.com/goliatone/go-hotstate"
	"github.com/goliatone/go-hotstate/pkg/state"
	"github.com/google/go-cmp/cmp"
)

func TestRefIdentifier(t *testing.T) {
	cases := []struct {
		ref     state.Ref
		want    string
		wantErr bool
	}{
		{ref: state.Ref{Module: "counter"}, want: "counter"},
		{ref: state.Ref{Module: " counter ", Instance: " main "}, want: "counter/main"},
		{ref: state.Ref{Instance: "main"}, wantErr: true},
		{ref: state.Ref{Module: "a/b"}, wantErr: true},
	}
	for _, tc := range cases {
		got, err := tc.ref.Identifier()
		if tc.wantErr {
			if err == nil {
				t.Fatalf("expected error for %+v", tc.ref)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("expected %q, got %q (%v)", tc.want, got, err)
		}
	}
}

func TestMemoryStoreClonesEntries(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.Ref{Module: "counter"}

	entries := hotstate.Serialize(map[string]any{"n": 1, "items": hotstate.NewArray(2)})
	want := entries.Clone()
	meta := state.Meta{SnapshotID: "snap-1", Extra: map[string]string{"k": "v"}}

	if _, err := store.Save(ctx, ref, entries, meta); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries[0].Fields["n"] = 99
	meta.Extra["k"] = "changed"

	loaded, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(want, loaded); diff != "" {
		t.Fatalf("stored entries changed (-want +got):\n%s", diff)
	}
	if loadedMeta.Extra["k"] != "v" {
		t.Fatalf("stored meta changed: %+v", loadedMeta)
	}

	loaded[0].Fields["n"] = 42
	again, _, _, _ := store.Load(ctx, ref)
	if again[0].Fields["n"] != want[0].Fields["n"] {
		t.Fatalf("loaded entries share structure with the store")
	}
}

func TestMemoryStoreMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.Ref{Module: "counter", Instance: "a"}

	if _, _, ok, err := store.Load(ctx, ref); ok || err != nil {
		t.Fatalf("expected missing record, ok=%t err=%v", ok, err)
	}
	if _, err := store.Save(ctx, ref, hotstate.Serialize(nil), state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
	if deleted, err := store.Delete(ctx, ref); !deleted || err != nil {
		t.Fatalf("expected delete, got %t %v", deleted, err)
	}
	if deleted, _ := store.Delete(ctx, ref); deleted {
		t.Fatalf("expected second delete to report nothing")
	}
	if _, _, _, err := store.Load(ctx, state.Ref{}); err == nil {
		t.Fatalf("expected identifier error")
	}
}
