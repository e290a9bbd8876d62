package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	hotstate "github.com/goliatone/go-hotstate"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies the snapshot slot of one module instance.
type Ref struct {
	Module   string
	Instance string
}

// Identifier returns the canonical storage key: "module" or
// "module/instance".
func (r Ref) Identifier() (string, error) {
	module := strings.TrimSpace(r.Module)
	if module == "" {
		return "", fmt.Errorf("state: module is required")
	}
	if strings.Contains(module, "/") {
		return "", fmt.Errorf("state: module %q must not contain '/'", module)
	}
	instance := strings.TrimSpace(r.Instance)
	if instance == "" {
		return module, nil
	}
	return module + "/" + instance, nil
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one snapshot per Ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (entries hotstate.Entries, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, entries hotstate.Entries, meta Meta) (Meta, error)
	Delete(ctx context.Context, ref Ref) (bool, error)
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
