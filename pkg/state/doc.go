// Package state keeps hotstate snapshots across module reloads.
//
// A Store only loads, saves and deletes the snapshot of a single Ref. The
// Keeper sits on top of a Store: Capture serializes a live state and saves it
// under a fresh snapshot id, Restore loads the snapshot and revives it onto
// the state of the replacement module, Discard drops it. Each step is
// reported to an activity.Emitter.
//
// Data flow:
//
//	live state -> hotstate.Serialize -> Store.Save
//	Store.Load -> hotstate.ReviveWithTrace -> new state
//
// Concurrency control:
//
//	Meta.ETag changes on every save. Passing the last seen ETag to Capture
//	makes the save fail with ErrETagMismatch when another writer got there
//	first.
package state
