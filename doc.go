// Package hotstate carries live program state across a reload.
//
// Serialize flattens a graph of plain values, arrays (*[]any), objects
// (map[string]any) and reactive cells into Entries: one entry per distinct
// reference plus every structural path by which it was reached. Revive replays
// those entries onto a freshly built graph in place, reusing the cells,
// arrays and objects the new graph already holds at a recorded path so that
// anything subscribed to them stays connected.
//
// Callables and derived cells are never captured. Revive recovers whatever the
// new graph already holds for them, since they rebuild themselves from the
// revived cells they depend on.
//
// Both calls are synchronous and must not race with other writers of the
// graphs involved.
package hotstate
