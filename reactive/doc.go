// Package reactive provides the minimal reactive cells the snapshot core
// understands: a mutable single-slot Ref and a derived, read-only Computed.
//
// The core only relies on the capability interfaces (Writable, Derived), so a
// host with its own reactive library can plug in its cell types instead.
package reactive
