// Package activity fans snapshot lifecycle events out to hooks. The state
// keeper emits captured, restored and discarded events; sinks in the
// subpackages forward them to go-users or zap.
package activity
