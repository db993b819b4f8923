package engine

// EventKind classifies inbound activity events.
type EventKind int

const (
	// EventFileEdit is a file save/modify under the tracked directory.
	EventFileEdit EventKind = iota
	// EventFocus is an editor/window focus gain.
	EventFocus
	// EventBlur is a focus loss. Still counts as activity; it only clears
	// the focused flag.
	EventBlur
	// EventPing is a generic "user is here" signal with no file attached.
	EventPing
)

// Event is one inbound activity signal. Producers are serialized onto the
// engine's queue; ordering within a producer is preserved.
type Event struct {
	Kind EventKind
	Path string // set for EventFileEdit
}
