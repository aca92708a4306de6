package util

import "time"

// NotificationKind enumerates the value-change events the core reacts
// to. There is no protocol behind these, they are plain method-call
// payloads between collaborators in one process.
type NotificationKind int

const (
	// NotifSelectedZone fires when the user selects a different zone.
	NotifSelectedZone NotificationKind = iota
	// NotifRenderMode fires when a zone's render mode changed.
	NotifRenderMode
	// NotifEditMode fires when edit mode is switched on or off.
	NotifEditMode
	// NotifConfigChanged fires when the configuration file was rewritten.
	NotifConfigChanged
)

// Notification represents one value-change event.
type Notification struct {
	Kind      NotificationKind
	Zone      string
	Value     string
	Timestamp time.Time
}

// NewNotification creates a new Notification instance.
func NewNotification(kind NotificationKind, zone, value string, at time.Time) *Notification {
	inst := Notification{
		Kind:      kind,
		Zone:      zone,
		Value:     value,
		Timestamp: at,
	}
	return &inst
}
