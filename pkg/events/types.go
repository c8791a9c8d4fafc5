// Package events defines handler change events and their publishers.
package events

import (
	"time"

	"github.com/morezero/intents/pkg/intent"
)

// Change kinds.
const (
	ChangeInstalled   = "installed"
	ChangeUninstalled = "uninstalled"
	ChangeReloaded    = "reloaded"
)

// HandlerChangedEvent is emitted when the set of installed handlers changes.
// Probe answers computed before the event may be stale afterwards.
type HandlerChangedEvent struct {
	// Package is empty for catalog-wide changes (ChangeReloaded).
	Package   string        `json:"package,omitempty"`
	Change    string        `json:"change"`
	Verbs     []intent.Verb `json:"verbs,omitempty"`
	Catalog   string        `json:"catalog,omitempty"`
	Timestamp string        `json:"timestamp"`
}

// NewHandlerChangedEvent stamps an event with the current UTC time.
func NewHandlerChangedEvent(pkg, change string, verbs []intent.Verb) *HandlerChangedEvent {
	return &HandlerChangedEvent{
		Package:   pkg,
		Change:    change,
		Verbs:     verbs,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
