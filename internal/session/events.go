package session

import (
	log "github.com/sirupsen/logrus"
)

// EventKind identifies a notification emitted toward the UI layer.
type EventKind string

// Event kinds emitted by the session and the communication orchestrator.
const (
	// EventOpenAuthURL asks the application to open the authorization URL in
	// a browser. Payload carries the URL.
	EventOpenAuthURL EventKind = "open-authorization-url"

	// EventLoginSucceeded reports a completed code exchange or a successful
	// silent refresh. Payload carries the account username when known.
	EventLoginSucceeded EventKind = "login-succeeded"

	// EventLoginFailed reports a failed login initiation, code exchange or
	// refresh. Payload carries a short reason.
	EventLoginFailed EventKind = "login-failed"

	// EventLoggedOut reports that session state has been cleared.
	EventLoggedOut EventKind = "logged-out"

	// EventConnectStatus carries the cloud service status document.
	EventConnectStatus EventKind = "connect-status"

	// EventConnectPrinterModels carries the cloud printer-models document.
	EventConnectPrinterModels EventKind = "connect-printer-models"

	// EventPrinterData carries printer detail for one UUID. Payload is the
	// UUID.
	EventPrinterData EventKind = "printer-data"

	// EventAvatarReady carries the downloaded avatar image. Payload is the
	// source URL.
	EventAvatarReady EventKind = "avatar-ready"

	// EventActionFailed reports a failed queue action. Payload names the
	// action.
	EventActionFailed EventKind = "action-failed"
)

// Event is a notification to the foreground/UI layer. It carries only the
// data needed for the UI reaction, never internal session state.
type Event struct {
	Kind    EventKind
	Payload string
	Data    []byte
}

// EventSink receives events. Implementations must not block; the session
// worker emits events while holding the session lock.
type EventSink interface {
	Emit(Event)
}

// ChannelSink delivers events into a buffered channel, dropping (with a log
// record) when the consumer falls behind. It is the library's stand-in for a
// UI toolkit event queue.
type ChannelSink struct {
	C chan Event
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSink{C: make(chan Event, buffer)}
}

// Emit delivers ev without blocking.
func (s *ChannelSink) Emit(ev Event) {
	select {
	case s.C <- ev:
	default:
		log.Warnf("session: event %s dropped, sink full", ev.Kind)
	}
}

// discardSink swallows events; used when no sink is configured.
type discardSink struct{}

func (discardSink) Emit(Event) {}
