package chunky

import "github.com/olebedev/emitter"

// Event topics emitted on a Server's Events() bus (C10). These are a
// pure side channel: the core engine never reads back from them, and a
// Server with no listeners registered pays only the cost of an Emit
// call with no subscribers.
const (
	EventConnAccepted  = "conn.accepted"
	EventConnClosed    = "conn.closed"
	EventRequestServed = "request.served"
	EventRequestFailed = "request.failed"
)

// Events is a small pub/sub bus for connection and request lifecycle
// notifications, for embedders who want to bridge the dispatcher into
// their own telemetry without parsing log lines.
type Events struct {
	e *emitter.Emitter
}

// NewEvents returns a ready-to-use Events bus. The zero capacity means
// Emit never blocks waiting for a slow listener to drain its channel.
func NewEvents() *Events {
	return &Events{e: emitter.New(0)}
}

// On subscribes to topic, returning a channel of events. The channel
// is never closed by the bus itself; callers that want to stop
// listening should call Off.
func (ev *Events) On(topic string) <-chan emitter.Event {
	return ev.e.On(topic)
}

// Off unsubscribes previously-returned channels from topic.
func (ev *Events) Off(topic string, channels ...<-chan emitter.Event) {
	ev.e.Off(topic, channels...)
}

// emit fires topic with args, without blocking the caller on any
// listener's processing (emitter.Emit returns a channel the caller may
// wait on; we intentionally don't).
func (ev *Events) emit(topic string, args ...interface{}) {
	if ev == nil || ev.e == nil {
		return
	}
	ev.e.Emit(topic, args...)
}
