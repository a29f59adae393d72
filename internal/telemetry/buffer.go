package telemetry

import "log"

// queuedPublish is one publish held back while the broker is unreachable.
type queuedPublish struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog holds publishes made while disconnected so the connect handler
// can replay them in order. When full it discards the oldest entry: a
// reconnecting bench always wants the most recent events. Callers
// synchronize; the type itself takes no locks.
type backlog struct {
	entries []queuedPublish
	limit   int
	dropped bool
}

func newBacklog(limit int) *backlog {
	return &backlog{limit: limit}
}

func (b *backlog) add(q queuedPublish) {
	if len(b.entries) == b.limit {
		if !b.dropped {
			log.Printf("telemetry: backlog full at %d publishes, discarding oldest", b.limit)
			b.dropped = true
		}
		copy(b.entries, b.entries[1:])
		b.entries[len(b.entries)-1] = q
		return
	}
	b.entries = append(b.entries, q)
}

// takeAll removes and returns the queued publishes, oldest first.
func (b *backlog) takeAll() []queuedPublish {
	if len(b.entries) == 0 {
		return nil
	}
	out := b.entries
	b.entries = nil
	b.dropped = false
	return out
}

func (b *backlog) size() int {
	return len(b.entries)
}
