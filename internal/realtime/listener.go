package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Listener bridges Postgres NOTIFY payloads onto the bus so that changes
// written by other instances still reach this instance's subscribers.
// Payloads are JSON-encoded Change values raised via pg_notify.
type Listener struct {
	pl  *pq.Listener
	bus *Bus
}

// NewListener connects a pq listener to the given NOTIFY channel
func NewListener(databaseURL, channel string, bus *Bus) (*Listener, error) {
	pl := pq.NewListener(databaseURL, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				slog.Warn("realtime listener event", "event", ev, "error", err)
			}
		})

	if err := pl.Listen(channel); err != nil {
		pl.Close()
		return nil, err
	}

	return &Listener{pl: pl, bus: bus}, nil
}

// Run pumps notifications onto the bus until the context is cancelled
func (l *Listener) Run(ctx context.Context) error {
	defer l.pl.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-l.pl.Notify:
			if n == nil {
				// connection reset; pq re-establishes LISTEN itself
				continue
			}
			var c Change
			if err := json.Unmarshal([]byte(n.Extra), &c); err != nil {
				slog.Warn("realtime listener: bad payload", "error", err)
				continue
			}
			l.bus.Publish(c)
		case <-time.After(90 * time.Second):
			if err := l.pl.Ping(); err != nil {
				slog.Warn("realtime listener ping failed", "error", err)
			}
		}
	}
}
