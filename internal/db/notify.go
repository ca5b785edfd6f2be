package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Notifier wraps the LISTEN/NOTIFY mechanism in PostgreSQL. The server sends
// a notification whenever a turn completes so that a clinician watching the
// session (e.g. via the stream endpoint) is told to refresh, without polling.
type Notifier struct {
	DB      *sql.DB
	DSN     string
	Channel string
}

// NewNotifier constructs a Notifier. The channel should match on both the
// sending and listening side.
func NewNotifier(db *sql.DB, dsn, channel string) *Notifier {
	return &Notifier{DB: db, DSN: dsn, Channel: channel}
}

// Notify publishes the session ID on the channel.
func (n *Notifier) Notify(ctx context.Context, sessionID string) error {
	_, err := n.DB.ExecContext(ctx, "SELECT pg_notify($1, $2)", n.Channel, sessionID)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Listen yields session IDs as they are received on the channel until the
// context is cancelled. It opens a dedicated connection so notifications do
// not interfere with other queries.
func (n *Notifier) Listen(ctx context.Context) (<-chan string, error) {
	listener := pq.NewListener(n.DSN, time.Second, 30*time.Second, nil)
	if err := listener.Listen(n.Channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", n.Channel, err)
	}
	ch := make(chan string)
	go func() {
		defer func() {
			_ = listener.Close()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-listener.Notify:
				if !ok {
					return
				}
				if ev == nil {
					// reconnect event; nothing to deliver
					continue
				}
				select {
				case ch <- ev.Extra:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
