package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Publisher accepts store changes. Broker implements it.
type Publisher interface {
	Publish(c Change)
	// Resync is called after every successful LISTEN, since notifications
	// sent while disconnected are gone.
	Resync()
}

// notificationConn is the part of *pgx.Conn the listener uses.
type notificationConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// PGListener turns Postgres NOTIFY payloads on a channel into Changes. The
// applications trigger sends {"op","id","applicant_id","organization_id"}.
type PGListener struct {
	connString string
	channel    string
	publisher  Publisher
	logger     *slog.Logger
	dial       func(ctx context.Context) (notificationConn, error)

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewPGListener(connString, channel string, publisher Publisher, logger *slog.Logger) *PGListener {
	if logger == nil {
		logger = slog.Default()
	}
	l := &PGListener{
		connString: connString,
		channel:    channel,
		publisher:  publisher,
		logger:     logger,
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	l.dial = func(ctx context.Context) (notificationConn, error) {
		return pgx.Connect(ctx, l.connString)
	}
	return l
}

// Run listens until ctx is cancelled, reconnecting with exponential backoff
// when the connection drops. The backoff starts over once a connection gets
// as far as LISTEN.
func (l *PGListener) Run(ctx context.Context) error {
	backoff := l.minBackoff
	for {
		listening, err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if listening {
			backoff = l.minBackoff
		}
		l.logger.Warn("change listener disconnected", "channel", l.channel, "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > l.maxBackoff {
			backoff = l.maxBackoff
		}
	}
}

// listen reports whether LISTEN succeeded before the connection failed.
func (l *PGListener) listen(ctx context.Context) (bool, error) {
	conn, err := l.dial(ctx)
	if err != nil {
		return false, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return false, fmt.Errorf("listening on %s: %w", l.channel, err)
	}
	l.logger.Info("change listener started", "channel", l.channel)
	l.publisher.Resync()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		change, err := ParseChange(n.Payload)
		if err != nil {
			l.logger.Warn("ignoring malformed change notification", "payload", n.Payload, "error", err)
			continue
		}
		l.publisher.Publish(change)
	}
}

// ParseChange decodes a trigger payload.
func ParseChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, err
	}
	switch c.Op {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return Change{}, fmt.Errorf("unknown op %q", c.Op)
	}
	return c, nil
}
