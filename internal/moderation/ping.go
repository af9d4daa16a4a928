package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PingCommand is the exact message text that triggers the self-test.
const PingCommand = "/aufseher ping"

const (
	pongText  = "pong!"
	pingDelay = time.Second
)

// Pinger answers the diagnostic command and cleans up after itself.
type Pinger struct {
	transport Transport
	timeout   time.Duration
	delay     time.Duration
}

// NewPinger creates a Pinger. Each transport call is bounded by timeout.
func NewPinger(transport Transport, timeout time.Duration) *Pinger {
	return &Pinger{transport: transport, timeout: timeout, delay: pingDelay}
}

// Ping replies to the command, waits, then deletes the command and the reply.
// Both deletions are attempted even if the first fails.
func (p *Pinger) Ping(ctx context.Context, chatID int64, messageID int) error {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	replyID, err := p.transport.Reply(callCtx, chatID, messageID, pongText)
	cancel()
	if err != nil {
		return fmt.Errorf("send pong: %w", err)
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	var errs []error
	for _, id := range []int{messageID, replyID} {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		if err := p.transport.DeleteMessage(callCtx, chatID, id); err != nil {
			errs = append(errs, fmt.Errorf("delete message %d: %w", id, err))
		}
		cancel()
	}
	return errors.Join(errs...)
}
