package ticketing

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CloseStatus is the state of a deferred close action.
type CloseStatus string

const (
	// ClosePending means the grace delay has not elapsed yet.
	ClosePending CloseStatus = "pending"

	// CloseExecuted means the ticket row and channel were both removed.
	CloseExecuted CloseStatus = "executed"

	// CloseFailedOrphaned means the store was cleaned up but the channel
	// could not be deleted. Nothing retries; the channel needs a manual
	// delete.
	CloseFailedOrphaned CloseStatus = "failed-orphaned"
)

// CloseAction is one scheduled ticket close. There is no cancellation path:
// once scheduled, the close runs after the grace delay. If the process
// restarts before the delay elapses, the ticket row persists and the channel
// is never deleted; that orphan is accepted and is recoverable by closing the
// ticket again.
type CloseAction struct {
	// ID identifies the action in logs.
	ID string

	// ChannelID is the ticket channel being closed.
	ChannelID string

	mu     sync.Mutex
	status CloseStatus
}

// Status returns the current state of the action.
func (a *CloseAction) Status() CloseStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *CloseAction) setStatus(s CloseStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
}

// closer tracks deferred close actions per channel.
type closer struct {
	mu      sync.Mutex
	actions map[string]*CloseAction
}

func newCloser() *closer {
	return &closer{
		actions: make(map[string]*CloseAction),
	}
}

// schedule registers a pending action for the channel and runs fn against it
// after the delay. A close scheduled while another is pending for the same
// channel reuses the pending action.
func (c *closer) schedule(channelID string, delay time.Duration, fn func(*CloseAction)) *CloseAction {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.actions[channelID]; ok && a.Status() == ClosePending {
		return a
	}

	a := &CloseAction{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		status:    ClosePending,
	}
	c.actions[channelID] = a

	time.AfterFunc(delay, func() {
		fn(a)
	})
	return a
}

// action returns the most recent close action for the channel, if any.
func (c *closer) action(channelID string) (*CloseAction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.actions[channelID]
	return a, ok
}
