package ticketing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthorized is returned when the actor lacks the governing role or
	// an override identity for the attempted operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotClaimed is returned when an operation requires a claimed ticket.
	ErrNotClaimed = errors.New("ticket is not claimed")

	// ErrSelfTransfer is returned when a claimant transfers a ticket to
	// themselves.
	ErrSelfTransfer = errors.New("cannot transfer a ticket to yourself")

	// ErrTargetNotFound is returned when a user reference cannot be resolved
	// to a guild member.
	ErrTargetNotFound = errors.New("target user not found")

	// ErrTargetNotEligible is returned when a transfer target does not hold
	// the governing role.
	ErrTargetNotEligible = errors.New("target does not hold the governing role")

	// ErrTicketNotFound is returned for operations on channels with no ticket
	// row.
	ErrTicketNotFound = errors.New("no ticket for this channel")
)

// AlreadyClaimedError is returned when a claim loses to an existing claimant.
type AlreadyClaimedError struct {
	// By is the user that holds the claim.
	By string
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("ticket already claimed by %s", e.By)
}

// ChannelCreateError is returned when the platform rejects channel creation.
// Ticket creation aborts and no row is persisted.
type ChannelCreateError struct {
	Err error
}

func (e *ChannelCreateError) Error() string {
	return fmt.Sprintf("error creating ticket channel: %v", e.Err)
}

func (e *ChannelCreateError) Unwrap() error {
	return e.Err
}

// ChannelDeleteError is recorded when the platform rejects channel deletion
// during close. Store cleanup has already happened; the channel is orphaned.
type ChannelDeleteError struct {
	Err error
}

func (e *ChannelDeleteError) Error() string {
	return fmt.Sprintf("error deleting ticket channel: %v", e.Err)
}

func (e *ChannelDeleteError) Unwrap() error {
	return e.Err
}
