package messages

// User-facing reply text. All of these are sent as ephemeral interaction
// responses or in-channel replies.
const (
	// ErrUserErrorProcessing is the generic failure reply.
	ErrUserErrorProcessing = "Something went wrong while processing your request. Please try again."

	// ErrNotATicketChannel is sent when a ticket action is used outside a ticket.
	ErrNotATicketChannel = "This is not a ticket channel."

	// ErrNoPermission is sent when the actor lacks the governing role.
	ErrNoPermission = "You do not have permission to do that."

	// ErrNotClaimed is sent when an action requires a claimed ticket.
	ErrNotClaimed = "This ticket is not claimed."

	// ErrSelfTransfer is sent when a middleman transfers a ticket to themselves.
	ErrSelfTransfer = "You cannot transfer a ticket to yourself."

	// ErrTargetNotFound is sent when a user reference cannot be resolved.
	ErrTargetNotFound = "User not found."

	// ErrTargetNotEligible is sent when a transfer target lacks the governing role.
	ErrTargetNotEligible = "The target user does not hold the required role."

	// ErrOwnerOnly is sent when a configuration command is used by a
	// non-owner.
	ErrOwnerOnly = "Only the server owner or the bot owner can use this command."

	// TicketClosing is the close acknowledgement. The channel disappears
	// after the grace delay.
	TicketClosing = "Closing ticket in 5 seconds..."
)
