package entities

// TicketParticipant is a user granted explicit access to a ticket channel
// beyond the creator, claimant, and governing role. Rows are append-only for
// the life of the ticket and are purged together with the ticket row.
type TicketParticipant struct {
	// ChannelID is the ticket channel. Together with UserID it forms the key.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// UserID is the user that was added to the ticket.
	UserID string `json:"user_id" bson:"user_id"`
}
