package entities

import (
	"fmt"
	"strings"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/custom"
)

// TicketType determines which role governs a ticket and which category the
// ticket channel is created under. It is immutable after creation.
type TicketType string

const (
	// TicketTypeMain is a trade ticket handled by the middleman role.
	TicketTypeMain TicketType = "main"

	// TicketTypeSupport is a support ticket handled by the staff role.
	TicketTypeSupport TicketType = "support"

	// TicketTypeReport is a report ticket handled by the staff role.
	TicketTypeReport TicketType = "report"
)

// Valid reports whether t is a known ticket type.
func (t TicketType) Valid() bool {
	switch t {
	case TicketTypeMain, TicketTypeSupport, TicketTypeReport:
		return true
	default:
		return false
	}
}

// Ticket is the persisted record for one open ticket channel. There is
// exactly one row per live channel; the row is the source of truth for the
// claim state.
type Ticket struct {
	// ChannelID is the ID of the channel the ticket governs. It is the key.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// CreatorID is the ID of the user that opened the ticket.
	CreatorID string `json:"creator_id" bson:"creator_id"`

	// CreatorName is the username of the creator, used for the channel name.
	CreatorName string `json:"creator_name" bson:"creator_name"`

	// ClaimedBy is the ID of the user that claimed the ticket. Empty means
	// unclaimed. At most one user holds the claim at any time.
	ClaimedBy string `json:"claimed_by" bson:"claimed_by"`

	// OtherUserID is the other party of the trade. If the reference given at
	// creation could not be resolved to a member, the raw input is stored
	// verbatim.
	OtherUserID string `json:"other_user_id" bson:"other_user_id"`

	// Description is the free-text description from the request form.
	Description string `json:"description" bson:"description"`

	// CanJoinPrivateServer is the free-text yes/no answer from the request
	// form. For support and report tickets this carries the extra form field.
	CanJoinPrivateServer string `json:"can_join_ps" bson:"can_join_ps"`

	// TicketType determines the governing role and category.
	TicketType TicketType `json:"ticket_type" bson:"ticket_type"`

	// WelcomeMessageID is the ID of the pinned welcome message that carries
	// the ticket control buttons.
	WelcomeMessageID string `json:"welcome_message_id" bson:"welcome_message_id"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}

// Claimed reports whether the ticket currently has a claimant.
func (t *Ticket) Claimed() bool {
	return t.ClaimedBy != ""
}

// Name returns the channel name for the ticket, e.g. "mm-wolfie" for a main
// ticket opened by wolfie.
func (t *Ticket) Name() string {
	prefix := "support"
	switch t.TicketType {
	case TicketTypeMain:
		prefix = "mm"
	case TicketTypeReport:
		prefix = "report"
	}
	return fmt.Sprintf("%s-%s", prefix, sanitizeChannelName(t.CreatorName))
}

// sanitizeChannelName lowers the name and strips everything outside [a-z0-9].
func sanitizeChannelName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "ticket"
	}
	return b.String()
}
