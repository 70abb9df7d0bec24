package ticketing

import (
	"context"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/entities"
)

// Capability is an authorization capability an actor can hold in a guild.
// Capabilities are resolved against the current guild settings snapshot, not
// against any particular platform cache.
type Capability string

const (
	// CapabilityMiddleman is held by members of the configured middleman role.
	CapabilityMiddleman Capability = "middleman"

	// CapabilityStaff is held by members of the configured staff role.
	CapabilityStaff Capability = "staff"

	// CapabilityOverride is held by the bot owner and the guild owner. It
	// bypasses role-based checks wherever an operation admits an override.
	CapabilityOverride Capability = "override"
)

// CapabilityChecker answers capability queries for guild members.
type CapabilityChecker interface {
	// HasCapability reports whether the user holds the capability in the
	// guild.
	HasCapability(ctx context.Context, guildID, userID string, c Capability) (bool, error)
}

// GoverningCapability returns the capability that governs claim, transfer,
// participant, and close authorization for a ticket type. The mapping follows
// the ticket's immutable type: middleman for main tickets, staff for support
// and report tickets.
func GoverningCapability(t entities.TicketType) Capability {
	if t == entities.TicketTypeMain {
		return CapabilityMiddleman
	}
	return CapabilityStaff
}
