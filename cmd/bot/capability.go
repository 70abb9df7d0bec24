package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/ticketing"
)

// capabilityChecker resolves capabilities from the guild settings and the
// member's roles. The override capability belongs to the bot owner and the
// guild owner.
type capabilityChecker struct {
	a IApp
}

func (c *capabilityChecker) HasCapability(ctx context.Context, guildID, userID string, capability ticketing.Capability) (bool, error) {
	if capability == ticketing.CapabilityOverride {
		return c.isOverride(guildID, userID)
	}

	set, err := c.a.SettingsDal().GetSettings(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("error getting guild settings: %w", err)
	}
	if set == nil {
		return false, nil
	}

	var roleID string
	switch capability {
	case ticketing.CapabilityMiddleman:
		roleID = set.MiddlemanRoleID
	case ticketing.CapabilityStaff:
		roleID = set.StaffRoleID
	default:
		return false, fmt.Errorf("unknown capability %q", capability)
	}
	if roleID == "" {
		return false, nil
	}

	member, err := c.a.Session().GuildMember(guildID, userID)
	if err != nil {
		er := new(discordgo.RESTError)
		if errors.As(err, &er) && er.Message != nil &&
			(er.Message.Code == discordgo.ErrCodeUnknownMember || er.Message.Code == discordgo.ErrCodeUnknownUser) {
			return false, nil
		}
		return false, fmt.Errorf("error getting member: %w", err)
	}

	return hasRole(member, roleID), nil
}

func (c *capabilityChecker) isOverride(guildID, userID string) (bool, error) {
	if BotOwnerId != "" && userID == BotOwnerId {
		return true, nil
	}

	guild, err := c.a.Session().State.Guild(guildID)
	if err != nil {
		// State miss, go to the API.
		guild, err = c.a.Session().Guild(guildID)
		if err != nil {
			return false, fmt.Errorf("error getting guild: %w", err)
		}
	}
	return guild.OwnerID == userID, nil
}
