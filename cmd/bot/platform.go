package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/permsync"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/ticketing"
)

// guildMembersPageSize is the page size for member list requests. 1000 is the
// API maximum.
const guildMembersPageSize = 1000

// sessionChannels allocates and removes ticket channels through the discord
// session.
type sessionChannels struct {
	a IApp
}

func (c *sessionChannels) CreateChannel(_ context.Context, guildID string, p ticketing.ChannelCreateParams) (string, error) {
	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(p.Overwrites)+1)
	for _, ow := range p.Overwrites {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    ow.Subject,
			Type:  overwriteType(ow.Type),
			Allow: ow.Allow(),
			Deny:  ow.Deny(),
		})
	}

	// The bot keeps full access to the channel regardless of the later claim
	// and unclaim edits.
	if me := c.a.Session().State.User; me != nil {
		bot := permsync.Change{
			Subject: me.ID,
			Type:    permsync.SubjectMember,
			View:    true, Send: true, History: true, Manage: true,
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    bot.Subject,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: bot.Allow(),
			Deny:  bot.Deny(),
		})
	}

	channel, err := c.a.Session().GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 p.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                p.Topic,
		PermissionOverwrites: overwrites,
		ParentID:             p.ParentID,
	})
	if err != nil {
		return "", fmt.Errorf("error creating channel: %w", err)
	}
	return channel.ID, nil
}

func (c *sessionChannels) DeleteChannel(_ context.Context, channelID string) error {
	if _, err := c.a.Session().ChannelDelete(channelID); err != nil {
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

// sessionEditor issues overwrite edits for the permission synchronizer.
type sessionEditor struct {
	a IApp
}

func (e *sessionEditor) SetOverwrite(channelID, subjectID string, subjectType permsync.SubjectType, allow, deny int64) error {
	return e.a.Session().ChannelPermissionSet(channelID, subjectID, overwriteType(subjectType), allow, deny)
}

func (e *sessionEditor) DeleteOverwrite(channelID, subjectID string) error {
	return e.a.Session().ChannelPermissionDelete(channelID, subjectID)
}

func overwriteType(t permsync.SubjectType) discordgo.PermissionOverwriteType {
	if t == permsync.SubjectRole {
		return discordgo.PermissionOverwriteTypeRole
	}
	return discordgo.PermissionOverwriteTypeMember
}

// sessionDirectory resolves user references against the guild member list.
type sessionDirectory struct {
	a IApp
}

func (d *sessionDirectory) MemberByID(_ context.Context, guildID, userID string) (*ticketing.Member, error) {
	member, err := d.a.Session().GuildMember(guildID, userID)
	if err != nil {
		er := new(discordgo.RESTError)
		if errors.As(err, &er) && er.Message != nil &&
			(er.Message.Code == discordgo.ErrCodeUnknownMember || er.Message.Code == discordgo.ErrCodeUnknownUser) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting member: %w", err)
	}
	return &ticketing.Member{ID: member.User.ID, Username: member.User.Username}, nil
}

func (d *sessionDirectory) MemberByName(_ context.Context, guildID, name string) (*ticketing.Member, error) {
	return d.search(guildID, func(username string) bool {
		return strings.EqualFold(username, name)
	})
}

func (d *sessionDirectory) MemberContaining(_ context.Context, guildID, query string) (*ticketing.Member, error) {
	q := strings.ToLower(query)
	return d.search(guildID, func(username string) bool {
		return strings.Contains(strings.ToLower(username), q)
	})
}

// search pages through the guild member list and returns the first match.
func (d *sessionDirectory) search(guildID string, match func(username string) bool) (*ticketing.Member, error) {
	after := ""
	for {
		members, err := d.a.Session().GuildMembers(guildID, after, guildMembersPageSize)
		if err != nil {
			return nil, fmt.Errorf("error listing members: %w", err)
		}
		if len(members) == 0 {
			return nil, nil
		}
		for _, m := range members {
			if m.User == nil {
				continue
			}
			if match(m.User.Username) {
				return &ticketing.Member{ID: m.User.ID, Username: m.User.Username}, nil
			}
		}
		if len(members) < guildMembersPageSize {
			return nil, nil
		}
		after = members[len(members)-1].User.ID
	}
}
