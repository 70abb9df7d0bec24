package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/entities"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/logging"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/messages"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/ticketing"
)

const (
	embedColorGreen  = 0x00ff00
	embedColorOrange = 0xffa500
	embedColorRed    = 0xff0000
)

// notifier renders lifecycle output: the welcome message in new ticket
// channels, in-channel announcements, welcome button updates, and log channel
// embeds. Everything except Welcome is best-effort.
type notifier struct {
	a IApp
}

func (n *notifier) Welcome(_ context.Context, t *entities.Ticket, set *entities.GuildSettings, other *ticketing.Member) (string, error) {
	content := fmt.Sprintf("<@%s>", t.CreatorID)
	if roleID := set.GoverningRoleID(t.TicketType); roleID != "" {
		content += fmt.Sprintf(" <@&%s>", roleID)
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Type",
			Value:  string(t.TicketType),
			Inline: true,
		},
		{
			Name:   "Created By",
			Value:  fmt.Sprintf("<@%s>", t.CreatorID),
			Inline: true,
		},
	}
	if t.OtherUserID != "" {
		value := t.OtherUserID
		if other != nil {
			value = fmt.Sprintf("<@%s>", other.ID)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Other Party",
			Value:  value,
			Inline: true,
		})
	}
	if t.Description != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Description",
			Value: t.Description,
		})
	}
	if t.CanJoinPrivateServer != "" {
		name := "Details"
		if t.TicketType == entities.TicketTypeMain {
			name = "Can Both Join Private Servers"
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: t.CanJoinPrivateServer,
		})
	}

	msg, err := n.a.Session().ChannelMessageSendComplex(t.ChannelID, &discordgo.MessageSend{
		Content: content,
		Embed: &discordgo.MessageEmbed{
			Title:       "New Ticket",
			Description: "A member of the team will claim this ticket shortly. Please have all trade details ready.",
			Color:       embedColorGreen,
			Fields:      fields,
		},
		Components: []discordgo.MessageComponent{
			ticketButtonsRow(false),
		},
	})
	if err != nil {
		return "", fmt.Errorf("error sending welcome message: %w", err)
	}

	// Pin the message so the controls stay reachable.
	if err := n.a.Session().ChannelMessagePin(t.ChannelID, msg.ID); err != nil {
		n.a.Log().Error("Error pinning welcome message", slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, t.ChannelID))
	}

	return msg.ID, nil
}

func (n *notifier) Notify(_ context.Context, ev ticketing.Event) {
	switch ev.Kind {
	case ticketing.EventCreated:
		n.logEmbed(ev.Settings, &discordgo.MessageEmbed{
			Title:       "Ticket Created",
			Description: fmt.Sprintf("Ticket <#%s> created by <@%s>.", ev.Ticket.ChannelID, ev.ActorID),
			Color:       embedColorGreen,
		})
	case ticketing.EventClaimed:
		n.announce(ev.Ticket.ChannelID, fmt.Sprintf("<@%s> has claimed this ticket.", ev.ActorID))
		n.updateTicketButtons(ev.Ticket, true)
		n.logEmbed(ev.Settings, &discordgo.MessageEmbed{
			Title:       "Ticket Claimed",
			Description: fmt.Sprintf("Ticket <#%s> claimed by <@%s>.", ev.Ticket.ChannelID, ev.ActorID),
			Color:       embedColorGreen,
		})
	case ticketing.EventUnclaimed:
		n.announce(ev.Ticket.ChannelID, fmt.Sprintf("<@%s> has unclaimed this ticket.", ev.ActorID))
		n.updateTicketButtons(ev.Ticket, false)
		n.logEmbed(ev.Settings, &discordgo.MessageEmbed{
			Title:       "Ticket Unclaimed",
			Description: fmt.Sprintf("Ticket <#%s> unclaimed by <@%s>.", ev.Ticket.ChannelID, ev.ActorID),
			Color:       embedColorOrange,
		})
	case ticketing.EventTransferred:
		n.announce(ev.Ticket.ChannelID, fmt.Sprintf("<@%s> has transferred this ticket to <@%s>.", ev.ActorID, ev.TargetID))
		n.logEmbed(ev.Settings, &discordgo.MessageEmbed{
			Title:       "Ticket Transferred",
			Description: fmt.Sprintf("Ticket <#%s> transferred from <@%s> to <@%s>.", ev.Ticket.ChannelID, ev.ActorID, ev.TargetID),
			Color:       embedColorOrange,
		})
	case ticketing.EventParticipantAdded:
		n.announce(ev.Ticket.ChannelID, fmt.Sprintf("<@%s> has been added to the ticket.", ev.TargetID))
	case ticketing.EventCloseScheduled:
		n.announce(ev.Ticket.ChannelID, messages.TicketClosing)
	case ticketing.EventClosed:
		// The channel is gone, only the log channel can carry this one.
		n.logEmbed(ev.Settings, &discordgo.MessageEmbed{
			Title:       "Ticket Closed",
			Description: fmt.Sprintf("Ticket `%s` closed by <@%s>.", ev.Ticket.Name(), ev.ActorID),
			Color:       embedColorRed,
			Fields: []*discordgo.MessageEmbedField{
				{
					Name:   "Created By",
					Value:  fmt.Sprintf("<@%s>", ev.Ticket.CreatorID),
					Inline: true,
				},
				{
					Name:   "Participants",
					Value:  fmt.Sprintf("%d", ev.Participants),
					Inline: true,
				},
			},
		})
	}
}

func (n *notifier) announce(channelID, content string) {
	if _, err := n.a.Session().ChannelMessageSend(channelID, content); err != nil {
		n.a.Log().Error("Error sending channel announcement", slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, channelID))
	}
}

func (n *notifier) logEmbed(set *entities.GuildSettings, embed *discordgo.MessageEmbed) {
	if set == nil || set.LogChannelID == "" {
		return
	}
	if _, err := n.a.Session().ChannelMessageSendComplex(set.LogChannelID, &discordgo.MessageSend{
		Embed: embed,
	}); err != nil {
		n.a.Log().Error("Error sending log channel embed", slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, set.LogChannelID))
	}
}

// updateTicketButtons swaps the welcome message controls between the claimed
// and unclaimed states.
func (n *notifier) updateTicketButtons(t *entities.Ticket, claimed bool) {
	if t.WelcomeMessageID == "" {
		return
	}
	if _, err := n.a.Session().ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: t.ChannelID,
		ID:      t.WelcomeMessageID,
		Components: []discordgo.MessageComponent{
			ticketButtonsRow(claimed),
		},
	}); err != nil {
		n.a.Log().Error("Error updating welcome message buttons", slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, t.ChannelID))
	}
}
