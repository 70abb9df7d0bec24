package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/logging"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/messages"
)

// textCommandPrefix marks in-channel text commands.
const textCommandPrefix = "."

const helpText = `**Commands**
` + "`.claim`" + ` claims the ticket in this channel.
` + "`.unclaim`" + ` releases your claim on the ticket.
` + "`.transfer <user>`" + ` hands your claim to another team member.
` + "`.add <user>`" + ` adds a user to the ticket.
` + "`.close`" + ` closes the ticket.`

// messageCommandHandler handles dot-prefixed text commands inside ticket
// channels. These mirror the welcome message buttons for people who prefer
// typing.
func messageCommandHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if !strings.HasPrefix(m.Content, textCommandPrefix) {
			return
		}

		fields := strings.Fields(strings.TrimPrefix(m.Content, textCommandPrefix))
		if len(fields) == 0 {
			return
		}
		cmd := strings.ToLower(fields[0])
		arg := strings.Join(fields[1:], " ")

		var reply string
		var err error

		switch cmd {
		case "help":
			reply = helpText
		case "claim":
			_, err = a.Engine().Claim(context.Background(), m.ChannelID, m.Author.ID)
			reply = fmt.Sprintf("<@%s>, you have claimed this ticket.", m.Author.ID)
		case "unclaim":
			_, err = a.Engine().Unclaim(context.Background(), m.ChannelID, m.Author.ID)
			reply = fmt.Sprintf("<@%s>, you have unclaimed this ticket.", m.Author.ID)
		case "transfer":
			if arg == "" {
				reply = "Usage: `.transfer <user>`"
				break
			}
			_, err = a.Engine().Transfer(context.Background(), m.ChannelID, m.Author.ID, arg)
			// The transfer announcement comes from the engine.
			reply = ""
		case "add", "adduser":
			if arg == "" {
				reply = "Usage: `.add <user>`"
				break
			}
			_, err = a.Engine().AddParticipant(context.Background(), m.ChannelID, m.Author.ID, arg)
			// The participant announcement comes from the engine.
			reply = ""
		case "close":
			_, err = a.Engine().Close(context.Background(), m.ChannelID, m.Author.ID)
			// The close announcement comes from the engine.
			reply = ""
		default:
			return
		}

		op := textCommandOperation(cmd)

		if err != nil {
			if op != "" {
				TicketOperations.WithLabelValues(op, "error").Inc()
			}
			content, ok := ticketErrorMessage(err)
			if !ok {
				a.Log().Error(fmt.Sprintf("Error processing text command %s", cmd),
					slog.String(logging.KeyError, err.Error()),
					slog.String(logging.KeyChannel, m.ChannelID),
				)
				content = messages.ErrUserErrorProcessing
			}
			reply = content
		} else if op != "" {
			TicketOperations.WithLabelValues(op, "success").Inc()
		}

		if reply == "" {
			return
		}
		if _, err := a.Session().ChannelMessageSend(m.ChannelID, reply); err != nil {
			a.Log().Error("Error replying to text command", slog.String(logging.KeyError, err.Error()),
				slog.String(logging.KeyChannel, m.ChannelID))
		}
	}
}

func textCommandOperation(cmd string) string {
	switch cmd {
	case "claim":
		return "claim"
	case "unclaim":
		return "unclaim"
	case "transfer":
		return "transfer"
	case "add", "adduser":
		return "add_participant"
	case "close":
		return "close"
	default:
		return ""
	}
}
