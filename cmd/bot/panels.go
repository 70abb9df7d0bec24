package main

import (
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

const (
	// MainPanelCmdName is the command for posting the trade ticket panel.
	MainPanelCmdName = "main"

	// SupportPanelCmdName is the command for posting the support panel.
	SupportPanelCmdName = "support"

	// TosCmdName is the command for posting the terms of service.
	TosCmdName = "tos"

	// FaqCmdName is the command for posting the FAQ.
	FaqCmdName = "faq"

	// RequestEmoji is the emoji for the request buttons. (Envelope with arrow)
	RequestEmoji = "\U0001F4E9"

	// ReportEmoji is the emoji for the report button. (Warning)
	ReportEmoji = "⚠"
)

var (
	mainPanelCmd = &discordgo.ApplicationCommand{
		Name:        MainPanelCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This posts the trade ticket panel in the current channel.",
	}

	supportPanelCmd = &discordgo.ApplicationCommand{
		Name:        SupportPanelCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This posts the support panel in the current channel.",
	}

	tosCmd = &discordgo.ApplicationCommand{
		Name:        TosCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This posts the middleman terms of service in the current channel.",
	}

	faqCmd = &discordgo.ApplicationCommand{
		Name:        FaqCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This posts the middleman FAQ in the current channel.",
	}
)

// requireAdministrator gates panel commands to administrators. It reports
// whether the command may proceed; when false, the interaction has already
// been answered.
func requireAdministrator(a IApp, i *discordgo.InteractionCreate) (bool, error) {
	if i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator {
		return true, nil
	}
	if err := respondEphemeral(a, i, "You must be an administrator to use this command."); err != nil {
		return false, fmt.Errorf("error responding to interaction: %w", err)
	}
	return false, nil
}

func mainPanelCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	ok, err := requireAdministrator(a, i)
	if err != nil || !ok {
		return err
	}

	_, err = a.Session().ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title: "Request a Middleman",
			Description: `Trading with someone you don't trust? Request a middleman to hold both sides of the trade.
Click the button below and fill in the trade details to open a ticket.`,
			Color: embedColorGreen,
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    fmt.Sprintf("%s Request Middleman", RequestEmoji),
						Style:    discordgo.PrimaryButton,
						Disabled: false,
						Emoji:    discordgo.ComponentEmoji{},
						URL:      "",
						CustomID: RequestMiddlemanButtonID,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending panel message: %w", err)
	}

	return respondEphemeral(a, i, "The trade ticket panel has been posted.")
}

func supportPanelCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	ok, err := requireAdministrator(a, i)
	if err != nil || !ok {
		return err
	}

	_, err = a.Session().ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title: "Support",
			Description: `Need help, or want to report a user? Open a ticket below and the staff team will get back to you.`,
			Color: embedColorGreen,
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    fmt.Sprintf("%s Contact Support", RequestEmoji),
						Style:    discordgo.PrimaryButton,
						Disabled: false,
						Emoji:    discordgo.ComponentEmoji{},
						URL:      "",
						CustomID: RequestSupportButtonID,
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Report a User", ReportEmoji),
						Style:    discordgo.DangerButton,
						Disabled: false,
						Emoji:    discordgo.ComponentEmoji{},
						URL:      "",
						CustomID: RequestReportButtonID,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending panel message: %w", err)
	}

	return respondEphemeral(a, i, "The support panel has been posted.")
}

func tosCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	ok, err := requireAdministrator(a, i)
	if err != nil || !ok {
		return err
	}

	_, err = a.Session().ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title: "Middleman Terms of Service",
			Description: `By requesting a middleman you agree to the following:

1. The middleman holds items from both sides until both parties confirm the trade.
2. Both parties must stay in the ticket until the trade is complete.
3. The middleman's decision is final in any dispute during the trade.
4. Attempting to scam the middleman or the other party results in a ban.
5. Tickets inactive for an extended period may be closed by the team.`,
			Color: embedColorOrange,
		},
	})
	if err != nil {
		return fmt.Errorf("error sending terms of service: %w", err)
	}

	return respondEphemeral(a, i, "The terms of service have been posted.")
}

func faqCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	ok, err := requireAdministrator(a, i)
	if err != nil || !ok {
		return err
	}

	_, err = a.Session().ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title: "Middleman FAQ",
			Fields: []*discordgo.MessageEmbedField{
				{
					Name:  "What is a middleman?",
					Value: "A trusted member of the team who holds both sides of a trade so neither party can scam the other.",
				},
				{
					Name:  "How do I request one?",
					Value: "Use the trade ticket panel and fill in the form. A middleman will claim your ticket when one is available.",
				},
				{
					Name:  "How long does it take?",
					Value: "Tickets are claimed in the order they come in. Please be patient and keep your trade details ready.",
				},
				{
					Name:  "Can I add my trade partner to the ticket?",
					Value: "The middleman handling your ticket can add them with the Add User button.",
				},
			},
			Color: embedColorOrange,
		},
	})
	if err != nil {
		return fmt.Errorf("error sending FAQ: %w", err)
	}

	return respondEphemeral(a, i, "The FAQ has been posted.")
}
