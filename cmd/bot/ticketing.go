package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/entities"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/messages"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/ticketing"
)

const (
	// RequestMiddlemanButtonID is the ID for the request middleman button.
	RequestMiddlemanButtonID = "request_mm"

	// RequestSupportButtonID is the ID for the request support button.
	RequestSupportButtonID = "request_support"

	// RequestReportButtonID is the ID for the request report button.
	RequestReportButtonID = "request_report"

	// ClaimTicketButtonID is the ID for the claim ticket button.
	ClaimTicketButtonID = "claim_ticket"

	// UnclaimTicketButtonID is the ID for the unclaim ticket button.
	UnclaimTicketButtonID = "unclaim_ticket"

	// CloseTicketButtonID is the ID for the close ticket button.
	CloseTicketButtonID = "close_ticket"

	// AddUserButtonID is the ID for the add user button.
	AddUserButtonID = "add_user"
)

const (
	// MiddlemanModalID is the ID for the middleman request modal.
	MiddlemanModalID = "mm_modal"

	// SupportModalID is the ID for the support request modal.
	SupportModalID = "support_modal"

	// ReportModalID is the ID for the report modal.
	ReportModalID = "report_modal"

	// AddUserModalID is the ID for the add user modal.
	AddUserModalID = "add_user_modal"
)

const (
	// ClaimEmoji is the emoji that will be used for the claim button. (Ticket)
	ClaimEmoji = "\U0001F3AB"

	// UnclaimEmoji is the emoji that will be used for the unclaim button. (Open padlock)
	UnclaimEmoji = "\U0001F513"

	// CloseEmoji is the emoji that will be used for the close button. (Padlock)
	CloseEmoji = "\U0001F510"

	// AddUserEmoji is the emoji that will be used for the add user button. (Bust with plus)
	AddUserEmoji = "\U0001F464"
)

// ticketButtonsRow is the control row on the welcome message. The claim and
// unclaim buttons swap their enabled state with the claim.
func ticketButtonsRow(claimed bool) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    fmt.Sprintf("%s Claim", ClaimEmoji),
				Style:    discordgo.PrimaryButton,
				Disabled: claimed,
				Emoji:    discordgo.ComponentEmoji{},
				URL:      "",
				CustomID: ClaimTicketButtonID,
			},
			discordgo.Button{
				Label:    fmt.Sprintf("%s Unclaim", UnclaimEmoji),
				Style:    discordgo.SecondaryButton,
				Disabled: !claimed,
				Emoji:    discordgo.ComponentEmoji{},
				URL:      "",
				CustomID: UnclaimTicketButtonID,
			},
			discordgo.Button{
				Label:    fmt.Sprintf("%s Add User", AddUserEmoji),
				Style:    discordgo.SecondaryButton,
				Disabled: false,
				Emoji:    discordgo.ComponentEmoji{},
				URL:      "",
				CustomID: AddUserButtonID,
			},
			discordgo.Button{
				Label:    fmt.Sprintf("%s Close", CloseEmoji),
				Style:    discordgo.DangerButton,
				Disabled: false,
				Emoji:    discordgo.ComponentEmoji{},
				URL:      "",
				CustomID: CloseTicketButtonID,
			},
		},
	}
}

// requestMiddlemanHandler opens the middleman request form.
func requestMiddlemanHandler(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: MiddlemanModalID,
			Title:    "Request a Middleman",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "other_user",
							Label:       "Who are you trading with?",
							Style:       discordgo.TextInputShort,
							Placeholder: "Username or user ID",
							Required:    true,
							MaxLength:   100,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "description",
							Label:       "What is the trade?",
							Style:       discordgo.TextInputParagraph,
							Placeholder: "Describe both sides of the trade",
							Required:    true,
							MaxLength:   1000,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "can_join_ps",
							Label:       "Can you both join private servers?",
							Style:       discordgo.TextInputShort,
							Placeholder: "Yes / No",
							Required:    true,
							MaxLength:   50,
						},
					},
				},
			},
		},
	})
}

// requestSupportHandler opens the support request form.
func requestSupportHandler(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: SupportModalID,
			Title:    "Contact Support",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "issue",
							Label:       "What do you need help with?",
							Style:       discordgo.TextInputParagraph,
							Required:    true,
							MaxLength:   1000,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "priority",
							Label:       "How urgent is this?",
							Style:       discordgo.TextInputShort,
							Placeholder: "Low / Medium / High",
							Required:    true,
							MaxLength:   50,
						},
					},
				},
			},
		},
	})
}

// requestReportHandler opens the report form.
func requestReportHandler(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: ReportModalID,
			Title:    "Report a User",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "reported_user",
							Label:       "Who are you reporting?",
							Style:       discordgo.TextInputShort,
							Placeholder: "Username or user ID",
							Required:    true,
							MaxLength:   100,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "details",
							Label:     "What happened?",
							Style:     discordgo.TextInputParagraph,
							Required:  true,
							MaxLength: 1000,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "proof",
							Label:       "What proof do you have?",
							Style:       discordgo.TextInputParagraph,
							Placeholder: "Links to screenshots or recordings",
							Required:    false,
							MaxLength:   1000,
						},
					},
				},
			},
		},
	})
}

// addUserButtonHandler opens the add user form.
func addUserButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: AddUserModalID,
			Title:    "Add a User",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "user_id",
							Label:       "Who should be added?",
							Style:       discordgo.TextInputShort,
							Placeholder: "Username or user ID",
							Required:    true,
							MaxLength:   100,
						},
					},
				},
			},
		},
	})
}

// modalValue extracts the text input value from the given row of a submitted
// modal.
func modalValue(data discordgo.ModalSubmitInteractionData, row int) string {
	if row >= len(data.Components) {
		return ""
	}
	actionsRow, ok := data.Components[row].(*discordgo.ActionsRow)
	if !ok || len(actionsRow.Components) == 0 {
		return ""
	}
	input, ok := actionsRow.Components[0].(*discordgo.TextInput)
	if !ok {
		return ""
	}
	return input.Value
}

func middlemanModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()
	return createTicketFromForm(a, i, ticketing.CreateParams{
		GuildID:      i.GuildID,
		CreatorID:    interactionUserID(i),
		CreatorName:  interactionUsername(i),
		Type:         entities.TicketTypeMain,
		OtherUserRef: modalValue(data, 0),
		Description:  modalValue(data, 1),
		Extra:        modalValue(data, 2),
	})
}

func supportModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()
	return createTicketFromForm(a, i, ticketing.CreateParams{
		GuildID:     i.GuildID,
		CreatorID:   interactionUserID(i),
		CreatorName: interactionUsername(i),
		Type:        entities.TicketTypeSupport,
		Description: modalValue(data, 0),
		Extra:       modalValue(data, 1),
	})
}

func reportModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()
	return createTicketFromForm(a, i, ticketing.CreateParams{
		GuildID:      i.GuildID,
		CreatorID:    interactionUserID(i),
		CreatorName:  interactionUsername(i),
		Type:         entities.TicketTypeReport,
		OtherUserRef: modalValue(data, 0),
		Description:  modalValue(data, 1),
		Extra:        modalValue(data, 2),
	})
}

func createTicketFromForm(a IApp, i *discordgo.InteractionCreate, p ticketing.CreateParams) error {
	ticket, err := a.Engine().Create(context.Background(), p)
	if err != nil {
		return respondTicketError(a, i, "create", err)
	}
	TicketOperations.WithLabelValues("create", "success").Inc()

	// Respond with an embedded ephemeral message pointing at the new channel.
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Ticket Created",
					Description: fmt.Sprintf("<@%s>, your ticket has been created.", p.CreatorID),
					Color:       embedColorGreen,
					Fields: []*discordgo.MessageEmbedField{
						{
							Name:   "Ticket Name",
							Value:  ticket.Name(),
							Inline: true,
						},
						{
							Name:   "Ticket Channel",
							Value:  fmt.Sprintf("<#%s>", ticket.ChannelID),
							Inline: true,
						},
					},
				},
			},
		},
	})
}

func claimTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	if _, err := a.Engine().Claim(context.Background(), i.ChannelID, interactionUserID(i)); err != nil {
		return respondTicketError(a, i, "claim", err)
	}
	TicketOperations.WithLabelValues("claim", "success").Inc()
	return respondEphemeral(a, i, "You have claimed this ticket.")
}

func unclaimTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	if _, err := a.Engine().Unclaim(context.Background(), i.ChannelID, interactionUserID(i)); err != nil {
		return respondTicketError(a, i, "unclaim", err)
	}
	TicketOperations.WithLabelValues("unclaim", "success").Inc()
	return respondEphemeral(a, i, "You have unclaimed this ticket.")
}

func closeTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	if _, err := a.Engine().Close(context.Background(), i.ChannelID, interactionUserID(i)); err != nil {
		return respondTicketError(a, i, "close", err)
	}
	TicketOperations.WithLabelValues("close", "success").Inc()
	return respondEphemeral(a, i, messages.TicketClosing)
}

func addUserModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	target := modalValue(i.ModalSubmitData(), 0)
	member, err := a.Engine().AddParticipant(context.Background(), i.ChannelID, interactionUserID(i), target)
	if err != nil {
		return respondTicketError(a, i, "add_participant", err)
	}
	TicketOperations.WithLabelValues("add_participant", "success").Inc()
	return respondEphemeral(a, i, fmt.Sprintf("<@%s> has been added to the ticket.", member.ID))
}

// respondTicketError maps lifecycle errors onto user replies. Unexpected
// errors bubble up to the interaction handler, which answers with the generic
// failure message.
func respondTicketError(a IApp, i *discordgo.InteractionCreate, op string, err error) error {
	TicketOperations.WithLabelValues(op, "error").Inc()

	if content, ok := ticketErrorMessage(err); ok {
		return respondEphemeral(a, i, content)
	}
	return err
}

// ticketErrorMessage translates a lifecycle error into reply text. The second
// return is false for errors without a user-facing translation.
func ticketErrorMessage(err error) (string, bool) {
	acErr := new(ticketing.AlreadyClaimedError)

	switch {
	case errors.As(err, &acErr):
		if acErr.By == "" {
			return "This ticket has already been claimed.", true
		}
		return fmt.Sprintf("This ticket is already claimed by <@%s>.", acErr.By), true
	case errors.Is(err, ticketing.ErrTicketNotFound):
		return messages.ErrNotATicketChannel, true
	case errors.Is(err, ticketing.ErrNotAuthorized):
		return messages.ErrNoPermission, true
	case errors.Is(err, ticketing.ErrNotClaimed):
		return messages.ErrNotClaimed, true
	case errors.Is(err, ticketing.ErrSelfTransfer):
		return messages.ErrSelfTransfer, true
	case errors.Is(err, ticketing.ErrTargetNotFound):
		return messages.ErrTargetNotFound, true
	case errors.Is(err, ticketing.ErrTargetNotEligible):
		return messages.ErrTargetNotEligible, true
	default:
		return "", false
	}
}
