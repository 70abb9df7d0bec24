package main

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/dataaccess"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/messages"
)

const (
	// MiddlemanCmdName is the command for setting the middleman role.
	MiddlemanCmdName = "middleman"

	// StaffRoleCmdName is the command for setting the staff role.
	StaffRoleCmdName = "staffrole"

	// LogChannelCmdName is the command for setting the log channel.
	LogChannelCmdName = "logchannel"

	// MainCategoryCmdName is the command for setting the trade ticket category.
	MainCategoryCmdName = "maincategory"

	// SupportCategoryCmdName is the command for setting the support ticket category.
	SupportCategoryCmdName = "supportcategory"

	// roleOptionName is the name of the role option.
	roleOptionName = "role"

	// channelOptionName is the name of the channel option.
	channelOptionName = "channel"

	// categoryOptionName is the name of the category option.
	categoryOptionName = "category"
)

var (
	middlemanCmd = &discordgo.ApplicationCommand{
		Name:        MiddlemanCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This sets the role that handles trade tickets.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        roleOptionName,
				Type:        discordgo.ApplicationCommandOptionRole,
				Description: "This is the role you want to handle trade tickets.",
				Required:    true,
			},
		},
	}

	staffRoleCmd = &discordgo.ApplicationCommand{
		Name:        StaffRoleCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This sets the role that handles support and report tickets.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        roleOptionName,
				Type:        discordgo.ApplicationCommandOptionRole,
				Description: "This is the role you want to handle support tickets.",
				Required:    true,
			},
		},
	}

	logChannelCmd = &discordgo.ApplicationCommand{
		Name:        LogChannelCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This sets the channel that ticket activity is logged to.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        channelOptionName,
				Type:        discordgo.ApplicationCommandOptionChannel,
				Description: "This is the channel you want ticket activity logged to.",
				Required:    true,
			},
		},
	}

	mainCategoryCmd = &discordgo.ApplicationCommand{
		Name:        MainCategoryCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This sets the category that trade tickets are created under.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        categoryOptionName,
				Type:        discordgo.ApplicationCommandOptionChannel,
				Description: "This is the category for trade tickets.",
				Required:    true,
			},
		},
	}

	supportCategoryCmd = &discordgo.ApplicationCommand{
		Name:        SupportCategoryCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This sets the category that support and report tickets are created under.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        categoryOptionName,
				Type:        discordgo.ApplicationCommandOptionChannel,
				Description: "This is the category for support tickets.",
				Required:    true,
			},
		},
	}

	// slashCommands is every command registered per guild.
	slashCommands = []*discordgo.ApplicationCommand{
		middlemanCmd,
		staffRoleCmd,
		logChannelCmd,
		mainCategoryCmd,
		supportCategoryCmd,
		mainPanelCmd,
		supportPanelCmd,
		tosCmd,
		faqCmd,
	}
)

// requireOwner gates configuration commands to the guild owner and the bot
// owner. It reports whether the command may proceed; when false, the
// interaction has already been answered.
func requireOwner(a IApp, i *discordgo.InteractionCreate) (bool, error) {
	checker := &capabilityChecker{a: a}
	override, err := checker.isOverride(i.GuildID, interactionUserID(i))
	if err != nil {
		return false, fmt.Errorf("error checking override: %w", err)
	}
	if override {
		return true, nil
	}
	if err := respondEphemeral(a, i, messages.ErrOwnerOnly); err != nil {
		return false, fmt.Errorf("error responding to interaction: %w", err)
	}
	return false, nil
}

func middlemanCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	ok, err := requireOwner(a, i)
	if err != nil || !ok {
		return err
	}

	role := i.ApplicationCommandData().Options[0].RoleValue(a.Session(), i.GuildID)
	if role == nil {
		return respondEphemeral(a, i, "You must provide a role.")
	}

	if err := a.SettingsDal().SetField(context.Background(), i.GuildID, dataaccess.SettingsFieldMiddlemanRole, role.ID); err != nil {
		return fmt.Errorf("error saving middleman role: %w", err)
	}
	return respondEphemeral(a, i, fmt.Sprintf("The middleman role has been set to <@&%s>.", role.ID))
}

func staffRoleCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	ok, err := requireOwner(a, i)
	if err != nil || !ok {
		return err
	}

	role := i.ApplicationCommandData().Options[0].RoleValue(a.Session(), i.GuildID)
	if role == nil {
		return respondEphemeral(a, i, "You must provide a role.")
	}

	if err := a.SettingsDal().SetField(context.Background(), i.GuildID, dataaccess.SettingsFieldStaffRole, role.ID); err != nil {
		return fmt.Errorf("error saving staff role: %w", err)
	}
	return respondEphemeral(a, i, fmt.Sprintf("The staff role has been set to <@&%s>.", role.ID))
}

func logChannelCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	ok, err := requireOwner(a, i)
	if err != nil || !ok {
		return err
	}

	channel := i.ApplicationCommandData().Options[0].ChannelValue(a.Session())
	if channel == nil {
		return respondEphemeral(a, i, "You must provide a channel.")
	}

	// The log channel must be a text channel.
	if channel.Type != discordgo.ChannelTypeGuildText {
		return respondEphemeral(a, i, "You must provide a text channel for logging.")
	}

	if err := a.SettingsDal().SetField(context.Background(), i.GuildID, dataaccess.SettingsFieldLogChannel, channel.ID); err != nil {
		return fmt.Errorf("error saving log channel: %w", err)
	}
	return respondEphemeral(a, i, fmt.Sprintf("The log channel has been set to <#%s>.", channel.ID))
}

func mainCategoryCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	return setCategoryHandler(a, i, dataaccess.SettingsFieldMainCategory, "trade")
}

func supportCategoryCmdHandler(a IApp, i *discordgo.InteractionCreate) error {
	return setCategoryHandler(a, i, dataaccess.SettingsFieldSupportCategory, "support")
}

func setCategoryHandler(a IApp, i *discordgo.InteractionCreate, field, label string) error {
	ok, err := requireOwner(a, i)
	if err != nil || !ok {
		return err
	}

	channel := i.ApplicationCommandData().Options[0].ChannelValue(a.Session())
	if channel == nil {
		return respondEphemeral(a, i, "You must provide a category.")
	}

	if channel.Type != discordgo.ChannelTypeGuildCategory {
		return respondEphemeral(a, i, "You must provide a category channel.")
	}

	if err := a.SettingsDal().SetField(context.Background(), i.GuildID, field, channel.ID); err != nil {
		return fmt.Errorf("error saving %s category: %w", label, err)
	}
	return respondEphemeral(a, i, fmt.Sprintf("The %s ticket category has been set to **%s**.", label, channel.Name))
}
