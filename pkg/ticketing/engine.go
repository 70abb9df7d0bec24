// Package ticketing implements the ticket lifecycle state machine: create,
// claim, unclaim, transfer, add-participant, and close, together with the
// authorization rules tying them to the governing role of each ticket type.
//
// The engine holds no reference to the chat platform. Everything it touches
// is an injected collaborator: stores for settings, tickets, and
// participants, a channel service, a permission synchronizer, a member
// directory, a capability checker, and a notifier for user-visible output.
package ticketing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/custom"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/entities"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/logging"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/permsync"
)

// DefaultCloseDelay is the grace delay between the close acknowledgement and
// the channel disappearing.
const DefaultCloseDelay = 5 * time.Second

// SettingsStore reads the per-guild configuration.
type SettingsStore interface {
	// GetSettings returns (nil, nil) for guilds that were never configured.
	GetSettings(ctx context.Context, guildID string) (*entities.GuildSettings, error)
}

// TicketStore is the source of truth for ticket claim state.
type TicketStore interface {
	InsertTicket(ctx context.Context, ticket *entities.Ticket) error

	// GetTicket returns (nil, nil) when the channel has no ticket row.
	GetTicket(ctx context.Context, channelID string) (*entities.Ticket, error)

	// ClaimTicket is a conditional update that only succeeds while the ticket
	// is unclaimed. It reports whether the claim was won.
	ClaimTicket(ctx context.Context, channelID, userID string) (bool, error)

	UnclaimTicket(ctx context.Context, channelID string) error
	TransferTicket(ctx context.Context, channelID, userID string) error
	SetWelcomeMessage(ctx context.Context, channelID, messageID string) error

	// DeleteTicket removes the ticket row and its participant rows together.
	DeleteTicket(ctx context.Context, channelID string) error
}

// ParticipantStore records extra users granted access to a ticket.
type ParticipantStore interface {
	// AddParticipant is idempotent.
	AddParticipant(ctx context.Context, channelID, userID string) error
	ListParticipants(ctx context.Context, channelID string) ([]string, error)
}

// ChannelCreateParams describes the channel to allocate for a new ticket.
type ChannelCreateParams struct {
	// Name is the channel name.
	Name string

	// Topic is the channel topic.
	Topic string

	// ParentID is the category to create the channel under. Empty means no
	// parent.
	ParentID string

	// Overwrites is the initial access: everyone denied, creator and
	// governing role granted. The channel service adds the bot's own grant.
	Overwrites []permsync.Change
}

// Channels allocates and removes ticket channels on the platform.
type Channels interface {
	CreateChannel(ctx context.Context, guildID string, p ChannelCreateParams) (channelID string, err error)
	DeleteChannel(ctx context.Context, channelID string) error
}

// PermissionSync applies access changes to an existing channel.
type PermissionSync interface {
	Apply(ctx context.Context, channelID string, changes []permsync.Change) error
}

// Member is a resolved guild member.
type Member struct {
	// ID is the member's user ID.
	ID string

	// Username is the member's username.
	Username string
}

// Directory resolves user references against the guild member list. All
// lookups return (nil, nil) when nothing matches.
type Directory interface {
	// MemberByID resolves an exact user ID.
	MemberByID(ctx context.Context, guildID, userID string) (*Member, error)

	// MemberByName resolves a case-insensitive exact username match.
	MemberByName(ctx context.Context, guildID, name string) (*Member, error)

	// MemberContaining resolves the first member whose username contains the
	// query, case-insensitively. With multiple matches the first one found
	// wins; the order is the directory's iteration order and is not defined
	// further.
	MemberContaining(ctx context.Context, guildID, query string) (*Member, error)
}

// EventKind names a lifecycle event for the notifier.
type EventKind string

const (
	EventCreated          EventKind = "created"
	EventClaimed          EventKind = "claimed"
	EventUnclaimed        EventKind = "unclaimed"
	EventTransferred      EventKind = "transferred"
	EventParticipantAdded EventKind = "participant_added"
	EventCloseScheduled   EventKind = "close_scheduled"
	EventClosed           EventKind = "closed"
)

// Event is a lifecycle notification. The notifier renders it into channel
// messages and log-channel entries; failures there never fail the operation.
type Event struct {
	Kind     EventKind
	Ticket   *entities.Ticket
	Settings *entities.GuildSettings

	// ActorID is the user that performed the operation.
	ActorID string

	// TargetID is the affected user for transfer and participant events.
	TargetID string

	// Participants is the participant count, set on close events.
	Participants int
}

// Notifier renders engine output for users.
type Notifier interface {
	// Welcome posts the welcome message with the ticket controls into a new
	// ticket channel and returns its message ID. When other is non-nil the
	// other party was resolved to a member and may be referenced.
	Welcome(ctx context.Context, t *entities.Ticket, set *entities.GuildSettings, other *Member) (messageID string, err error)

	// Notify reports a lifecycle event. Best-effort.
	Notify(ctx context.Context, ev Event)
}

// Config carries the engine's collaborators.
type Config struct {
	Log          *slog.Logger
	Settings     SettingsStore
	Tickets      TicketStore
	Participants ParticipantStore
	Channels     Channels
	Perms        PermissionSync
	Capabilities CapabilityChecker
	Directory    Directory
	Notifier     Notifier

	// CloseDelay overrides DefaultCloseDelay when positive.
	CloseDelay time.Duration
}

// Engine is the ticket lifecycle state machine.
type Engine struct {
	l            *slog.Logger
	settings     SettingsStore
	tickets      TicketStore
	participants ParticipantStore
	channels     Channels
	perms        PermissionSync
	caps         CapabilityChecker
	dir          Directory
	notify       Notifier

	closeDelay time.Duration
	closes     *closer
}

// New creates a new lifecycle engine.
func New(cfg Config) *Engine {
	delay := cfg.CloseDelay
	if delay <= 0 {
		delay = DefaultCloseDelay
	}
	return &Engine{
		l:            cfg.Log.With(slog.String("component", "ticketing")),
		settings:     cfg.Settings,
		tickets:      cfg.Tickets,
		participants: cfg.Participants,
		channels:     cfg.Channels,
		perms:        cfg.Perms,
		caps:         cfg.Capabilities,
		dir:          cfg.Directory,
		notify:       cfg.Notifier,
		closeDelay:   delay,
		closes:       newCloser(),
	}
}

// CreateParams carries the request form for a new ticket.
type CreateParams struct {
	GuildID   string
	CreatorID string

	// CreatorName is the creator's username, used for the channel name.
	CreatorName string

	Type entities.TicketType

	// OtherUserRef is the free-text reference to the other trade party. It is
	// resolved by exact ID or case-insensitive username; unresolved input is
	// stored verbatim.
	OtherUserRef string

	Description string

	// Extra is the third form field: "can both join private servers" for
	// main tickets, priority/proof for support and report tickets.
	Extra string
}

// Create allocates a ticket channel, persists the ticket row, and posts the
// welcome message. A missing category is a warning, not an error; a rejected
// channel creation aborts with *ChannelCreateError and persists nothing.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*entities.Ticket, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("invalid ticket type %q", p.Type)
	}

	set, err := e.settings.GetSettings(ctx, p.GuildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild settings: %w", err)
	}

	other, otherID, err := e.resolveOtherUser(ctx, p.GuildID, p.OtherUserRef)
	if err != nil {
		return nil, err
	}

	ticket := &entities.Ticket{
		GuildID:              p.GuildID,
		CreatorID:            p.CreatorID,
		CreatorName:          p.CreatorName,
		OtherUserID:          otherID,
		Description:          p.Description,
		CanJoinPrivateServer: p.Extra,
		TicketType:           p.Type,
		CreatedAt:            custom.Now(),
	}

	parentID := set.CategoryID(p.Type)
	if parentID == "" {
		e.l.Warn("Ticket category is not configured, creating channel without a parent",
			slog.String(logging.KeyGuild, p.GuildID),
			slog.String("ticket_type", string(p.Type)),
		)
	}

	overwrites := []permsync.Change{
		// Deny @everyone from seeing the ticket. The everyone role shares the
		// guild ID.
		{Subject: p.GuildID, Type: permsync.SubjectRole},
		// The creator can see and use the ticket.
		{Subject: p.CreatorID, Type: permsync.SubjectMember, View: true, Send: true, History: true},
	}
	if roleID := set.GoverningRoleID(p.Type); roleID != "" {
		overwrites = append(overwrites, permsync.Change{
			Subject: roleID, Type: permsync.SubjectRole, View: true, Send: true, History: true,
		})
	} else {
		e.l.Warn("Governing role is not configured, ticket is only visible to its creator",
			slog.String(logging.KeyGuild, p.GuildID),
			slog.String("ticket_type", string(p.Type)),
		)
	}

	channelID, err := e.channels.CreateChannel(ctx, p.GuildID, ChannelCreateParams{
		Name:       ticket.Name(),
		Topic:      fmt.Sprintf("Ticket created by %s", p.CreatorName),
		ParentID:   parentID,
		Overwrites: overwrites,
	})
	if err != nil {
		return nil, &ChannelCreateError{Err: err}
	}
	ticket.ChannelID = channelID

	if err := e.tickets.InsertTicket(ctx, ticket); err != nil {
		// The channel exists without a row at this point; accepted, the
		// channel can be removed by hand.
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	msgID, err := e.notify.Welcome(ctx, ticket, set, other)
	if err != nil {
		e.l.Error("Error sending welcome message", slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, channelID))
	} else if msgID != "" {
		ticket.WelcomeMessageID = msgID
		if err := e.tickets.SetWelcomeMessage(ctx, channelID, msgID); err != nil {
			e.l.Error("Error saving welcome message ID", slog.String(logging.KeyError, err.Error()),
				slog.String(logging.KeyChannel, channelID))
		}
	}

	e.notify.Notify(ctx, Event{Kind: EventCreated, Ticket: ticket, Settings: set, ActorID: p.CreatorID})
	e.logAction(ctx, "create", ticket, p.CreatorID)
	return ticket, nil
}

// resolveOtherUser resolves the other-party reference for Create. Unresolved
// input is returned verbatim as the stored ID with a nil member.
func (e *Engine) resolveOtherUser(ctx context.Context, guildID, ref string) (*Member, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, "", nil
	}

	var m *Member
	var err error
	if isNumericRef(ref) {
		m, err = e.dir.MemberByID(ctx, guildID, stripMention(ref))
	} else {
		m, err = e.dir.MemberByName(ctx, guildID, ref)
	}
	if err != nil {
		return nil, "", fmt.Errorf("error resolving other user: %w", err)
	}
	if m == nil {
		return nil, ref, nil
	}
	return m, m.ID, nil
}

// Claim moves an unclaimed ticket to Claimed(actor). The governing role (or
// an override identity) is required. The store's conditional update is the
// race arbiter: concurrent claims produce exactly one winner, the rest get
// *AlreadyClaimedError.
func (e *Engine) Claim(ctx context.Context, channelID, actorID string) (*entities.Ticket, error) {
	ticket, err := e.getTicket(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if err := e.requireGoverning(ctx, ticket, actorID); err != nil {
		return nil, err
	}

	won, err := e.tickets.ClaimTicket(ctx, channelID, actorID)
	if err != nil {
		return nil, fmt.Errorf("error claiming ticket: %w", err)
	}
	if !won {
		current, err := e.tickets.GetTicket(ctx, channelID)
		if err != nil {
			return nil, fmt.Errorf("error getting ticket: %w", err)
		}
		claimedBy := ""
		if current != nil {
			claimedBy = current.ClaimedBy
		}
		return nil, &AlreadyClaimedError{By: claimedBy}
	}
	ticket.ClaimedBy = actorID

	set, err := e.settings.GetSettings(ctx, ticket.GuildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild settings: %w", err)
	}

	// The governing role keeps view and history but loses send; the claimant
	// gets an explicit send grant. Role edit first.
	changes := make([]permsync.Change, 0, 2)
	if roleID := set.GoverningRoleID(ticket.TicketType); roleID != "" {
		changes = append(changes, permsync.Change{
			Subject: roleID, Type: permsync.SubjectRole, View: true, History: true,
		})
	}
	changes = append(changes, permsync.Change{
		Subject: actorID, Type: permsync.SubjectMember, View: true, Send: true, History: true,
	})
	e.applyPerms(ctx, "claim", channelID, changes)

	e.notify.Notify(ctx, Event{Kind: EventClaimed, Ticket: ticket, Settings: set, ActorID: actorID})
	e.logAction(ctx, "claim", ticket, actorID)
	return ticket, nil
}

// Unclaim clears the claim. Only the current claimant or an override identity
// may unclaim. The governing role regains send and the claimant's explicit
// overwrite is removed.
func (e *Engine) Unclaim(ctx context.Context, channelID, actorID string) (*entities.Ticket, error) {
	ticket, err := e.getTicket(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ticket.Claimed() {
		return nil, ErrNotClaimed
	}

	if actorID != ticket.ClaimedBy {
		override, err := e.caps.HasCapability(ctx, ticket.GuildID, actorID, CapabilityOverride)
		if err != nil {
			return nil, fmt.Errorf("error checking override capability: %w", err)
		}
		if !override {
			return nil, ErrNotAuthorized
		}
	}

	if err := e.tickets.UnclaimTicket(ctx, channelID); err != nil {
		return nil, fmt.Errorf("error unclaiming ticket: %w", err)
	}
	claimant := ticket.ClaimedBy
	ticket.ClaimedBy = ""

	set, err := e.settings.GetSettings(ctx, ticket.GuildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild settings: %w", err)
	}

	changes := make([]permsync.Change, 0, 2)
	if roleID := set.GoverningRoleID(ticket.TicketType); roleID != "" {
		changes = append(changes, permsync.Change{
			Subject: roleID, Type: permsync.SubjectRole, View: true, Send: true, History: true,
		})
	}
	// The ex-claimant falls back to role-derived permissions.
	changes = append(changes, permsync.Change{
		Subject: claimant, Type: permsync.SubjectMember, Remove: true,
	})
	e.applyPerms(ctx, "unclaim", channelID, changes)

	e.notify.Notify(ctx, Event{Kind: EventUnclaimed, Ticket: ticket, Settings: set, ActorID: actorID})
	e.logAction(ctx, "unclaim", ticket, actorID)
	return ticket, nil
}

// Transfer hands the claim to another holder of the governing role. Only the
// current claimant may transfer; override identities get no bypass here.
// Transfer to self fails regardless of claim state.
func (e *Engine) Transfer(ctx context.Context, channelID, actorID, targetRef string) (*entities.Ticket, error) {
	ticket, err := e.getTicket(ctx, channelID)
	if err != nil {
		return nil, err
	}

	target, err := e.resolveTransferTarget(ctx, ticket.GuildID, targetRef)
	if err != nil {
		return nil, err
	}
	if target.ID == actorID {
		return nil, ErrSelfTransfer
	}

	if !ticket.Claimed() {
		return nil, ErrNotClaimed
	}
	if ticket.ClaimedBy != actorID {
		return nil, ErrNotAuthorized
	}

	governing := GoverningCapability(ticket.TicketType)
	eligible, err := e.caps.HasCapability(ctx, ticket.GuildID, target.ID, governing)
	if err != nil {
		return nil, fmt.Errorf("error checking target capability: %w", err)
	}
	if !eligible {
		return nil, ErrTargetNotEligible
	}

	if err := e.tickets.TransferTicket(ctx, channelID, target.ID); err != nil {
		return nil, fmt.Errorf("error transferring ticket: %w", err)
	}
	outgoing := ticket.ClaimedBy
	ticket.ClaimedBy = target.ID

	set, err := e.settings.GetSettings(ctx, ticket.GuildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild settings: %w", err)
	}

	changes := make([]permsync.Change, 0, 3)
	// Keeping the role without send is idempotent with the claim edit.
	if roleID := set.GoverningRoleID(ticket.TicketType); roleID != "" {
		changes = append(changes, permsync.Change{
			Subject: roleID, Type: permsync.SubjectRole, View: true, History: true,
		})
	}
	changes = append(changes,
		permsync.Change{Subject: outgoing, Type: permsync.SubjectMember, View: true, History: true},
		permsync.Change{Subject: target.ID, Type: permsync.SubjectMember, View: true, Send: true, History: true},
	)
	e.applyPerms(ctx, "transfer", channelID, changes)

	e.notify.Notify(ctx, Event{Kind: EventTransferred, Ticket: ticket, Settings: set, ActorID: actorID, TargetID: target.ID})
	e.logAction(ctx, "transfer", ticket, actorID)
	return ticket, nil
}

// resolveTransferTarget resolves a transfer target by ID, mention, or exact
// username. Fuzzy matching is reserved for AddParticipant.
func (e *Engine) resolveTransferTarget(ctx context.Context, guildID, ref string) (*Member, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrTargetNotFound
	}

	var m *Member
	var err error
	if isNumericRef(ref) {
		m, err = e.dir.MemberByID(ctx, guildID, stripMention(ref))
	} else {
		m, err = e.dir.MemberByName(ctx, guildID, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving transfer target: %w", err)
	}
	if m == nil {
		return nil, ErrTargetNotFound
	}
	return m, nil
}

// AddParticipant grants a user view, send, and history on the ticket channel
// and records the grant. Requires the governing role; once the ticket is
// claimed, only the claimant may add. Override identities bypass both checks.
// The insert is idempotent.
func (e *Engine) AddParticipant(ctx context.Context, channelID, actorID, targetRef string) (*Member, error) {
	ticket, err := e.getTicket(ctx, channelID)
	if err != nil {
		return nil, err
	}

	override, err := e.caps.HasCapability(ctx, ticket.GuildID, actorID, CapabilityOverride)
	if err != nil {
		return nil, fmt.Errorf("error checking override capability: %w", err)
	}
	if !override {
		governing, err := e.caps.HasCapability(ctx, ticket.GuildID, actorID, GoverningCapability(ticket.TicketType))
		if err != nil {
			return nil, fmt.Errorf("error checking governing capability: %w", err)
		}
		if !governing {
			return nil, ErrNotAuthorized
		}
		if ticket.Claimed() && ticket.ClaimedBy != actorID {
			return nil, ErrNotAuthorized
		}
	}

	target, err := e.resolveParticipant(ctx, ticket.GuildID, targetRef)
	if err != nil {
		return nil, err
	}

	if err := e.participants.AddParticipant(ctx, channelID, target.ID); err != nil {
		return nil, fmt.Errorf("error adding participant: %w", err)
	}

	e.applyPerms(ctx, "add_participant", channelID, []permsync.Change{
		{Subject: target.ID, Type: permsync.SubjectMember, View: true, Send: true, History: true},
	})

	e.notify.Notify(ctx, Event{Kind: EventParticipantAdded, Ticket: ticket, ActorID: actorID, TargetID: target.ID})
	e.logAction(ctx, "add_participant", ticket, actorID)
	return target, nil
}

// resolveParticipant resolves by ID or mention first, then falls back to the
// first member whose username contains the query.
func (e *Engine) resolveParticipant(ctx context.Context, guildID, ref string) (*Member, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrTargetNotFound
	}

	var m *Member
	var err error
	if isNumericRef(ref) {
		m, err = e.dir.MemberByID(ctx, guildID, stripMention(ref))
	} else {
		m, err = e.dir.MemberContaining(ctx, guildID, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving participant: %w", err)
	}
	if m == nil {
		return nil, ErrTargetNotFound
	}
	return m, nil
}

// CloseResult is the immediate acknowledgement of a Close. The actual
// deletion runs after Delay.
type CloseResult struct {
	Action *CloseAction
	Delay  time.Duration
}

// Close schedules removal of the ticket and its channel after the grace
// delay. Permitted for the governing role, the creator, or an override
// identity. The delayed work deletes the ticket and participant rows first
// and then the channel; a failed channel delete is swallowed and recorded as
// failed-orphaned.
func (e *Engine) Close(ctx context.Context, channelID, actorID string) (*CloseResult, error) {
	ticket, err := e.getTicket(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if err := e.requireCloser(ctx, ticket, actorID); err != nil {
		return nil, err
	}

	set, err := e.settings.GetSettings(ctx, ticket.GuildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild settings: %w", err)
	}

	participants, err := e.participants.ListParticipants(ctx, channelID)
	if err != nil {
		e.l.Error("Error listing participants", slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, channelID))
	}

	e.notify.Notify(ctx, Event{
		Kind: EventCloseScheduled, Ticket: ticket, Settings: set,
		ActorID: actorID, Participants: len(participants),
	})

	action := e.closes.schedule(channelID, e.closeDelay, func(a *CloseAction) {
		e.performClose(a, ticket, set, actorID, len(participants))
	})

	e.logAction(ctx, "close_scheduled", ticket, actorID)
	return &CloseResult{Action: action, Delay: e.closeDelay}, nil
}

// performClose runs after the grace delay. It uses a fresh context: the
// triggering request has long been answered.
func (e *Engine) performClose(a *CloseAction, ticket *entities.Ticket, set *entities.GuildSettings, actorID string, participants int) {
	ctx := context.Background()

	// Store cleanup first. Deleting the row before the channel means a
	// failed channel delete leaves an orphaned channel, never orphaned state.
	if err := e.tickets.DeleteTicket(ctx, a.ChannelID); err != nil {
		e.l.Error("Error deleting ticket rows", slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, a.ChannelID),
			slog.String("close_action", a.ID),
		)
	}

	if err := e.channels.DeleteChannel(ctx, a.ChannelID); err != nil {
		a.setStatus(CloseFailedOrphaned)
		delErr := &ChannelDeleteError{Err: err}
		e.l.Error("Ticket channel could not be deleted, leaving it orphaned",
			slog.String(logging.KeyError, delErr.Error()),
			slog.String(logging.KeyChannel, a.ChannelID),
			slog.String("close_action", a.ID),
		)
		return
	}

	a.setStatus(CloseExecuted)
	e.notify.Notify(ctx, Event{
		Kind: EventClosed, Ticket: ticket, Settings: set,
		ActorID: actorID, Participants: participants,
	})
	e.logAction(ctx, "close_executed", ticket, actorID)
}

// CloseStatus returns the status of the most recent close action for the
// channel.
func (e *Engine) CloseStatus(channelID string) (CloseStatus, bool) {
	a, ok := e.closes.action(channelID)
	if !ok {
		return "", false
	}
	return a.Status(), true
}

func (e *Engine) getTicket(ctx context.Context, channelID string) (*entities.Ticket, error) {
	ticket, err := e.tickets.GetTicket(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

// requireGoverning requires the governing capability for the ticket's type
// or an override identity.
func (e *Engine) requireGoverning(ctx context.Context, ticket *entities.Ticket, actorID string) error {
	ok, err := e.caps.HasCapability(ctx, ticket.GuildID, actorID, GoverningCapability(ticket.TicketType))
	if err != nil {
		return fmt.Errorf("error checking governing capability: %w", err)
	}
	if ok {
		return nil
	}

	override, err := e.caps.HasCapability(ctx, ticket.GuildID, actorID, CapabilityOverride)
	if err != nil {
		return fmt.Errorf("error checking override capability: %w", err)
	}
	if !override {
		return ErrNotAuthorized
	}
	return nil
}

// requireCloser permits the governing role, the ticket creator, or an
// override identity.
func (e *Engine) requireCloser(ctx context.Context, ticket *entities.Ticket, actorID string) error {
	if actorID == ticket.CreatorID {
		return nil
	}
	return e.requireGoverning(ctx, ticket, actorID)
}

// applyPerms applies ACL changes after the store write. Failures are logged,
// not retried, and never fail the operation.
func (e *Engine) applyPerms(ctx context.Context, action, channelID string, changes []permsync.Change) {
	if err := e.perms.Apply(ctx, channelID, changes); err != nil {
		e.l.Error("Error syncing channel permissions",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyAction, action),
			slog.String(logging.KeyChannel, channelID),
		)
	}
}

func (e *Engine) logAction(_ context.Context, action string, ticket *entities.Ticket, actorID string) {
	e.l.Info("Ticket action",
		slog.String(logging.KeyAction, action),
		slog.String(logging.KeyChannel, ticket.ChannelID),
		slog.String(logging.KeyGuild, ticket.GuildID),
		slog.String(logging.KeyUser, actorID),
		slog.String("ticket_type", string(ticket.TicketType)),
	)
}

// isNumericRef reports whether the reference is a raw ID or a user mention.
func isNumericRef(ref string) bool {
	stripped := stripMention(ref)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stripMention removes mention decorations, turning "<@!123>" into "123".
func stripMention(ref string) string {
	return strings.Trim(ref, "<@!>")
}
