package ticketing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/entities"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/permsync"
)

type fakeStore struct {
	mu           sync.Mutex
	settings     map[string]*entities.GuildSettings
	tickets      map[string]*entities.Ticket
	participants map[string]map[string]struct{}

	insertErr       error
	deleteTicketErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings:     make(map[string]*entities.GuildSettings),
		tickets:      make(map[string]*entities.Ticket),
		participants: make(map[string]map[string]struct{}),
	}
}

func (s *fakeStore) GetSettings(_ context.Context, guildID string) (*entities.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[guildID], nil
}

func (s *fakeStore) InsertTicket(_ context.Context, t *entities.Ticket) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tickets[t.ChannelID] = &cp
	return nil
}

func (s *fakeStore) GetTicket(_ context.Context, channelID string) (*entities.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[channelID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) ClaimTicket(_ context.Context, channelID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[channelID]
	if !ok || t.ClaimedBy != "" {
		return false, nil
	}
	t.ClaimedBy = userID
	return true, nil
}

func (s *fakeStore) UnclaimTicket(_ context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[channelID]; ok {
		t.ClaimedBy = ""
	}
	return nil
}

func (s *fakeStore) TransferTicket(_ context.Context, channelID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[channelID]; ok {
		t.ClaimedBy = userID
	}
	return nil
}

func (s *fakeStore) SetWelcomeMessage(_ context.Context, channelID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[channelID]; ok {
		t.WelcomeMessageID = messageID
	}
	return nil
}

func (s *fakeStore) DeleteTicket(_ context.Context, channelID string) error {
	if s.deleteTicketErr != nil {
		return s.deleteTicketErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, channelID)
	delete(s.tickets, channelID)
	return nil
}

func (s *fakeStore) AddParticipant(_ context.Context, channelID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.participants[channelID] == nil {
		s.participants[channelID] = make(map[string]struct{})
	}
	s.participants[channelID][userID] = struct{}{}
	return nil
}

func (s *fakeStore) ListParticipants(_ context.Context, channelID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.participants[channelID]))
	for u := range s.participants[channelID] {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeStore) ticket(channelID string) *entities.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets[channelID]
}

type createdChannel struct {
	guildID string
	params  ChannelCreateParams
}

type fakeChannels struct {
	mu        sync.Mutex
	created   []createdChannel
	deleted   []string
	createErr error
	deleteErr error
}

func (c *fakeChannels) CreateChannel(_ context.Context, guildID string, p ChannelCreateParams) (string, error) {
	if c.createErr != nil {
		return "", c.createErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, createdChannel{guildID: guildID, params: p})
	return fmt.Sprintf("chan-%d", len(c.created)), nil
}

func (c *fakeChannels) DeleteChannel(_ context.Context, channelID string) error {
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, channelID)
	return nil
}

type appliedChanges struct {
	channelID string
	changes   []permsync.Change
}

type fakePerms struct {
	mu      sync.Mutex
	applied []appliedChanges
}

func (p *fakePerms) Apply(_ context.Context, channelID string, changes []permsync.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applied = append(p.applied, appliedChanges{channelID: channelID, changes: changes})
	return nil
}

func (p *fakePerms) last(t *testing.T) appliedChanges {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.applied)
	return p.applied[len(p.applied)-1]
}

type fakeCaps struct {
	grants map[string]map[Capability]bool
}

func newFakeCaps() *fakeCaps {
	return &fakeCaps{grants: make(map[string]map[Capability]bool)}
}

func (c *fakeCaps) grant(userID string, caps ...Capability) {
	if c.grants[userID] == nil {
		c.grants[userID] = make(map[Capability]bool)
	}
	for _, g := range caps {
		c.grants[userID][g] = true
	}
}

func (c *fakeCaps) HasCapability(_ context.Context, _, userID string, g Capability) (bool, error) {
	return c.grants[userID][g], nil
}

type fakeDirectory struct {
	members []Member
}

func (d *fakeDirectory) MemberByID(_ context.Context, _, userID string) (*Member, error) {
	for _, m := range d.members {
		if m.ID == userID {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) MemberByName(_ context.Context, _, name string) (*Member, error) {
	for _, m := range d.members {
		if strings.EqualFold(m.Username, name) {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) MemberContaining(_ context.Context, _, query string) (*Member, error) {
	q := strings.ToLower(query)
	for _, m := range d.members {
		if strings.Contains(strings.ToLower(m.Username), q) {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	events     []Event
	welcomeID  string
	welcomeErr error
}

func (n *fakeNotifier) Welcome(_ context.Context, _ *entities.Ticket, _ *entities.GuildSettings, _ *Member) (string, error) {
	if n.welcomeErr != nil {
		return "", n.welcomeErr
	}
	if n.welcomeID == "" {
		return "welcome-1", nil
	}
	return n.welcomeID, nil
}

func (n *fakeNotifier) Notify(_ context.Context, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *fakeNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventKind, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Kind)
	}
	return out
}

type testRig struct {
	engine   *Engine
	store    *fakeStore
	channels *fakeChannels
	perms    *fakePerms
	caps     *fakeCaps
	dir      *fakeDirectory
	notify   *fakeNotifier
}

func newTestRig(opts ...func(*Config)) *testRig {
	r := &testRig{
		store:    newFakeStore(),
		channels: new(fakeChannels),
		perms:    new(fakePerms),
		caps:     newFakeCaps(),
		dir:      new(fakeDirectory),
		notify:   new(fakeNotifier),
	}
	r.store.settings["guild-1"] = &entities.GuildSettings{
		GuildID:           "guild-1",
		MiddlemanRoleID:   "role-mm",
		StaffRoleID:       "role-staff",
		LogChannelID:      "log-chan",
		MainCategoryID:    "cat-main",
		SupportCategoryID: "cat-support",
	}
	cfg := Config{
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Settings:     r.store,
		Tickets:      r.store,
		Participants: r.store,
		Channels:     r.channels,
		Perms:        r.perms,
		Capabilities: r.caps,
		Directory:    r.dir,
		Notifier:     r.notify,
		CloseDelay:   10 * time.Millisecond,
	}
	for _, o := range opts {
		o(&cfg)
	}
	r.engine = New(cfg)
	return r
}

func (r *testRig) createTicket(t *testing.T, typ entities.TicketType) *entities.Ticket {
	t.Helper()
	ticket, err := r.engine.Create(context.Background(), CreateParams{
		GuildID:     "guild-1",
		CreatorID:   "creator",
		CreatorName: "TraderOne",
		Type:        typ,
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicket(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.dir.members = []Member{{ID: "other-7", Username: "OtherGuy"}}

	ticket, err := r.engine.Create(context.Background(), CreateParams{
		GuildID:      "guild-1",
		CreatorID:    "creator",
		CreatorName:  "TraderOne",
		Type:         entities.TicketTypeMain,
		OtherUserRef: "otherguy",
		Description:  "Trading adopt me pets",
		Extra:        "yes",
	})
	require.NoError(t, err)

	assert.Equal(t, "chan-1", ticket.ChannelID)
	assert.Equal(t, "other-7", ticket.OtherUserID)
	assert.Equal(t, "welcome-1", ticket.WelcomeMessageID)

	stored := r.store.ticket("chan-1")
	require.NotNil(t, stored)
	assert.Equal(t, "creator", stored.CreatorID)
	assert.Equal(t, "welcome-1", stored.WelcomeMessageID)

	require.Len(t, r.channels.created, 1)
	created := r.channels.created[0]
	assert.Equal(t, "mm-traderone", created.params.Name)
	assert.Equal(t, "cat-main", created.params.ParentID)

	// Everyone denied, creator granted, middleman role granted.
	subjects := make([]string, 0, len(created.params.Overwrites))
	for _, ow := range created.params.Overwrites {
		subjects = append(subjects, ow.Subject)
	}
	assert.Equal(t, []string{"guild-1", "creator", "role-mm"}, subjects)

	assert.Equal(t, []EventKind{EventCreated}, r.notify.kinds())
}

func TestCreateUnresolvedOtherUserStoredVerbatim(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	ticket, err := r.engine.Create(context.Background(), CreateParams{
		GuildID:      "guild-1",
		CreatorID:    "creator",
		CreatorName:  "TraderOne",
		Type:         entities.TicketTypeMain,
		OtherUserRef: "someone#offplatform",
	})
	require.NoError(t, err)
	assert.Equal(t, "someone#offplatform", ticket.OtherUserID)
}

func TestCreateWithoutCategory(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.store.settings["guild-1"].SupportCategoryID = ""

	r.createTicket(t, entities.TicketTypeSupport)

	require.Len(t, r.channels.created, 1)
	assert.Empty(t, r.channels.created[0].params.ParentID)
}

func TestCreateChannelFailurePersistsNothing(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.channels.createErr = errors.New("missing permissions")

	_, err := r.engine.Create(context.Background(), CreateParams{
		GuildID:     "guild-1",
		CreatorID:   "creator",
		CreatorName: "TraderOne",
		Type:        entities.TicketTypeMain,
	})

	ccErr := new(ChannelCreateError)
	require.ErrorAs(t, err, &ccErr)
	assert.Empty(t, r.store.tickets)
}

func TestClaim(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	ticket := r.createTicket(t, entities.TicketTypeMain)

	claimed, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)
	assert.Equal(t, "mm-1", claimed.ClaimedBy)
	assert.Equal(t, "mm-1", r.store.ticket(ticket.ChannelID).ClaimedBy)

	// Role loses send, claimant gains an explicit grant, role edit first.
	applied := r.perms.last(t)
	require.Len(t, applied.changes, 2)
	role := applied.changes[0]
	assert.Equal(t, "role-mm", role.Subject)
	assert.Equal(t, permsync.SubjectRole, role.Type)
	assert.False(t, role.Send)
	member := applied.changes[1]
	assert.Equal(t, "mm-1", member.Subject)
	assert.True(t, member.Send)
}

func TestClaimRequiresGoverningRole(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "random")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Staff does not govern main tickets.
	r.caps.grant("staffer", CapabilityStaff)
	_, err = r.engine.Claim(context.Background(), ticket.ChannelID, "staffer")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestClaimRaceSingleWinner(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	ticket := r.createTicket(t, entities.TicketTypeMain)

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		r.caps.grant(fmt.Sprintf("mm-%d", i), CapabilityMiddleman)
	}
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.engine.Claim(context.Background(), ticket.ChannelID, fmt.Sprintf("mm-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		acErr := new(AlreadyClaimedError)
		require.ErrorAs(t, err, &acErr)
	}
	assert.Equal(t, 1, winners)
}

func TestClaimAlreadyClaimedReportsHolder(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.caps.grant("mm-2", CapabilityMiddleman)
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	_, err = r.engine.Claim(context.Background(), ticket.ChannelID, "mm-2")
	acErr := new(AlreadyClaimedError)
	require.ErrorAs(t, err, &acErr)
	assert.Equal(t, "mm-1", acErr.By)
}

func TestUnclaimRestoresRoleAndRemovesClaimantOverwrite(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	unclaimed, err := r.engine.Unclaim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)
	assert.Empty(t, unclaimed.ClaimedBy)
	assert.Empty(t, r.store.ticket(ticket.ChannelID).ClaimedBy)

	applied := r.perms.last(t)
	require.Len(t, applied.changes, 2)
	role := applied.changes[0]
	assert.Equal(t, "role-mm", role.Subject)
	assert.True(t, role.Send)
	member := applied.changes[1]
	assert.Equal(t, "mm-1", member.Subject)
	assert.True(t, member.Remove)
}

func TestUnclaimNotClaimed(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Unclaim(context.Background(), ticket.ChannelID, "mm-1")
	assert.ErrorIs(t, err, ErrNotClaimed)
}

func TestUnclaimOnlyClaimantOrOverride(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.caps.grant("mm-2", CapabilityMiddleman)
	r.caps.grant("owner", CapabilityOverride)
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	_, err = r.engine.Unclaim(context.Background(), ticket.ChannelID, "mm-2")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = r.engine.Unclaim(context.Background(), ticket.ChannelID, "owner")
	require.NoError(t, err)
}

func TestClaimUnclaimReclaim(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.caps.grant("mm-2", CapabilityMiddleman)
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)
	_, err = r.engine.Unclaim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	claimed, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-2")
	require.NoError(t, err)
	assert.Equal(t, "mm-2", claimed.ClaimedBy)
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.caps.grant("mm-2", CapabilityMiddleman)
	r.dir.members = []Member{{ID: "mm-2", Username: "SecondMM"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	transferred, err := r.engine.Transfer(context.Background(), ticket.ChannelID, "mm-1", "secondmm")
	require.NoError(t, err)
	assert.Equal(t, "mm-2", transferred.ClaimedBy)
	assert.Equal(t, "mm-2", r.store.ticket(ticket.ChannelID).ClaimedBy)

	applied := r.perms.last(t)
	require.Len(t, applied.changes, 3)
	assert.Equal(t, permsync.SubjectRole, applied.changes[0].Type)
	outgoing := applied.changes[1]
	assert.Equal(t, "mm-1", outgoing.Subject)
	assert.False(t, outgoing.Send)
	incoming := applied.changes[2]
	assert.Equal(t, "mm-2", incoming.Subject)
	assert.True(t, incoming.Send)
}

func TestTransferFromUnclaimed(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.dir.members = []Member{{ID: "mm-2", Username: "SecondMM"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Transfer(context.Background(), ticket.ChannelID, "mm-1", "secondmm")
	assert.ErrorIs(t, err, ErrNotClaimed)
}

func TestTransferToSelf(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.dir.members = []Member{{ID: "mm-1", Username: "FirstMM"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	// Self-transfer is rejected even while unclaimed.
	_, err := r.engine.Transfer(context.Background(), ticket.ChannelID, "mm-1", "firstmm")
	assert.ErrorIs(t, err, ErrSelfTransfer)

	_, err = r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)
	_, err = r.engine.Transfer(context.Background(), ticket.ChannelID, "mm-1", "firstmm")
	assert.ErrorIs(t, err, ErrSelfTransfer)
}

func TestTransferNoOverrideBypass(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.caps.grant("mm-2", CapabilityMiddleman)
	r.caps.grant("owner", CapabilityOverride)
	r.dir.members = []Member{{ID: "mm-2", Username: "SecondMM"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	// Only the claimant may transfer; override identities get no bypass.
	_, err = r.engine.Transfer(context.Background(), ticket.ChannelID, "owner", "secondmm")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestTransferTargetChecks(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.dir.members = []Member{{ID: "pleb", Username: "RegularUser"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	_, err = r.engine.Transfer(context.Background(), ticket.ChannelID, "mm-1", "nobody")
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, err = r.engine.Transfer(context.Background(), ticket.ChannelID, "mm-1", "regularuser")
	assert.ErrorIs(t, err, ErrTargetNotEligible)
}

func TestAddParticipant(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.dir.members = []Member{{ID: "friend", Username: "RoboKing"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	// Fuzzy username containment resolves the target.
	member, err := r.engine.AddParticipant(context.Background(), ticket.ChannelID, "mm-1", "obok")
	require.NoError(t, err)
	assert.Equal(t, "friend", member.ID)

	applied := r.perms.last(t)
	require.Len(t, applied.changes, 1)
	assert.Equal(t, "friend", applied.changes[0].Subject)
	assert.True(t, applied.changes[0].View)
	assert.True(t, applied.changes[0].Send)

	// Re-adding is idempotent.
	_, err = r.engine.AddParticipant(context.Background(), ticket.ChannelID, "mm-1", "friend")
	require.NoError(t, err)
	users, err := r.store.ListParticipants(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAddParticipantClaimedTicketClaimantOnly(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.caps.grant("mm-2", CapabilityMiddleman)
	r.caps.grant("owner", CapabilityOverride)
	r.dir.members = []Member{{ID: "friend", Username: "RoboKing"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	_, err = r.engine.AddParticipant(context.Background(), ticket.ChannelID, "mm-2", "friend")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Override identities bypass the claimant check.
	_, err = r.engine.AddParticipant(context.Background(), ticket.ChannelID, "owner", "friend")
	require.NoError(t, err)
}

func TestAddParticipantRequiresGoverningRole(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.dir.members = []Member{{ID: "friend", Username: "RoboKing"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.AddParticipant(context.Background(), ticket.ChannelID, "random", "friend")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAddParticipantTargetNotFound(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.AddParticipant(context.Background(), ticket.ChannelID, "mm-1", "nobody")
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestClose(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.dir.members = []Member{{ID: "friend", Username: "RoboKing"}}
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.AddParticipant(context.Background(), ticket.ChannelID, "mm-1", "friend")
	require.NoError(t, err)

	res, err := r.engine.Close(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)
	require.NotNil(t, res.Action)
	assert.Equal(t, ClosePending, res.Action.Status())

	require.Eventually(t, func() bool {
		return res.Action.Status() == CloseExecuted
	}, time.Second, 5*time.Millisecond)

	// Ticket and participant rows go together, then the channel.
	assert.Nil(t, r.store.ticket(ticket.ChannelID))
	users, err := r.store.ListParticipants(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Contains(t, r.channels.deleted, ticket.ChannelID)
}

func TestCloseByCreator(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Close(context.Background(), ticket.ChannelID, "creator")
	require.NoError(t, err)
}

func TestCloseByOverride(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	r.caps.grant("mm-1", CapabilityMiddleman)
	r.caps.grant("owner", CapabilityOverride)
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Claim(context.Background(), ticket.ChannelID, "mm-1")
	require.NoError(t, err)

	// The override identity may close regardless of claimant and creator.
	res, err := r.engine.Close(context.Background(), ticket.ChannelID, "owner")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return res.Action.Status() == CloseExecuted
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, r.store.ticket(ticket.ChannelID))
}

func TestCloseDeniedForOutsiders(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	ticket := r.createTicket(t, entities.TicketTypeMain)

	_, err := r.engine.Close(context.Background(), ticket.ChannelID, "random")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestCloseChannelDeleteFailureOrphans(t *testing.T) {
	t.Parallel()

	r := newTestRig()
	ticket := r.createTicket(t, entities.TicketTypeMain)
	r.channels.deleteErr = errors.New("unknown channel")

	res, err := r.engine.Close(context.Background(), ticket.ChannelID, "creator")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return res.Action.Status() == CloseFailedOrphaned
	}, time.Second, 5*time.Millisecond)

	// The row is gone even though the channel survived.
	assert.Nil(t, r.store.ticket(ticket.ChannelID))
}

func TestCloseReusesPendingAction(t *testing.T) {
	t.Parallel()

	r := newTestRig(func(cfg *Config) {
		cfg.CloseDelay = time.Minute
	})
	ticket := r.createTicket(t, entities.TicketTypeMain)

	first, err := r.engine.Close(context.Background(), ticket.ChannelID, "creator")
	require.NoError(t, err)
	second, err := r.engine.Close(context.Background(), ticket.ChannelID, "creator")
	require.NoError(t, err)

	assert.Equal(t, first.Action.ID, second.Action.ID)
}

func TestTicketNotFound(t *testing.T) {
	t.Parallel()

	r := newTestRig()

	_, err := r.engine.Claim(context.Background(), "no-such-channel", "mm-1")
	assert.ErrorIs(t, err, ErrTicketNotFound)
	_, err = r.engine.Close(context.Background(), "no-such-channel", "mm-1")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
