package permsync

import (
	"context"
	"errors"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/logging"
	"github.com/stretchr/testify/require"
)

type recordedEdit struct {
	channelID string
	subjectID string
	kind      SubjectType
	allow     int64
	deny      int64
	removed   bool
}

type fakeEditor struct {
	edits []recordedEdit
	err   error
}

func (f *fakeEditor) SetOverwrite(channelID, subjectID string, subjectType SubjectType, allow, deny int64) error {
	if f.err != nil {
		return f.err
	}
	f.edits = append(f.edits, recordedEdit{
		channelID: channelID,
		subjectID: subjectID,
		kind:      subjectType,
		allow:     allow,
		deny:      deny,
	})
	return nil
}

func (f *fakeEditor) DeleteOverwrite(channelID, subjectID string) error {
	if f.err != nil {
		return f.err
	}
	f.edits = append(f.edits, recordedEdit{
		channelID: channelID,
		subjectID: subjectID,
		removed:   true,
	})
	return nil
}

func newTestSync(t *testing.T, ed Editor) *Sync {
	t.Helper()
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err)
	return New(ed, l)
}

func TestApplyRoleEditsBeforeMemberEdits(t *testing.T) {
	ed := new(fakeEditor)
	s := newTestSync(t, ed)

	changes := []Change{
		{Subject: "member-1", Type: SubjectMember, View: true, Send: true, History: true},
		{Subject: "role-1", Type: SubjectRole, View: true, History: true},
		{Subject: "member-2", Type: SubjectMember, View: true, History: true},
		{Subject: "role-2", Type: SubjectRole, View: true, Send: true, History: true},
	}

	require.NoError(t, s.Apply(context.Background(), "chan-1", changes))
	require.Len(t, ed.edits, 4)

	// Roles first, then members, each keeping their relative order.
	require.Equal(t, "role-1", ed.edits[0].subjectID)
	require.Equal(t, "role-2", ed.edits[1].subjectID)
	require.Equal(t, "member-1", ed.edits[2].subjectID)
	require.Equal(t, "member-2", ed.edits[3].subjectID)
}

func TestApplyBitmasks(t *testing.T) {
	ed := new(fakeEditor)
	s := newTestSync(t, ed)

	// Claimed-role shape: view and history allowed, send denied.
	require.NoError(t, s.Apply(context.Background(), "chan-1", []Change{
		{Subject: "role-1", Type: SubjectRole, View: true, History: true},
	}))

	require.Len(t, ed.edits, 1)
	got := ed.edits[0]
	require.EqualValues(t, discordgo.PermissionViewChannel|discordgo.PermissionReadMessageHistory, got.allow)
	require.EqualValues(t, discordgo.PermissionSendMessages, got.deny)
}

func TestApplyManageBit(t *testing.T) {
	ed := new(fakeEditor)
	s := newTestSync(t, ed)

	require.NoError(t, s.Apply(context.Background(), "chan-1", []Change{
		{Subject: "bot", Type: SubjectMember, View: true, Send: true, History: true, Manage: true},
	}))

	require.Len(t, ed.edits, 1)
	require.EqualValues(t,
		discordgo.PermissionViewChannel|
			discordgo.PermissionSendMessages|
			discordgo.PermissionReadMessageHistory|
			discordgo.PermissionManageChannels,
		ed.edits[0].allow,
	)
	require.Zero(t, ed.edits[0].deny)
}

func TestApplyRemove(t *testing.T) {
	ed := new(fakeEditor)
	s := newTestSync(t, ed)

	require.NoError(t, s.Apply(context.Background(), "chan-1", []Change{
		{Subject: "member-1", Type: SubjectMember, Remove: true},
	}))

	require.Len(t, ed.edits, 1)
	require.True(t, ed.edits[0].removed)
}

func TestApplyStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	ed := &fakeEditor{err: boom}
	s := newTestSync(t, ed)

	err := s.Apply(context.Background(), "chan-1", []Change{
		{Subject: "role-1", Type: SubjectRole, View: true},
		{Subject: "member-1", Type: SubjectMember, View: true},
	})
	require.ErrorIs(t, err, boom)
	require.Empty(t, ed.edits)
}
