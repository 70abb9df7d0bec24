// Package permsync translates desired channel access into permission
// overwrite edits on the chat platform. It never originates business
// decisions; the lifecycle engine decides what a subject may do and permsync
// only applies it.
package permsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/logging"
	"golang.org/x/time/rate"
)

// SubjectType is the kind of subject a change applies to.
type SubjectType string

const (
	// SubjectRole targets a role overwrite.
	SubjectRole SubjectType = "role"

	// SubjectMember targets a per-user overwrite.
	SubjectMember SubjectType = "member"
)

// Change is a desired access state for one subject on one channel. The three
// booleans map onto view/send/history: true becomes an allow bit and false a
// deny bit. Remove drops the subject's overwrite entirely instead.
type Change struct {
	// Subject is the role or user ID.
	Subject string

	// Type is the kind of subject.
	Type SubjectType

	// View allows or denies seeing the channel.
	View bool

	// Send allows or denies sending messages.
	Send bool

	// History allows or denies reading message history.
	History bool

	// Manage additionally allows managing the channel. Only ever set for the
	// bot itself.
	Manage bool

	// Remove deletes the subject's overwrite, falling the subject back to
	// role-derived permissions.
	Remove bool
}

// Allow returns the allow bitmask for the change.
func (c Change) Allow() int64 {
	var allow int64
	if c.View {
		allow |= discordgo.PermissionViewChannel
	}
	if c.Send {
		allow |= discordgo.PermissionSendMessages
	}
	if c.History {
		allow |= discordgo.PermissionReadMessageHistory
	}
	if c.Manage {
		allow |= discordgo.PermissionManageChannels
	}
	return allow
}

// Deny returns the deny bitmask for the change.
func (c Change) Deny() int64 {
	var deny int64
	if !c.View {
		deny |= discordgo.PermissionViewChannel
	}
	if !c.Send {
		deny |= discordgo.PermissionSendMessages
	}
	if !c.History {
		deny |= discordgo.PermissionReadMessageHistory
	}
	return deny
}

// Editor issues single overwrite edits against the platform.
type Editor interface {
	// SetOverwrite creates or replaces the overwrite for a subject.
	SetOverwrite(channelID, subjectID string, subjectType SubjectType, allow, deny int64) error

	// DeleteOverwrite removes the overwrite for a subject.
	DeleteOverwrite(channelID, subjectID string) error
}

// Sync applies sets of changes in a deterministic order: role edits before
// member edits, otherwise in the order given. A member grant issued after the
// governing role edit can therefore never be clobbered by it.
type Sync struct {
	// ed issues the edits.
	ed Editor

	// limiter paces overwrite edits against the platform rate limit.
	limiter *rate.Limiter

	// l is the logger.
	l *slog.Logger
}

// New creates a new synchronizer around the given editor.
func New(ed Editor, l *slog.Logger) *Sync {
	return &Sync{
		ed:      ed,
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 5),
		l:       l.With(slog.String("component", "permsync")),
	}
}

// Apply issues the edits for all changes on the channel. Edits run
// sequentially; the first failure aborts the rest.
func (s *Sync) Apply(ctx context.Context, channelID string, changes []Change) error {
	for _, c := range ordered(changes) {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("error waiting for rate limiter: %w", err)
		}

		if err := s.apply(channelID, c); err != nil {
			return fmt.Errorf("error applying %s overwrite for %s: %w", c.Type, c.Subject, err)
		}

		s.l.Debug("Applied permission change",
			slog.String(logging.KeyChannel, channelID),
			slog.String("subject", c.Subject),
			slog.String("subject_type", string(c.Type)),
			slog.Bool("remove", c.Remove),
		)
	}
	return nil
}

func (s *Sync) apply(channelID string, c Change) error {
	if c.Remove {
		return s.ed.DeleteOverwrite(channelID, c.Subject)
	}
	return s.ed.SetOverwrite(channelID, c.Subject, c.Type, c.Allow(), c.Deny())
}

// ordered returns the changes with role subjects first. The partition is
// stable.
func ordered(changes []Change) []Change {
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if c.Type == SubjectRole {
			out = append(out, c)
		}
	}
	for _, c := range changes {
		if c.Type != SubjectRole {
			out = append(out, c)
		}
	}
	return out
}
