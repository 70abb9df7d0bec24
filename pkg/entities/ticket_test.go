package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTicketName(t *testing.T) {
	tests := []struct {
		name   string
		ticket Ticket
		want   string
	}{
		{
			name:   "MainTicket",
			ticket: Ticket{TicketType: TicketTypeMain, CreatorName: "Wolfie"},
			want:   "mm-wolfie",
		},
		{
			name:   "SupportTicket",
			ticket: Ticket{TicketType: TicketTypeSupport, CreatorName: "some user!"},
			want:   "support-someuser",
		},
		{
			name:   "ReportTicket",
			ticket: Ticket{TicketType: TicketTypeReport, CreatorName: "abc123"},
			want:   "report-abc123",
		},
		{
			name:   "NameWithNoUsableRunes",
			ticket: Ticket{TicketType: TicketTypeMain, CreatorName: "!!!"},
			want:   "mm-ticket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.ticket.Name())
		})
	}
}

func TestGoverningRoleID(t *testing.T) {
	s := &GuildSettings{
		MiddlemanRoleID: "r-mm",
		StaffRoleID:     "r-staff",
	}

	require.Equal(t, "r-mm", s.GoverningRoleID(TicketTypeMain))
	require.Equal(t, "r-staff", s.GoverningRoleID(TicketTypeSupport))
	require.Equal(t, "r-staff", s.GoverningRoleID(TicketTypeReport))

	var unset *GuildSettings
	require.Empty(t, unset.GoverningRoleID(TicketTypeMain))
}

func TestCategoryID(t *testing.T) {
	s := &GuildSettings{
		MainCategoryID:    "c-main",
		SupportCategoryID: "c-support",
	}

	require.Equal(t, "c-main", s.CategoryID(TicketTypeMain))
	require.Equal(t, "c-support", s.CategoryID(TicketTypeSupport))
	require.Equal(t, "c-support", s.CategoryID(TicketTypeReport))
}
