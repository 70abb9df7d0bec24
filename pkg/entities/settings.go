package entities

// GuildSettings is the per-guild configuration. It is created lazily the
// first time a configuration command runs and is never deleted; every field
// apart from the guild ID is optional until an administrator sets it.
type GuildSettings struct {
	// GuildID is the ID of the guild the settings belong to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// MiddlemanRoleID is the role that governs main (trade) tickets.
	MiddlemanRoleID string `json:"middleman_role_id" bson:"middleman_role_id"`

	// StaffRoleID is the role that governs support and report tickets.
	StaffRoleID string `json:"staff_role_id" bson:"staff_role_id"`

	// LogChannelID is the channel that ticket events are logged to.
	LogChannelID string `json:"log_channel_id" bson:"log_channel_id"`

	// MainCategoryID is the parent category for main tickets.
	MainCategoryID string `json:"main_category_id" bson:"main_category_id"`

	// SupportCategoryID is the parent category for support and report tickets.
	SupportCategoryID string `json:"support_category_id" bson:"support_category_id"`
}

// GoverningRoleID returns the role that governs claim and close authorization
// for tickets of the given type. The choice always follows the ticket's own
// type, never the shape of the current configuration.
func (s *GuildSettings) GoverningRoleID(t TicketType) string {
	if s == nil {
		return ""
	}
	if t == TicketTypeMain {
		return s.MiddlemanRoleID
	}
	return s.StaffRoleID
}

// CategoryID returns the parent category configured for tickets of the given
// type. An empty return means the category is unconfigured.
func (s *GuildSettings) CategoryID(t TicketType) string {
	if s == nil {
		return ""
	}
	if t == TicketTypeMain {
		return s.MainCategoryID
	}
	return s.SupportCategoryID
}
