package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/dataaccess/monitoring"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/entities"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const settingsDalName = "settings_dal"

// Settings field names. Configuration commands upsert one field at a time; a
// guild's settings document is created on the first Set call.
const (
	SettingsFieldMiddlemanRole   = "middleman_role_id"
	SettingsFieldStaffRole       = "staff_role_id"
	SettingsFieldLogChannel      = "log_channel_id"
	SettingsFieldMainCategory    = "main_category_id"
	SettingsFieldSupportCategory = "support_category_id"
)

type SettingsDal interface {
	// GetSettings gets the settings for a guild. It returns (nil, nil) when
	// the guild has never been configured.
	GetSettings(ctx context.Context, guildID string) (*entities.GuildSettings, error)

	// SetField upserts a single settings field for a guild.
	SetField(ctx context.Context, guildID, field, value string) error
}

type settingsDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewSettingsDal creates a new settings data access layer.
func NewSettingsDal() SettingsDal {
	l := slog.Default().With(slog.String(logging.KeyDal, settingsDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &settingsDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *settingsDalImpl) GetSettings(ctx context.Context, guildID string) (*entities.GuildSettings, error) {
	collection := d.client.Database(mongoDatabase).Collection(collectionSettings)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(settingsDalName, "get_settings", mongoDatabase, collectionSettings).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(settingsDalName, "get_settings", mongoDatabase, collectionSettings))
	defer t.ObserveDuration()

	settings := new(entities.GuildSettings)
	err := collection.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// The guild was never configured. Not an error.
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting settings: %w", err)
	}
	return settings, nil
}

func (d *settingsDalImpl) SetField(ctx context.Context, guildID, field, value string) error {
	collection := d.client.Database(mongoDatabase).Collection(collectionSettings)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(settingsDalName, "set_field", mongoDatabase, collectionSettings).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(settingsDalName, "set_field", mongoDatabase, collectionSettings))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx,
		bson.M{"guild_id": guildID},
		bson.M{"$set": bson.M{field: value}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error updating settings field %s: %w", field, err)
	}
	return nil
}
