package dataaccess

import (
	"context"
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

const participantDalName = "participant_dal"

type ParticipantDal interface {
	// AddParticipant records that a user was granted access to a ticket.
	// Adding the same user twice is a no-op, not an error.
	AddParticipant(ctx context.Context, channelID, userID string) error

	// ListParticipants returns the user IDs granted access to a ticket.
	ListParticipants(ctx context.Context, channelID string) ([]string, error)
}

type participantDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewParticipantDal creates a new participant data access layer.
func NewParticipantDal() ParticipantDal {
	l := slog.Default().With(slog.String(logging.KeyDal, participantDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &participantDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *participantDalImpl) AddParticipant(ctx context.Context, channelID, userID string) error {
	collection := d.client.Database(mongoDatabase).Collection(collectionTicketUsers)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(participantDalName, "add_participant", mongoDatabase, collectionTicketUsers).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(participantDalName, "add_participant", mongoDatabase, collectionTicketUsers))
	defer t.ObserveDuration()

	// Upsert on the composite key keeps the insert idempotent.
	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx,
		bson.M{"channel_id": channelID, "user_id": userID},
		bson.M{"$setOnInsert": &entities.TicketParticipant{ChannelID: channelID, UserID: userID}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error adding participant: %w", err)
	}
	return nil
}

func (d *participantDalImpl) ListParticipants(ctx context.Context, channelID string) ([]string, error) {
	collection := d.client.Database(mongoDatabase).Collection(collectionTicketUsers)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(participantDalName, "list_participants", mongoDatabase, collectionTicketUsers).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(participantDalName, "list_participants", mongoDatabase, collectionTicketUsers))
	defer t.ObserveDuration()

	cursor, err := collection.Find(ctx, bson.M{"channel_id": channelID})
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			d.l.Error("Error closing cursor", slog.String(logging.KeyError, err.Error()))
		}
	}()

	var rows []entities.TicketParticipant
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding participants: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return ids, nil
}
