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
)

const ticketDalName = "ticket_dal"

type TicketDal interface {
	// InsertTicket inserts a new ticket row.
	InsertTicket(ctx context.Context, ticket *entities.Ticket) error

	// GetTicket gets the ticket for a channel. It returns (nil, nil) when the
	// channel is not a ticket channel.
	GetTicket(ctx context.Context, channelID string) (*entities.Ticket, error)

	// ClaimTicket sets the claimant if, and only if, the ticket is currently
	// unclaimed. It reports whether the claim was won; a false return with a
	// nil error means another claimant got there first.
	ClaimTicket(ctx context.Context, channelID, userID string) (bool, error)

	// UnclaimTicket clears the claimant.
	UnclaimTicket(ctx context.Context, channelID string) error

	// TransferTicket hands the claim to another user.
	TransferTicket(ctx context.Context, channelID, userID string) error

	// SetWelcomeMessage records the ID of the welcome message for a ticket.
	SetWelcomeMessage(ctx context.Context, channelID, messageID string) error

	// DeleteTicket removes the ticket row together with all of its
	// participant rows. Participant rows are removed first.
	DeleteTicket(ctx context.Context, channelID string) error
}

type ticketDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal() TicketDal {
	l := slog.Default().With(slog.String(logging.KeyDal, ticketDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *ticketDalImpl) InsertTicket(ctx context.Context, ticket *entities.Ticket) error {
	collection := d.client.Database(mongoDatabase).Collection(collectionTickets)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "insert_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "insert_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	if _, err := collection.InsertOne(ctx, ticket); err != nil {
		return fmt.Errorf("error inserting ticket: %w", err)
	}
	return nil
}

func (d *ticketDalImpl) GetTicket(ctx context.Context, channelID string) (*entities.Ticket, error) {
	collection := d.client.Database(mongoDatabase).Collection(collectionTickets)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := collection.FindOne(ctx, bson.M{"channel_id": channelID}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDalImpl) ClaimTicket(ctx context.Context, channelID, userID string) (bool, error) {
	collection := d.client.Database(mongoDatabase).Collection(collectionTickets)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "claim_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "claim_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	// The filter on claimed_by makes the claim a conditional update: when two
	// claims race, exactly one matches the unclaimed row and wins.
	res, err := collection.UpdateOne(ctx,
		bson.M{"channel_id": channelID, "claimed_by": ""},
		bson.M{"$set": bson.M{"claimed_by": userID}},
	)
	if err != nil {
		return false, fmt.Errorf("error claiming ticket: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (d *ticketDalImpl) UnclaimTicket(ctx context.Context, channelID string) error {
	return d.setClaimant(ctx, "unclaim_ticket", channelID, "")
}

func (d *ticketDalImpl) TransferTicket(ctx context.Context, channelID, userID string) error {
	return d.setClaimant(ctx, "transfer_ticket", channelID, userID)
}

func (d *ticketDalImpl) setClaimant(ctx context.Context, query, channelID, userID string) error {
	collection := d.client.Database(mongoDatabase).Collection(collectionTickets)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, query, mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, query, mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	_, err := collection.UpdateOne(ctx,
		bson.M{"channel_id": channelID},
		bson.M{"$set": bson.M{"claimed_by": userID}},
	)
	if err != nil {
		return fmt.Errorf("error updating claimant: %w", err)
	}
	return nil
}

func (d *ticketDalImpl) SetWelcomeMessage(ctx context.Context, channelID, messageID string) error {
	collection := d.client.Database(mongoDatabase).Collection(collectionTickets)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "set_welcome_message", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "set_welcome_message", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	_, err := collection.UpdateOne(ctx,
		bson.M{"channel_id": channelID},
		bson.M{"$set": bson.M{"welcome_message_id": messageID}},
	)
	if err != nil {
		return fmt.Errorf("error setting welcome message: %w", err)
	}
	return nil
}

func (d *ticketDalImpl) DeleteTicket(ctx context.Context, channelID string) error {
	users := d.client.Database(mongoDatabase).Collection(collectionTicketUsers)
	tickets := d.client.Database(mongoDatabase).Collection(collectionTickets)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "delete_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "delete_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	if _, err := users.DeleteMany(ctx, bson.M{"channel_id": channelID}); err != nil {
		return fmt.Errorf("error deleting ticket participants: %w", err)
	}
	if _, err := tickets.DeleteOne(ctx, bson.M{"channel_id": channelID}); err != nil {
		return fmt.Errorf("error deleting ticket: %w", err)
	}
	return nil
}
