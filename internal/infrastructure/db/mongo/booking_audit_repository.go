package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

const collectionBookingStatusEvents = "booking_status_events"

// BookingAuditRepository appends admin status changes to an audit collection.
type BookingAuditRepository struct {
	db *mongo.Database
}

func NewBookingAuditRepository(db *mongo.Database) *BookingAuditRepository {
	return &BookingAuditRepository{db: db}
}

// InsertStatusEvent persists a status change to the booking_status_events collection.
func (r *BookingAuditRepository) InsertStatusEvent(ctx context.Context, event *domain.BookingStatusEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"booking_id":  event.BookingID,
		"from":        string(event.From),
		"to":          string(event.To),
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.ActorID != "" {
		doc["actor_id"] = event.ActorID
	}

	_, err := r.db.Collection(collectionBookingStatusEvents).InsertOne(ctx, doc)
	return err
}
