package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) CreateRegistration(ctx context.Context, registration model.Registration) (model.Registration, error) {
	uid, ok := objectID(registration.UserID)
	if !ok {
		return model.Registration{}, ErrUserNotFound
	}
	eid, ok := objectID(registration.EventID)
	if !ok {
		return model.Registration{}, ErrEventNotFound
	}

	doc := registrationDB{
		ID:           primitive.NewObjectID(),
		UserID:       uid,
		EventID:      eid,
		Status:       string(model.RegistrationActive),
		RegisteredAt: r.nowFunc(),
	}
	if _, err := r.registrations.InsertOne(ctx, doc); err != nil {
		// The partial unique index on active (user_id, event_id) pairs rejects
		// a second active registration.
		if mongo.IsDuplicateKeyError(err) {
			return model.Registration{}, ErrAlreadyRegistered
		}
		return model.Registration{}, fmt.Errorf("failed to insert registration: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) CancelRegistration(ctx context.Context, userID, eventID string, at time.Time) (model.Registration, error) {
	uid, ok := objectID(userID)
	if !ok {
		return model.Registration{}, ErrRegistrationNotFound
	}
	eid, ok := objectID(eventID)
	if !ok {
		return model.Registration{}, ErrRegistrationNotFound
	}

	filter := bson.M{"user_id": uid, "event_id": eid, "status": string(model.RegistrationActive)}
	update := bson.M{"$set": bson.M{"status": string(model.RegistrationCancelled), "cancelled_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc registrationDB
	if err := r.registrations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Registration{}, ErrRegistrationNotFound
		}
		return model.Registration{}, fmt.Errorf("failed to cancel registration: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) GetActiveRegistration(ctx context.Context, userID, eventID string) (model.Registration, error) {
	uid, ok := objectID(userID)
	if !ok {
		return model.Registration{}, ErrRegistrationNotFound
	}
	eid, ok := objectID(eventID)
	if !ok {
		return model.Registration{}, ErrRegistrationNotFound
	}

	var doc registrationDB
	filter := bson.M{"user_id": uid, "event_id": eid, "status": string(model.RegistrationActive)}
	if err := r.registrations.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Registration{}, ErrRegistrationNotFound
		}
		return model.Registration{}, fmt.Errorf("failed to find registration: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) ListRegistrationsByUser(ctx context.Context, userID string) ([]model.RegistrationDetail, error) {
	uid, ok := objectID(userID)
	if !ok {
		return []model.RegistrationDetail{}, nil
	}
	return r.aggregateRegistrations(ctx, bson.M{"user_id": uid}, false, true)
}

func (r *MongoRepository) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error) {
	eid, ok := objectID(eventID)
	if !ok {
		return []model.RegistrationDetail{}, nil
	}
	return r.aggregateRegistrations(ctx, bson.M{"event_id": eid}, true, false)
}

func (r *MongoRepository) ListRegistrations(ctx context.Context) ([]model.RegistrationDetail, error) {
	return r.aggregateRegistrations(ctx, bson.M{}, true, true)
}

// aggregateRegistrations runs a newest-first $lookup join. A dangling
// reference yields an empty joined array rather than dropping the row.
func (r *MongoRepository) aggregateRegistrations(ctx context.Context, match bson.M, withUser, withEvent bool) ([]model.RegistrationDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "registered_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if withUser {
		pipeline = append(pipeline, lookupStage(usersCollection, "user_id", "user"))
	}
	if withEvent {
		pipeline = append(pipeline, lookupStage(eventsCollection, "event_id", "event"))
	}

	cursor, err := r.registrations.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate registrations: %w", err)
	}
	var docs []registrationJoinDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode registrations: %w", err)
	}

	out := make([]model.RegistrationDetail, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *MongoRepository) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	uid, ok := objectID(review.UserID)
	if !ok {
		return model.Review{}, ErrUserNotFound
	}
	eid, ok := objectID(review.EventID)
	if !ok {
		return model.Review{}, ErrEventNotFound
	}

	doc := reviewDB{
		ID:        primitive.NewObjectID(),
		UserID:    uid,
		EventID:   eid,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: r.nowFunc(),
	}
	if _, err := r.reviews.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Review{}, ErrAlreadyReviewed
		}
		return model.Review{}, fmt.Errorf("failed to insert review: %w", err)
	}

	created := doc.toModel()
	created.AuthorName = review.AuthorName
	return created, nil
}

func (r *MongoRepository) ListReviewsByEvent(ctx context.Context, eventID string) ([]model.Review, error) {
	eid, ok := objectID(eventID)
	if !ok {
		return []model.Review{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"event_id": eid}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		lookupStage(usersCollection, "user_id", "author"),
	}
	cursor, err := r.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	var docs []reviewDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	reviews := make([]model.Review, 0, len(docs))
	for _, d := range docs {
		reviews = append(reviews, d.toModel())
	}
	return reviews, nil
}
