package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"eventhub/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) CreateEvent(ctx context.Context, event model.Event) (model.Event, error) {
	now := r.nowFunc()
	doc := eventDB{
		ID:           primitive.NewObjectID(),
		Title:        event.Title,
		Description:  event.Description,
		Category:     string(event.Category),
		StartsAt:     event.StartsAt,
		EndsAt:       event.EndsAt,
		Venue:        event.Venue,
		LocationText: event.LocationText,
		Latitude:     event.Latitude,
		Longitude:    event.Longitude,
		BannerURL:    event.BannerURL,
		Rules:        event.Rules,
		Requirements: event.Requirements,
		IsExternal:   event.IsExternal,
		ExternalURL:  event.ExternalURL,
		Source:       event.Source,
		ExternalID:   event.ExternalID,
		ExternalDate: event.ExternalDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.Source == "" {
		doc.Source = model.SourceLocal
	}
	if oid, ok := objectID(event.CreatedBy); ok {
		doc.CreatedBy = &oid
	}

	if _, err := r.events.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Event{}, ErrExternalIDExists
		}
		return model.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) GetEvent(ctx context.Context, id string) (model.Event, error) {
	oid, ok := objectID(id)
	if !ok {
		return model.Event{}, ErrEventNotFound
	}

	var doc eventDB
	if err := r.events.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("failed to find event: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) GetEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []model.Event{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}})
	cursor, err := r.events.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	return decodeEvents(ctx, cursor)
}

func (r *MongoRepository) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	filter = filter.Normalize()

	query := bson.M{}
	if filter.Category != "" {
		query["category"] = string(filter.Category)
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"location_text": pattern},
		}
	}
	if filter.Upcoming {
		query["starts_at"] = bson.M{"$gte": r.nowFunc()}
	}

	total, err := r.events.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.Limit))
	cursor, err := r.events.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	events, err := decodeEvents(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *MongoRepository) UpdateEvent(ctx context.Context, id string, update model.EventUpdate) (model.Event, error) {
	oid, ok := objectID(id)
	if !ok {
		return model.Event{}, ErrEventNotFound
	}

	set := bson.M{"updated_at": r.nowFunc()}
	unset := bson.M{}
	if update.Title.IsSet {
		set["title"] = update.Title.Val
	}
	if update.Description.IsSet {
		set["description"] = update.Description.Val
	}
	if update.Category.IsSet {
		set["category"] = string(update.Category.Val)
	}
	if update.StartsAt.IsSet {
		set["starts_at"] = update.StartsAt.Val
	}
	if update.EndsAt.IsSet {
		if update.EndsAt.Val == nil {
			unset["ends_at"] = ""
		} else {
			set["ends_at"] = *update.EndsAt.Val
		}
	}
	if update.Venue.IsSet {
		set["venue"] = update.Venue.Val
	}
	if update.LocationText.IsSet {
		set["location_text"] = update.LocationText.Val
	}
	if update.Latitude.IsSet {
		set["latitude"] = update.Latitude.Val
	}
	if update.Longitude.IsSet {
		set["longitude"] = update.Longitude.Val
	}
	if update.BannerURL.IsSet {
		set["banner_url"] = update.BannerURL.Val
	}
	if update.Rules.IsSet {
		set["rules"] = update.Rules.Val
	}
	if update.Requirements.IsSet {
		set["requirements"] = update.Requirements.Val
	}
	if update.ExternalURL.IsSet {
		set["external_url"] = update.ExternalURL.Val
	}

	change := bson.M{"$set": set}
	if len(unset) > 0 {
		change["$unset"] = unset
	}

	var doc eventDB
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.events.FindOneAndUpdate(ctx, bson.M{"_id": oid}, change, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) DeleteEvent(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return ErrEventNotFound
	}

	res, err := r.events.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrEventNotFound
	}

	if _, err := r.registrations.DeleteMany(ctx, bson.M{"event_id": oid}); err != nil {
		return fmt.Errorf("failed to delete event registrations: %w", err)
	}
	if _, err := r.users.UpdateMany(ctx, bson.M{"bookmarks": oid}, bson.M{"$pull": bson.M{"bookmarks": oid}}); err != nil {
		return fmt.Errorf("failed to remove event bookmarks: %w", err)
	}
	return nil
}

func (r *MongoRepository) UpsertExternalEvent(ctx context.Context, event model.Event) (bool, error) {
	if event.ExternalID == "" {
		return false, model.NewValidationError("external id is required")
	}

	now := r.nowFunc()
	set := bson.M{
		"title":         event.Title,
		"description":   event.Description,
		"category":      string(event.Category),
		"starts_at":     event.StartsAt,
		"venue":         event.Venue,
		"location_text": event.LocationText,
		"latitude":      event.Latitude,
		"longitude":     event.Longitude,
		"banner_url":    event.BannerURL,
		"is_external":   true,
		"external_url":  event.ExternalURL,
		"source":        event.Source,
		"external_date": event.ExternalDate,
		"updated_at":    now,
	}
	setOnInsert := bson.M{
		"rules":        event.Rules,
		"requirements": event.Requirements,
		"created_at":   now,
	}

	opts := options.Update().SetUpsert(true)
	res, err := r.events.UpdateOne(ctx,
		bson.M{"external_id": event.ExternalID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		opts,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert event %s: %w", event.ExternalID, err)
	}
	return res.UpsertedCount > 0, nil
}

func decodeEvents(ctx context.Context, cursor *mongo.Cursor) ([]model.Event, error) {
	var docs []eventDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	events := make([]model.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toModel())
	}
	return events, nil
}
