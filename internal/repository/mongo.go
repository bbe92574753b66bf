package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection         = "users"
	eventsCollection        = "events"
	registrationsCollection = "registrations"
	reviewsCollection       = "reviews"
)

// MongoRepository is the MongoDB backed Repository.
type MongoRepository struct {
	db            *mongo.Database
	users         *mongo.Collection
	events        *mongo.Collection
	registrations *mongo.Collection
	reviews       *mongo.Collection
	nowFunc       func() time.Time
}

// MongoRepositoryOpt configures optional MongoRepository behaviour.
type MongoRepositoryOpt = func(*MongoRepository)

// WithMongoNowFunc overrides the clock. Useful for testing.
func WithMongoNowFunc(nowFunc func() time.Time) MongoRepositoryOpt {
	return func(r *MongoRepository) {
		r.nowFunc = nowFunc
	}
}

func NewMongoRepository(db *mongo.Database, opts ...MongoRepositoryOpt) *MongoRepository {
	r := &MongoRepository{
		db:            db,
		users:         db.Collection(usersCollection),
		events:        db.Collection(eventsCollection),
		registrations: db.Collection(registrationsCollection),
		reviews:       db.Collection(reviewsCollection),
		nowFunc:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureIndexes creates the indexes that carry the uniqueness invariants.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		r.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys:    bson.D{{Key: "github_id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"github_id": bson.M{"$type": "string"}}),
			},
		},
		r.events: {
			{Keys: bson.D{{Key: "starts_at", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "starts_at", Value: 1}}},
			{
				Keys:    bson.D{{Key: "external_id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"external_id": bson.M{"$type": "string"}}),
			},
		},
		r.registrations: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "event_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_active_registration").
					SetPartialFilterExpression(bson.M{"status": string(model.RegistrationActive)}),
			},
			{Keys: bson.D{{Key: "event_id", Value: 1}}},
			{Keys: bson.D{{Key: "registered_at", Value: -1}}},
		},
		r.reviews: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}

	slog.InfoContext(ctx, "Mongo indexes ensured")
	return nil
}

func (r *MongoRepository) HealthCheck(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

func (r *MongoRepository) Stats(ctx context.Context, since time.Time) (model.AdminStats, error) {
	var stats model.AdminStats
	var err error

	if stats.TotalEvents, err = r.events.CountDocuments(ctx, bson.M{}); err != nil {
		return model.AdminStats{}, fmt.Errorf("failed to count events: %w", err)
	}
	if stats.ExternalEvents, err = r.events.CountDocuments(ctx, bson.M{"is_external": true}); err != nil {
		return model.AdminStats{}, fmt.Errorf("failed to count external events: %w", err)
	}
	if stats.TotalUsers, err = r.users.CountDocuments(ctx, bson.M{}); err != nil {
		return model.AdminStats{}, fmt.Errorf("failed to count users: %w", err)
	}
	active := bson.M{"status": string(model.RegistrationActive)}
	if stats.TotalRegistrations, err = r.registrations.CountDocuments(ctx, active); err != nil {
		return model.AdminStats{}, fmt.Errorf("failed to count registrations: %w", err)
	}
	today := bson.M{"registered_at": bson.M{"$gte": since}}
	if stats.TodayRegistrations, err = r.registrations.CountDocuments(ctx, today); err != nil {
		return model.AdminStats{}, fmt.Errorf("failed to count today's registrations: %w", err)
	}
	if stats.TotalReviews, err = r.reviews.CountDocuments(ctx, bson.M{}); err != nil {
		return model.AdminStats{}, fmt.Errorf("failed to count reviews: %w", err)
	}

	return stats, nil
}

// objectID parses a hex id; malformed ids can never match a document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}

type userDB struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	FullName     string               `bson:"full_name"`
	Email        string               `bson:"email"`
	PasswordHash string               `bson:"password_hash"`
	StudentID    string               `bson:"student_id"`
	Department   string               `bson:"department"`
	Phone        string               `bson:"phone"`
	Role         string               `bson:"role"`
	GitHubID     string               `bson:"github_id,omitempty"`
	Bookmarks    []primitive.ObjectID `bson:"bookmarks"`
	CreatedAt    time.Time            `bson:"created_at"`
}

func (u userDB) toModel() model.User {
	return model.User{
		ID:           u.ID.Hex(),
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		StudentID:    u.StudentID,
		Department:   u.Department,
		Phone:        u.Phone,
		Role:         model.Role(u.Role),
		GitHubID:     u.GitHubID,
		Bookmarks:    hexIDs(u.Bookmarks),
		CreatedAt:    u.CreatedAt,
	}
}

type eventDB struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	Title        string              `bson:"title"`
	Description  string              `bson:"description"`
	Category     string              `bson:"category"`
	StartsAt     time.Time           `bson:"starts_at"`
	EndsAt       *time.Time          `bson:"ends_at,omitempty"`
	Venue        string              `bson:"venue"`
	LocationText string              `bson:"location_text"`
	Latitude     float64             `bson:"latitude"`
	Longitude    float64             `bson:"longitude"`
	BannerURL    string              `bson:"banner_url"`
	Rules        string              `bson:"rules"`
	Requirements string              `bson:"requirements"`
	IsExternal   bool                `bson:"is_external"`
	ExternalURL  string              `bson:"external_url,omitempty"`
	Source       string              `bson:"source"`
	ExternalID   string              `bson:"external_id,omitempty"`
	ExternalDate string              `bson:"external_date,omitempty"`
	CreatedBy    *primitive.ObjectID `bson:"created_by,omitempty"`
	CreatedAt    time.Time           `bson:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at"`
}

func (e eventDB) toModel() model.Event {
	ev := model.Event{
		ID:           e.ID.Hex(),
		Title:        e.Title,
		Description:  e.Description,
		Category:     model.Category(e.Category),
		StartsAt:     e.StartsAt,
		EndsAt:       e.EndsAt,
		Venue:        e.Venue,
		LocationText: e.LocationText,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		BannerURL:    e.BannerURL,
		Rules:        e.Rules,
		Requirements: e.Requirements,
		IsExternal:   e.IsExternal,
		ExternalURL:  e.ExternalURL,
		Source:       e.Source,
		ExternalID:   e.ExternalID,
		ExternalDate: e.ExternalDate,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if e.CreatedBy != nil {
		ev.CreatedBy = e.CreatedBy.Hex()
	}
	return ev
}

type registrationDB struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       primitive.ObjectID `bson:"user_id"`
	EventID      primitive.ObjectID `bson:"event_id"`
	Status       string             `bson:"status"`
	RegisteredAt time.Time          `bson:"registered_at"`
	CancelledAt  *time.Time         `bson:"cancelled_at,omitempty"`
}

func (r registrationDB) toModel() model.Registration {
	return model.Registration{
		ID:           r.ID.Hex(),
		UserID:       r.UserID.Hex(),
		EventID:      r.EventID.Hex(),
		Status:       model.RegistrationStatus(r.Status),
		RegisteredAt: r.RegisteredAt,
		CancelledAt:  r.CancelledAt,
	}
}

// registrationJoinDB is the shape produced by the registration $lookup
// pipelines. The joined arrays hold at most one element.
type registrationJoinDB struct {
	registrationDB `bson:",inline"`
	User           []userDB  `bson:"user"`
	Event          []eventDB `bson:"event"`
}

func (j registrationJoinDB) toModel() model.RegistrationDetail {
	d := model.RegistrationDetail{Registration: j.registrationDB.toModel()}
	if len(j.User) > 0 {
		d.User = model.ContactOf(j.User[0].toModel())
	}
	if len(j.Event) > 0 {
		d.Event = model.BriefOf(j.Event[0].toModel())
	}
	return d
}

type reviewDB struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	EventID   primitive.ObjectID `bson:"event_id"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	CreatedAt time.Time          `bson:"created_at"`
	Author    []userDB           `bson:"author,omitempty"`
}

func (r reviewDB) toModel() model.Review {
	rv := model.Review{
		ID:        r.ID.Hex(),
		UserID:    r.UserID.Hex(),
		EventID:   r.EventID.Hex(),
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if len(r.Author) > 0 {
		rv.AuthorName = r.Author[0].FullName
	}
	return rv
}

func lookupStage(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}}}
}
