package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventhub/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	doc := userDB{
		ID:           primitive.NewObjectID(),
		FullName:     user.FullName,
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		StudentID:    user.StudentID,
		Department:   user.Department,
		Phone:        user.Phone,
		Role:         string(user.Role),
		GitHubID:     user.GitHubID,
		Bookmarks:    []primitive.ObjectID{},
		CreatedAt:    r.nowFunc(),
	}
	if doc.Role == "" {
		doc.Role = string(model.RoleStudent)
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "github_id") {
				return model.User{}, ErrGitHubAccountExists
			}
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) findUser(ctx context.Context, filter bson.M) (model.User, error) {
	var doc userDB
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) GetUserByID(ctx context.Context, id string) (model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return r.findUser(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *MongoRepository) GetUserByGitHubID(ctx context.Context, githubID string) (model.User, error) {
	return r.findUser(ctx, bson.M{"github_id": githubID})
}

func (r *MongoRepository) updateUser(ctx context.Context, id string, set bson.M) (model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	if len(set) == 0 {
		return r.GetUserByID(ctx, id)
	}

	var doc userDB
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) UpdateUserProfile(ctx context.Context, id string, update model.ProfileUpdate) (model.User, error) {
	set := bson.M{}
	if update.FullName != "" {
		set["full_name"] = update.FullName
	}
	if update.StudentID != "" {
		set["student_id"] = update.StudentID
	}
	if update.Department != "" {
		set["department"] = update.Department
	}
	if update.Phone != "" {
		set["phone"] = update.Phone
	}
	return r.updateUser(ctx, id, set)
}

func (r *MongoRepository) UpdateUserRole(ctx context.Context, id string, role model.Role) (model.User, error) {
	return r.updateUser(ctx, id, bson.M{"role": string(role)})
}

func (r *MongoRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []userDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}

func (r *MongoRepository) DeleteUser(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return ErrUserNotFound
	}

	res, err := r.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}

	if _, err := r.registrations.DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
		return fmt.Errorf("failed to delete user registrations: %w", err)
	}
	return nil
}

// ToggleBookmark flips membership with a single pipeline update so two rapid
// toggles can never both observe the same starting set.
func (r *MongoRepository) ToggleBookmark(ctx context.Context, userID, eventID string) (model.BookmarkResult, error) {
	uid, ok := objectID(userID)
	if !ok {
		return model.BookmarkResult{}, ErrUserNotFound
	}
	eid, ok := objectID(eventID)
	if !ok {
		return model.BookmarkResult{}, ErrEventNotFound
	}

	current := bson.D{{Key: "$ifNull", Value: bson.A{"$bookmarks", bson.A{}}}}
	toggle := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "bookmarks", Value: bson.D{{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{eid, current}}}},
			{Key: "then", Value: bson.D{{Key: "$setDifference", Value: bson.A{current, bson.A{eid}}}}},
			{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{eid}}}}},
		}}}}}}},
	}

	var doc userDB
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"bookmarks": 1})
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": uid}, toggle, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.BookmarkResult{}, ErrUserNotFound
		}
		return model.BookmarkResult{}, fmt.Errorf("failed to toggle bookmark: %w", err)
	}

	result := model.BookmarkResult{Action: model.BookmarkRemoved, Bookmarks: hexIDs(doc.Bookmarks)}
	for _, b := range doc.Bookmarks {
		if b == eid {
			result.Action = model.BookmarkAdded
			break
		}
	}
	return result, nil
}
