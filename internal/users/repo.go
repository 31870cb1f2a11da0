package users

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notekeeper/internal/library"
)

// Store is the persistence boundary for account operations.
type Store interface {
	Insert(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, email, pwd string) error
	UpdateConfig(ctx context.Context, id primitive.ObjectID, cfg Config) error
	Delete(ctx context.Context, id primitive.ObjectID) (*User, error)
}

// Repo implements Store on the users collection.
type Repo struct {
	coll *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return library.Internal("create user indexes", err)
	}
	return nil
}

func (r *Repo) Insert(ctx context.Context, u *User) error {
	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return library.Validationf("email is already registered")
	}
	if err != nil {
		return library.Internal("insert user", err)
	}
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var u User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, library.NotFoundf("user %s not found", id.Hex())
	}
	if err != nil {
		return nil, library.Internal("find user", err)
	}
	return &u, nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, library.NotFoundf("no user registered with that email")
	}
	if err != nil {
		return nil, library.Internal("find user by email", err)
	}
	return &u, nil
}

func (r *Repo) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, email, pwd string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "email": email, "pwd": pwd}},
	)
	if mongo.IsDuplicateKeyError(err) {
		return library.Validationf("email is already registered")
	}
	if err != nil {
		return library.Internal("update user", err)
	}
	if res.MatchedCount == 0 {
		return library.NotFoundf("user %s not found", id.Hex())
	}
	return nil
}

func (r *Repo) UpdateConfig(ctx context.Context, id primitive.ObjectID, cfg Config) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"config": cfg}},
	)
	if err != nil {
		return library.Internal("update user config", err)
	}
	if res.MatchedCount == 0 {
		return library.NotFoundf("user %s not found", id.Hex())
	}
	return nil
}

// Delete removes the user document and returns it, so callers can notify the
// owner with what was deleted.
func (r *Repo) Delete(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var u User
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, library.NotFoundf("user %s not found", id.Hex())
	}
	if err != nil {
		return nil, library.Internal("delete user", err)
	}
	return &u, nil
}
