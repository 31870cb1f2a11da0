package library

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repo stores libraries embedded in the user documents of the users
// collection.
type Repo struct {
	coll *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection("users")}
}

type libraryDoc struct {
	ID      primitive.ObjectID `bson:"_id"`
	Name    string             `bson:"name"`
	Email   string             `bson:"email"`
	Library Library            `bson:"library"`
	Version int64              `bson:"library_version"`
}

// Load reads the owner, library and version from the user document.
func (r *Repo) Load(ctx context.Context, userID primitive.ObjectID) (Owner, Library, int64, error) {
	opts := options.FindOne().SetProjection(bson.M{
		"name": 1, "email": 1, "library": 1, "library_version": 1,
	})

	var doc libraryDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Owner{}, nil, 0, NotFoundf("user %s not found", userID.Hex())
	}
	if err != nil {
		return Owner{}, nil, 0, Internal("load library", err)
	}

	owner := Owner{ID: doc.ID, Name: doc.Name, Email: doc.Email}
	return owner, doc.Library, doc.Version, nil
}

// Save replaces the whole library, guarded by the version read at Load time.
// A version mismatch means another writer got there first.
func (r *Repo) Save(ctx context.Context, userID primitive.ObjectID, lib Library, version int64) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "library_version": version},
		bson.M{
			"$set": bson.M{"library": lib},
			"$inc": bson.M{"library_version": 1},
		},
	)
	if err != nil {
		return Internal("save library", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": userID})
		if err != nil {
			return Internal("save library", err)
		}
		if n == 0 {
			return NotFoundf("user %s not found", userID.Hex())
		}
		return Conflictf("library was modified concurrently, reload and retry")
	}
	return nil
}

// ExpiredUsers returns the ids of users holding at least one trashed note
// whose deletion date has passed. The cutoff is a TimeLayout string; the
// fixed-width layout makes the string comparison a time comparison.
func (r *Repo) ExpiredUsers(ctx context.Context, cutoff string) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"library.notes": bson.M{
			"$elemMatch": bson.M{
				"trashed":      true,
				"deleted_date": bson.M{"$gt": "", "$lte": cutoff},
			},
		},
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, Internal("find expired users", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, Internal("decode expired users", err)
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}
