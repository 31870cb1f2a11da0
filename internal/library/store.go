package library

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the persistence boundary for the library aggregate. The library is
// always loaded and saved whole; version is a monotonic counter used as an
// optimistic lock.
//
// Load returns a not-found error when no user exists for the id. Save
// replaces the library only if the stored version still matches, returning a
// conflict error otherwise.
type Store interface {
	Load(ctx context.Context, userID primitive.ObjectID) (Owner, Library, int64, error)
	Save(ctx context.Context, userID primitive.ObjectID, lib Library, version int64) error
}
