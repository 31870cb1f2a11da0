package users

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"notekeeper/internal/library"
)

// User is the aggregate root stored in the users collection. The library and
// its version live on the same document; the library package mutates them
// through its own repository.
type User struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Pwd            string             `bson:"pwd" json:"-"`
	Library        library.Library    `bson:"library" json:"library"`
	LibraryVersion int64              `bson:"library_version" json:"-"`
	Config         Config             `bson:"config" json:"config"`
}

// Config is the per-user preferences document.
type Config struct {
	DarkMode          bool `bson:"dark_mode" json:"dark_mode"`
	DraftNotification bool `bson:"draft_notification" json:"draft_notification"`
	Archived          bool `bson:"archived" json:"archived"`
	AutoBackup        bool `bson:"auto_backup" json:"auto_backup"`
	News              bool `bson:"news" json:"news"`
}

// DefaultConfig is what a fresh account starts with.
func DefaultConfig() Config {
	return Config{DraftNotification: true}
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Pwd   string `json:"pwd"`
}

// UpdateInput is a partial account edit: nil fields keep their value.
type UpdateInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Pwd   *string `json:"pwd"`
}

// LoginInput is the payload for authenticating.
type LoginInput struct {
	Email string `json:"email"`
	Pwd   string `json:"pwd"`
}
