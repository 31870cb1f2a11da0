package library

import (
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimeLayout is the wall-clock format for every timestamp stored on a note.
// The fixed-width layout keeps lexicographic comparison consistent with time
// order, which the purge sweep relies on.
const TimeLayout = "2006-01-02 15:04:05"

// TrashRetention is how long a trashed note is kept before it becomes
// eligible for permanent deletion.
const TrashRetention = 14 * 24 * time.Hour

// DefaultFolderName is the name of the folder every library starts with.
const DefaultFolderName = "default"

// Palette is the set of colors a folder may carry. CreateFolder picks one at
// random; UpdateFolder rejects anything outside it.
var Palette = []string{
	"#FFFFFF", "#FFADAD", "#FFD6A5", "#FDFFB6", "#CAFFBF",
	"#9BF6FF", "#A0C4FF", "#BDB2FF", "#FFC6FF",
}

// Note is a single note inside a folder. Trashed and DeletedDate move
// together: a trashed note always has a concrete deletion date, an active
// note always has an empty one.
type Note struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Body        string             `bson:"body" json:"body"`
	Style       string             `bson:"style" json:"style"`
	Trashed     bool               `bson:"trashed" json:"trashed"`
	DeletedDate string             `bson:"deleted_date" json:"deleted_date"`
	UpdatedAt   string             `bson:"update_at" json:"update_at"`
}

// Folder is an ordered container of notes. Exactly one folder per library is
// the default; it is pinned to order 1 and cannot be deleted.
type Folder struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Color     string             `bson:"color" json:"color"`
	Order     int                `bson:"order" json:"order"`
	IsDefault bool               `bson:"is_default" json:"is_default"`
	Notes     []Note             `bson:"notes" json:"notes"`
}

// Library is the full set of a user's folders, embedded in the user document.
type Library []*Folder

// Owner identifies the user a library belongs to, for notifications.
type Owner struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

// New returns the library a fresh user starts with: the default folder
// holding one sample note.
func New(now time.Time) Library {
	return Library{
		{
			ID:        primitive.NewObjectID(),
			Name:      DefaultFolderName,
			Color:     "#FFFFFF",
			Order:     1,
			IsDefault: true,
			Notes: []Note{
				{
					ID:        primitive.NewObjectID(),
					Title:     "Welcome",
					Body:      "This is your first note. Create folders to organize your notes, and use the bin to recover anything you trash within two weeks.",
					Style:     "default",
					Trashed:   false,
					UpdatedAt: now.Format(TimeLayout),
				},
			},
		},
	}
}

// Default returns the default folder, or nil if the library has none.
func (l Library) Default() *Folder {
	for _, f := range l {
		if f.IsDefault {
			return f
		}
	}
	return nil
}

// Folder returns the folder with the given id, or nil.
func (l Library) Folder(id primitive.ObjectID) *Folder {
	for _, f := range l {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// Note returns the folder containing the note with the given id and the note
// itself, or (nil, nil). A note belongs to exactly one folder.
func (l Library) Note(id primitive.ObjectID) (*Folder, *Note) {
	for _, f := range l {
		for i := range f.Notes {
			if f.Notes[i].ID == id {
				return f, &f.Notes[i]
			}
		}
	}
	return nil, nil
}

// Bin is the derived view of all trashed notes across every folder, in
// folder-then-insertion order. It is never stored; the trashed flag on the
// note is the only source of truth.
func (l Library) Bin() []Note {
	var bin []Note
	for _, f := range l {
		for _, n := range f.Notes {
			if n.Trashed {
				bin = append(bin, n)
			}
		}
	}
	return bin
}

// removeNote detaches the note with the given id from its folder and returns
// it, or nil if no folder holds it.
func (l Library) removeNote(id primitive.ObjectID) *Note {
	for _, f := range l {
		for i := range f.Notes {
			if f.Notes[i].ID == id {
				n := f.Notes[i]
				f.Notes = append(f.Notes[:i], f.Notes[i+1:]...)
				return &n
			}
		}
	}
	return nil
}

func pickColor() string {
	return Palette[rand.Intn(len(Palette))]
}
