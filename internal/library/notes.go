package library

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoteCreate carries the fields of a new note.
type NoteCreate struct {
	FolderID string `json:"folder_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Style    string `json:"style"`
}

// NoteUpdate is a partial edit: nil fields keep their previous value.
// Editing is allowed while a note sits in the bin.
type NoteUpdate struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
	Style *string `json:"style"`
}

// GetNote returns a note by id, wherever it lives in the library.
func (s *Service) GetNote(ctx context.Context, userID, noteID string) (*Note, error) {
	nid, err := parseID("note_id", noteID)
	if err != nil {
		return nil, err
	}
	_, lib, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, n := lib.Note(nid)
	if n == nil {
		return nil, NotFoundf("note %s not found", noteID)
	}
	return n, nil
}

// CreateNote appends an active note to the given folder.
func (s *Service) CreateNote(ctx context.Context, userID string, in NoteCreate) (*Note, error) {
	fid, err := parseID("folder_id", in.FolderID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, Validationf("title is required")
	}

	var created Note
	_, err = s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		f := lib.Folder(fid)
		if f == nil {
			return nil, nil, NotFoundf("folder %s not found", in.FolderID)
		}
		created = Note{
			ID:          primitive.NewObjectID(),
			Title:       in.Title,
			Body:        in.Body,
			Style:       in.Style,
			Trashed:     false,
			DeletedDate: "",
			UpdatedAt:   s.now().Format(TimeLayout),
		}
		f.Notes = append(f.Notes, created)
		return lib, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateNote edits a note in place, keeping any field the update omits.
func (s *Service) UpdateNote(ctx context.Context, userID, noteID string, in NoteUpdate) (*Note, error) {
	nid, err := parseID("note_id", noteID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, Validationf("title cannot be empty")
	}

	var updated Note
	_, err = s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		_, n := lib.Note(nid)
		if n == nil {
			return nil, nil, NotFoundf("note %s not found", noteID)
		}
		if in.Title != nil {
			n.Title = *in.Title
		}
		if in.Body != nil {
			n.Body = *in.Body
		}
		if in.Style != nil {
			n.Style = *in.Style
		}
		n.UpdatedAt = s.now().Format(TimeLayout)
		updated = *n
		return lib, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// MoveNote transfers a note to another folder: removed from its current
// folder, appended to the destination, in one write.
func (s *Service) MoveNote(ctx context.Context, userID, noteID, folderID string) (*Note, error) {
	nid, err := parseID("note_id", noteID)
	if err != nil {
		return nil, err
	}
	fid, err := parseID("folder_id", folderID)
	if err != nil {
		return nil, err
	}

	var moved Note
	_, err = s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		dest := lib.Folder(fid)
		if dest == nil {
			return nil, nil, NotFoundf("folder %s not found", folderID)
		}
		n := lib.removeNote(nid)
		if n == nil {
			return nil, nil, NotFoundf("note %s not found", noteID)
		}
		dest.Notes = append(dest.Notes, *n)
		moved = *n
		return lib, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &moved, nil
}

// TrashNote marks a note as trashed and schedules its deletion two weeks out.
func (s *Service) TrashNote(ctx context.Context, userID, noteID string) (*Note, error) {
	nid, err := parseID("note_id", noteID)
	if err != nil {
		return nil, err
	}

	var trashed Note
	_, err = s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		_, n := lib.Note(nid)
		if n == nil {
			return nil, nil, NotFoundf("note %s not found", noteID)
		}
		n.Trashed = true
		n.DeletedDate = s.now().Add(TrashRetention).Format(TimeLayout)
		trashed = *n
		return lib, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &trashed, nil
}

// RestoreNote clears the trash mark and the scheduled deletion date. Restoring
// an already active note is a no-op with the same end state.
func (s *Service) RestoreNote(ctx context.Context, userID, noteID string) (*Note, error) {
	nid, err := parseID("note_id", noteID)
	if err != nil {
		return nil, err
	}

	var restored Note
	_, err = s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		_, n := lib.Note(nid)
		if n == nil {
			return nil, nil, NotFoundf("note %s not found", noteID)
		}
		n.Trashed = false
		n.DeletedDate = ""
		restored = *n
		return lib, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &restored, nil
}

// DeleteNote removes a note permanently, from any state.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID string) error {
	nid, err := parseID("note_id", noteID)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, userID, func(owner Owner, lib Library) (Library, []Event, error) {
		n := lib.removeNote(nid)
		if n == nil {
			return nil, nil, NotFoundf("note %s not found", noteID)
		}
		return lib, []Event{NoteDeleted{Owner: owner, Note: *n}}, nil
	})
	return err
}
