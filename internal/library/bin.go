package library

import (
	"context"
	"errors"
	"time"
)

// GetBin returns every trashed note across all folders. An empty bin is an
// empty slice, not an error.
func (s *Service) GetBin(ctx context.Context, userID string) ([]Note, error) {
	_, lib, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lib.Bin(), nil
}

// RestoreBin restores every trashed note and returns how many there were.
// The whole batch is one write; a failing step aborts it entirely.
func (s *Service) RestoreBin(ctx context.Context, userID string) (int, error) {
	restored := 0
	_, err := s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		for _, n := range lib.Bin() {
			_, target := lib.Note(n.ID)
			if target == nil {
				return nil, nil, NotFoundf("note %s vanished while restoring the bin", n.ID.Hex())
			}
			target.Trashed = false
			target.DeletedDate = ""
			restored++
		}
		return lib, nil, nil
	})
	if err != nil {
		return 0, err
	}
	return restored, nil
}

// PurgeBin permanently deletes every trashed note, emitting one NoteDeleted
// event per note so the owner can be notified with its content. Notification
// failures never roll back the deletion.
func (s *Service) PurgeBin(ctx context.Context, userID string) ([]Note, error) {
	var purged []Note
	_, err := s.mutate(ctx, userID, func(owner Owner, lib Library) (Library, []Event, error) {
		purged = nil
		var events []Event
		for _, n := range lib.Bin() {
			removed := lib.removeNote(n.ID)
			if removed == nil {
				return nil, nil, NotFoundf("note %s vanished while purging the bin", n.ID.Hex())
			}
			purged = append(purged, *removed)
			events = append(events, NoteDeleted{Owner: owner, Note: *removed})
		}
		return lib, events, nil
	})
	if err != nil {
		return nil, err
	}
	return purged, nil
}

// PurgeExpired deletes the trashed notes whose scheduled deletion date is at
// or before the cutoff. It returns the number of notes removed; when nothing
// has expired the library is left untouched.
func (s *Service) PurgeExpired(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	limit := cutoff.Format(TimeLayout)

	removed := 0
	_, err := s.mutate(ctx, userID, func(owner Owner, lib Library) (Library, []Event, error) {
		removed = 0
		var events []Event
		for _, n := range lib.Bin() {
			if n.DeletedDate == "" || n.DeletedDate > limit {
				continue
			}
			gone := lib.removeNote(n.ID)
			if gone == nil {
				return nil, nil, NotFoundf("note %s vanished while purging expired notes", n.ID.Hex())
			}
			removed++
			events = append(events, NoteDeleted{Owner: owner, Note: *gone})
		}
		if removed == 0 {
			return nil, nil, errNothingExpired
		}
		return lib, events, nil
	})
	if err == errNothingExpired {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// errNothingExpired short-circuits mutate before an unnecessary save.
var errNothingExpired = errors.New("nothing expired")
