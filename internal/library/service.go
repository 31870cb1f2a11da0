package library

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service owns every structural mutation of the library aggregate. All
// changes follow the same cycle: load the whole library, mutate it in memory,
// save it whole, then publish the events the mutation produced.
//
// Mutations for the same user are serialized in-process; across processes the
// version check in Store.Save catches lost updates.
type Service struct {
	store Store
	sink  EventSink
	log   *slog.Logger
	now   func() time.Time

	locksMu sync.Mutex
	locks   map[primitive.ObjectID]*sync.Mutex
}

func NewService(store Store, sink EventSink, log *slog.Logger) *Service {
	return &Service{
		store: store,
		sink:  sink,
		log:   log,
		now:   time.Now,
		locks: make(map[primitive.ObjectID]*sync.Mutex),
	}
}

// lock serializes mutations per user id and returns the unlock function.
func (s *Service) lock(userID primitive.ObjectID) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func parseID(field, s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, Validationf("%s must be a 24-character hex object id", field)
	}
	return id, nil
}

func (s *Service) publish(events ...Event) {
	for _, e := range events {
		s.sink.Publish(e)
	}
}

// Snapshot loads the owner and library without mutating anything.
func (s *Service) Snapshot(ctx context.Context, userID string) (Owner, Library, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return Owner{}, nil, err
	}
	owner, lib, _, err := s.store.Load(ctx, uid)
	return owner, lib, err
}

// GetLibrary returns the user's folders.
func (s *Service) GetLibrary(ctx context.Context, userID string) (Library, error) {
	_, lib, err := s.Snapshot(ctx, userID)
	return lib, err
}

// mutate runs fn against the freshly loaded library and persists the result.
// Events returned by fn are published only after a successful save.
func (s *Service) mutate(ctx context.Context, userID string, fn func(owner Owner, lib Library) (Library, []Event, error)) (Library, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(uid)
	defer unlock()

	owner, lib, version, err := s.store.Load(ctx, uid)
	if err != nil {
		return nil, err
	}

	next, events, err := fn(owner, lib)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, uid, next, version); err != nil {
		return nil, err
	}

	s.publish(events...)
	return next, nil
}

// DefaultFolder returns the library's default folder.
func (s *Service) DefaultFolder(ctx context.Context, userID string) (*Folder, error) {
	_, lib, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	f := lib.Default()
	if f == nil {
		return nil, NotFoundf("library has no default folder")
	}
	return f, nil
}

// GetFolder returns a folder by id.
func (s *Service) GetFolder(ctx context.Context, userID, folderID string) (*Folder, error) {
	fid, err := parseID("folder_id", folderID)
	if err != nil {
		return nil, err
	}
	_, lib, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	f := lib.Folder(fid)
	if f == nil {
		return nil, NotFoundf("folder %s not found", folderID)
	}
	return f, nil
}

// SearchFolders returns the folders whose name contains the given text,
// case-insensitively.
func (s *Service) SearchFolders(ctx context.Context, userID, name string) ([]*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, Validationf("folder_name must be between 1 and 100 characters")
	}
	_, lib, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	var matches []*Folder
	lower := strings.ToLower(name)
	for _, f := range lib {
		if strings.Contains(strings.ToLower(f.Name), lower) {
			matches = append(matches, f)
		}
	}
	return matches, nil
}

// CreateFolder appends a new non-default folder. Its order is the library
// length plus one, so no collision with existing orders is possible.
func (s *Service) CreateFolder(ctx context.Context, userID, name string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validationf("name is required")
	}

	var created *Folder
	_, err := s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		created = &Folder{
			ID:        primitive.NewObjectID(),
			Name:      name,
			Color:     pickColor(),
			Order:     len(lib) + 1,
			IsDefault: false,
			Notes:     []Note{},
		}
		return append(lib, created), nil, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FolderUpdate carries a folder edit. An empty name keeps the previous one;
// the color is always required and must come from the palette.
type FolderUpdate struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func validColor(c string) bool {
	for _, p := range Palette {
		if strings.EqualFold(p, c) {
			return true
		}
	}
	return false
}

// UpdateFolder renames and recolors a folder.
func (s *Service) UpdateFolder(ctx context.Context, userID, folderID string, in FolderUpdate) (*Folder, error) {
	fid, err := parseID("folder_id", folderID)
	if err != nil {
		return nil, err
	}
	if !validColor(in.Color) {
		return nil, Validationf("color must be one of: %s", strings.Join(Palette, ", "))
	}

	var updated *Folder
	_, err = s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		f := lib.Folder(fid)
		if f == nil {
			return nil, nil, NotFoundf("folder %s not found", folderID)
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			f.Name = name
		}
		f.Color = in.Color
		updated = f
		return lib, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteFolder removes a non-default folder and all its notes. Orders of the
// remaining folders are renumbered to stay dense.
func (s *Service) DeleteFolder(ctx context.Context, userID, folderID string) error {
	fid, err := parseID("folder_id", folderID)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, userID, func(owner Owner, lib Library) (Library, []Event, error) {
		f := lib.Folder(fid)
		if f == nil {
			return nil, nil, NotFoundf("folder %s not found", folderID)
		}
		if f.IsDefault {
			return nil, nil, Validationf("default folder cannot be deleted")
		}

		next := make(Library, 0, len(lib)-1)
		for _, g := range lib {
			if g.ID != fid {
				next = append(next, g)
			}
		}
		renumber(next)

		return next, []Event{FolderDeleted{Owner: owner, Folder: *f}}, nil
	})
	return err
}

// ClearLibrary removes every folder except the default one.
func (s *Service) ClearLibrary(ctx context.Context, userID string) (Library, error) {
	return s.mutate(ctx, userID, func(owner Owner, lib Library) (Library, []Event, error) {
		var removed []Folder
		next := make(Library, 0, 1)
		for _, f := range lib {
			if f.IsDefault {
				next = append(next, f)
			} else {
				removed = append(removed, *f)
			}
		}
		if len(next) == 0 {
			return nil, nil, NotFoundf("library has no default folder")
		}
		next[0].Order = 1

		if len(removed) == 0 {
			return next, nil, nil
		}
		return next, []Event{LibraryCleared{Owner: owner, Folders: removed}}, nil
	})
}

// FolderOrder is one entry of a reorder request.
type FolderOrder struct {
	FolderID string `json:"folder_id"`
	Order    int    `json:"order"`
}

// Reorder applies a full ranking of the library's folders. The client's order
// values are treated as a preference ranking, not as final truth: the default
// folder is forced to 1 and the rest are renumbered consecutively from 2
// preserving their relative requested order.
func (s *Service) Reorder(ctx context.Context, userID string, pairs []FolderOrder) (Library, error) {
	return s.mutate(ctx, userID, func(_ Owner, lib Library) (Library, []Event, error) {
		if len(pairs) != len(lib) {
			return nil, nil, Validationf("reorder must cover every folder: got %d entries, library has %d folders", len(pairs), len(lib))
		}

		def := lib.Default()
		if def == nil {
			return nil, nil, NotFoundf("library has no default folder")
		}

		type ranked struct {
			folder    *Folder
			requested int
		}
		seen := make(map[primitive.ObjectID]bool, len(pairs))
		var rest []ranked

		for _, p := range pairs {
			fid, err := parseID("folder_id", p.FolderID)
			if err != nil {
				return nil, nil, err
			}
			if seen[fid] {
				return nil, nil, Validationf("folder %s appears more than once", p.FolderID)
			}
			seen[fid] = true

			f := lib.Folder(fid)
			if f == nil {
				return nil, nil, Validationf("folder %s is not part of the library", p.FolderID)
			}
			if f.IsDefault {
				// Whatever the client asked for, the default folder
				// stays at the top.
				continue
			}
			if p.Order == 1 {
				return nil, nil, Validationf("order 1 is reserved for the default folder")
			}
			rest = append(rest, ranked{folder: f, requested: p.Order})
		}

		requested := make(map[int]bool, len(rest))
		for _, r := range rest {
			if requested[r.requested] {
				return nil, nil, Validationf("order %d is requested by more than one folder", r.requested)
			}
			requested[r.requested] = true
		}

		sort.SliceStable(rest, func(i, j int) bool {
			return rest[i].requested < rest[j].requested
		})

		def.Order = 1
		for i, r := range rest {
			r.folder.Order = i + 2
		}
		return lib, nil, nil
	})
}

// renumber reassigns dense folder orders: default first at 1, the rest in
// their current order from 2 upward.
func renumber(lib Library) {
	sort.SliceStable(lib, func(i, j int) bool {
		if lib[i].IsDefault != lib[j].IsDefault {
			return lib[i].IsDefault
		}
		return lib[i].Order < lib[j].Order
	})
	for i, f := range lib {
		f.Order = i + 1
	}
}
