package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"notekeeper/internal/library"
)

// sweepStore is a single-user library.Store whose trashed notes double as the
// expired-user listing.
type sweepStore struct {
	mu      sync.Mutex
	userID  primitive.ObjectID
	lib     library.Library
	version int64
}

func newSweepStore(lib library.Library) *sweepStore {
	return &sweepStore{userID: primitive.NewObjectID(), lib: lib, version: 1}
}

func (s *sweepStore) Load(_ context.Context, userID primitive.ObjectID) (library.Owner, library.Library, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID != s.userID {
		return library.Owner{}, nil, 0, library.NotFoundf("user %s not found", userID.Hex())
	}
	owner := library.Owner{ID: s.userID, Name: "Ana", Email: "ana@example.com"}
	cp := make(library.Library, len(s.lib))
	for i, f := range s.lib {
		cf := *f
		cf.Notes = append([]library.Note(nil), f.Notes...)
		cp[i] = &cf
	}
	return owner, cp, s.version, nil
}

func (s *sweepStore) Save(_ context.Context, userID primitive.ObjectID, lib library.Library, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID != s.userID || version != s.version {
		return library.Conflictf("library was modified concurrently, reload and retry")
	}
	s.lib = lib
	s.version++
	return nil
}

func (s *sweepStore) ExpiredUsers(_ context.Context, cutoff string) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.lib {
		for _, n := range f.Notes {
			if n.Trashed && n.DeletedDate != "" && n.DeletedDate <= cutoff {
				return []primitive.ObjectID{s.userID}, nil
			}
		}
	}
	return nil, nil
}

func testLibrary(expiredID, pendingID primitive.ObjectID) library.Library {
	lib := library.New(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	lib.Default().Notes = append(lib.Default().Notes,
		library.Note{
			ID:          expiredID,
			Title:       "long gone",
			Trashed:     true,
			DeletedDate: "2020-01-01 00:00:00",
			UpdatedAt:   "2019-12-18 00:00:00",
		},
		library.Note{
			ID:          pendingID,
			Title:       "still waiting",
			Trashed:     true,
			DeletedDate: time.Now().Add(library.TrashRetention).Format(library.TimeLayout),
			UpdatedAt:   time.Now().Format(library.TimeLayout),
		},
	)
	return lib
}

func newSweeperUnderTest(st *sweepStore) *Sweeper {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := library.NewService(st, library.NopSink{}, log)
	return NewSweeper(svc, st, log, time.Hour)
}

func TestSweepPurgesOnlyExpiredNotes(t *testing.T) {
	expiredID, pendingID := primitive.NewObjectID(), primitive.NewObjectID()
	st := newSweepStore(testLibrary(expiredID, pendingID))
	sweeper := newSweeperUnderTest(st)

	require.NoError(t, sweeper.Sweep(context.Background()))

	_, lib, _, err := st.Load(context.Background(), st.userID)
	require.NoError(t, err)
	_, gone := lib.Note(expiredID)
	require.Nil(t, gone, "expired note purged")
	_, kept := lib.Note(pendingID)
	require.NotNil(t, kept, "pending note untouched")
	require.True(t, kept.Trashed)
}

func TestSweepIdempotentWhenNothingExpired(t *testing.T) {
	expiredID, pendingID := primitive.NewObjectID(), primitive.NewObjectID()
	st := newSweepStore(testLibrary(expiredID, pendingID))
	sweeper := newSweeperUnderTest(st)
	ctx := context.Background()

	require.NoError(t, sweeper.Sweep(ctx))
	versionAfterFirst := st.version

	require.NoError(t, sweeper.Sweep(ctx))
	require.Equal(t, versionAfterFirst, st.version, "second sweep writes nothing")
}

func TestRunStops(t *testing.T) {
	expiredID, pendingID := primitive.NewObjectID(), primitive.NewObjectID()
	st := newSweepStore(testLibrary(expiredID, pendingID))
	sweeper := newSweeperUnderTest(st)

	done := make(chan struct{})
	go func() {
		sweeper.Run(context.Background())
		close(done)
	}()

	sweeper.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunHonorsContextCancel(t *testing.T) {
	expiredID, pendingID := primitive.NewObjectID(), primitive.NewObjectID()
	st := newSweepStore(testLibrary(expiredID, pendingID))
	sweeper := newSweeperUnderTest(st)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
