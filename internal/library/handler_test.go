package library

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"notekeeper/internal/auth"
)

type fakeExporter struct{ fail bool }

func (f fakeExporter) Library(Library) ([]byte, error) {
	if f.fail {
		return nil, Internal("render", io.ErrUnexpectedEOF)
	}
	return []byte("%PDF-fake"), nil
}

func (f fakeExporter) Notes(string, []Note) ([]byte, error) {
	if f.fail {
		return nil, Internal("render", io.ErrUnexpectedEOF)
	}
	return []byte("%PDF-fake"), nil
}

type fakeBackupMailer struct {
	mu    sync.Mutex
	sends int
}

func (f *fakeBackupMailer) SendBinBackup(Owner, []Note, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
}

func newTestHandler(lib Library) (*Handler, *memStore, *fakeBackupMailer) {
	svc, st, _ := newTestService(lib)
	backup := &fakeBackupMailer{}
	h := NewHandler(svc, fakeExporter{}, backup, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h, st, backup
}

// do runs a handler with the authenticated user already on the context, the
// way the auth middleware would leave it.
func do(h http.HandlerFunc, userID, method, target, pathKey, pathVal string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	if pathKey != "" {
		req.SetPathValue(pathKey, pathVal)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandlerGetLibrary(t *testing.T) {
	h, st, _ := newTestHandler(seedLibrary())

	rec := do(h.GetLibrary, st.owner.ID.Hex(), http.MethodGet, "/api/library", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var lib []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lib))
	require.Len(t, lib, 3)
}

func TestHandlerErrorMapping(t *testing.T) {
	h, st, _ := newTestHandler(seedLibrary())
	user := st.owner.ID.Hex()

	// Malformed id in the path is a 400.
	rec := do(h.GetFolder, user, http.MethodGet, "/api/folders/nope", "folder_id", "nope", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown folder is a 404.
	rec = do(h.GetFolder, user, http.MethodGet, "/api/folders/x", "folder_id", primitive.NewObjectID().Hex(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// A concurrent write is a 409.
	st.mu.Lock()
	st.version++
	st.mu.Unlock()
	rec = do(h.CreateFolder, user, http.MethodPost, "/api/folders", "", "", `{"name":"Racing"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerCreateFolderRejectsBadJSON(t *testing.T) {
	h, st, _ := newTestHandler(seedLibrary())

	rec := do(h.CreateFolder, st.owner.ID.Hex(), http.MethodPost, "/api/folders", "", "", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestHandlerGetBinEmptyIsJSONArray(t *testing.T) {
	h, st, _ := newTestHandler(New(time.Now()))

	rec := do(h.GetBin, st.owner.ID.Hex(), http.MethodGet, "/api/bin", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandlerBackupBin(t *testing.T) {
	lib, _ := binFixture()
	h, st, backup := newTestHandler(lib)
	user := st.owner.ID.Hex()

	rec := do(h.BackupBin, user, http.MethodPost, "/api/bin/backup", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, backup.sends)

	var notes []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 2)
}

func TestHandlerBackupBinEmpty(t *testing.T) {
	h, st, backup := newTestHandler(New(time.Now()))

	rec := do(h.BackupBin, st.owner.ID.Hex(), http.MethodPost, "/api/bin/backup", "", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Zero(t, backup.sends)
}

func TestHandlerDownloadLibrary(t *testing.T) {
	h, st, _ := newTestHandler(seedLibrary())

	rec := do(h.DownloadLibrary, st.owner.ID.Hex(), http.MethodPost, "/api/notes/download", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Body.Bytes())
}

func TestHandlerDeleteNoteNoContent(t *testing.T) {
	lib := seedLibrary()
	note := lib[1].Notes[0]
	h, st, _ := newTestHandler(lib)

	rec := do(h.DeleteNote, st.owner.ID.Hex(), http.MethodDelete, "/api/notes/x", "note_id", note.ID.Hex(), "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
