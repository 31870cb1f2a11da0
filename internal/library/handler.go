package library

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"notekeeper/internal/auth"
)

// Exporter renders a library or a set of notes into a downloadable document.
type Exporter interface {
	Library(lib Library) ([]byte, error)
	Notes(title string, notes []Note) ([]byte, error)
}

// BackupMailer sends the rendered bin backup to the owner. Fire and forget.
type BackupMailer interface {
	SendBinBackup(owner Owner, notes []Note, pdf []byte)
}

type Handler struct {
	svc    *Service
	export Exporter
	backup BackupMailer
	log    *slog.Logger
}

func NewHandler(svc *Service, export Exporter, backup BackupMailer, log *slog.Logger) *Handler {
	return &Handler{svc: svc, export: export, backup: backup, log: log}
}

// --- Library ---

// GetLibrary handles GET /api/library
func (h *Handler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := h.svc.GetLibrary(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, lib, http.StatusOK)
}

// ClearLibrary handles DELETE /api/library
func (h *Handler) ClearLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := h.svc.ClearLibrary(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, lib, http.StatusOK)
}

// ReorderLibrary handles PUT /api/library/order
func (h *Handler) ReorderLibrary(w http.ResponseWriter, r *http.Request) {
	var pairs []FolderOrder
	if err := json.NewDecoder(r.Body).Decode(&pairs); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	lib, err := h.svc.Reorder(r.Context(), auth.UserID(r.Context()), pairs)
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, lib, http.StatusOK)
}

// DownloadLibrary handles POST /api/notes/download
func (h *Handler) DownloadLibrary(w http.ResponseWriter, r *http.Request) {
	_, lib, err := h.svc.Snapshot(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, r, err)
		return
	}

	pdf, err := h.export.Library(lib)
	if err != nil {
		h.log.Error("failed to render library pdf", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="library.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// --- Folders ---

// DefaultFolder handles GET /api/folders
func (h *Handler) DefaultFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := h.svc.DefaultFolder(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, folder, http.StatusOK)
}

// GetFolder handles GET /api/folders/{folder_id}
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := h.svc.GetFolder(r.Context(), auth.UserID(r.Context()), r.PathValue("folder_id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, folder, http.StatusOK)
}

// SearchFolders handles GET /api/folders/name/{folder_name}
func (h *Handler) SearchFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.SearchFolders(r.Context(), auth.UserID(r.Context()), r.PathValue("folder_name"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	if len(folders) == 0 {
		h.jsonError(w, "no folder matches that name", http.StatusNotFound)
		return
	}
	h.jsonResponse(w, folders, http.StatusOK)
}

// CreateFolder handles POST /api/folders
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	folder, err := h.svc.CreateFolder(r.Context(), auth.UserID(r.Context()), input.Name)
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, folder, http.StatusCreated)
}

// UpdateFolder handles PUT /api/folders/{folder_id}
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var input FolderUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	folder, err := h.svc.UpdateFolder(r.Context(), auth.UserID(r.Context()), r.PathValue("folder_id"), input)
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, folder, http.StatusOK)
}

// DeleteFolder handles DELETE /api/folders/{folder_id}
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteFolder(r.Context(), auth.UserID(r.Context()), r.PathValue("folder_id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, map[string]string{"msg": "deleted"}, http.StatusOK)
}

// --- Notes ---

// GetNote handles GET /api/notes/{note_id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), auth.UserID(r.Context()), r.PathValue("note_id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

// CreateNote handles POST /api/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var input NoteCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.CreateNote(r.Context(), auth.UserID(r.Context()), input)
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, note, http.StatusCreated)
}

// UpdateNote handles PUT /api/notes/{note_id}
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var input NoteUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.UpdateNote(r.Context(), auth.UserID(r.Context()), r.PathValue("note_id"), input)
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

// MoveNote handles PUT /api/notes/{note_id}/move
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FolderID string `json:"folder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.MoveNote(r.Context(), auth.UserID(r.Context()), r.PathValue("note_id"), input.FolderID)
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

// TrashNote handles PUT /api/notes/{note_id}/trash
func (h *Handler) TrashNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.TrashNote(r.Context(), auth.UserID(r.Context()), r.PathValue("note_id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

// RestoreNote handles PUT /api/notes/{note_id}/restore
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.RestoreNote(r.Context(), auth.UserID(r.Context()), r.PathValue("note_id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

// DeleteNote handles DELETE /api/notes/{note_id}
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteNote(r.Context(), auth.UserID(r.Context()), r.PathValue("note_id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Bin ---

// GetBin handles GET /api/bin
func (h *Handler) GetBin(w http.ResponseWriter, r *http.Request) {
	bin, err := h.svc.GetBin(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, r, err)
		return
	}
	if bin == nil {
		bin = []Note{}
	}
	h.jsonResponse(w, bin, http.StatusOK)
}

// RestoreBin handles PUT /api/bin/restore
func (h *Handler) RestoreBin(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.RestoreBin(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, map[string]int{"restored": n}, http.StatusOK)
}

// PurgeBin handles DELETE /api/bin
func (h *Handler) PurgeBin(w http.ResponseWriter, r *http.Request) {
	purged, err := h.svc.PurgeBin(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.jsonResponse(w, map[string]int{"purged": len(purged)}, http.StatusOK)
}

// BackupBin handles POST /api/bin/backup: renders the bin to PDF, emails it
// to the owner and returns the bin contents.
func (h *Handler) BackupBin(w http.ResponseWriter, r *http.Request) {
	owner, lib, err := h.svc.Snapshot(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, r, err)
		return
	}

	bin := lib.Bin()
	if len(bin) == 0 {
		h.jsonError(w, "bin is empty", http.StatusNotFound)
		return
	}

	pdf, err := h.export.Notes("Bin backup", bin)
	if err != nil {
		h.log.Error("failed to render bin backup pdf", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.backup.SendBinBackup(owner, bin, pdf)
	h.jsonResponse(w, bin, http.StatusOK)
}

// --- Helpers ---

func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// error maps service error kinds onto HTTP statuses. Internal causes are
// logged with the user and path, never surfaced.
func (h *Handler) error(w http.ResponseWriter, r *http.Request, err error) {
	switch KindOf(err) {
	case KindValidation:
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case KindNotFound:
		h.jsonError(w, err.Error(), http.StatusNotFound)
	case KindConflict:
		h.jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error("library operation failed",
			"error", err,
			"user", auth.UserID(r.Context()),
			"path", r.URL.Path,
		)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
