package users

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"notekeeper/internal/auth"
	"notekeeper/internal/library"
)

type Handler struct {
	svc    *Service
	tokens *auth.Tokens
	log    *slog.Logger
}

func NewHandler(svc *Service, tokens *auth.Tokens, log *slog.Logger) *Handler {
	return &Handler{svc: svc, tokens: tokens, log: log}
}

// Register handles POST /api/users
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	u, err := h.svc.Register(r.Context(), input)
	if err != nil {
		h.error(w, err)
		return
	}
	h.jsonResponse(w, u, http.StatusCreated)
}

// Login handles POST /api/users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	u, err := h.svc.Login(r.Context(), input)
	if err != nil {
		h.error(w, err)
		return
	}

	token, err := h.tokens.Issue(u.ID.Hex())
	if err != nil {
		h.log.Error("failed to issue token", "error", err, "user", u.ID.Hex())
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]string{"token": token}, http.StatusOK)
}

// Me handles GET /api/users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, err)
		return
	}
	h.jsonResponse(w, u, http.StatusOK)
}

// UpdateMe handles PUT /api/users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	u, err := h.svc.Update(r.Context(), auth.UserID(r.Context()), input)
	if err != nil {
		h.error(w, err)
		return
	}
	h.jsonResponse(w, u, http.StatusOK)
}

// DeleteMe handles DELETE /api/users/me
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), auth.UserID(r.Context())); err != nil {
		h.error(w, err)
		return
	}
	h.jsonResponse(w, map[string]string{"msg": "deleted"}, http.StatusOK)
}

// GetConfig handles GET /api/users/me/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.GetConfig(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.error(w, err)
		return
	}
	h.jsonResponse(w, cfg, http.StatusOK)
}

// UpdateConfig handles PUT /api/users/me/config
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	cfg, err := h.svc.UpdateConfig(r.Context(), auth.UserID(r.Context()), cfg)
	if err != nil {
		h.error(w, err)
		return
	}
	h.jsonResponse(w, cfg, http.StatusOK)
}

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

func (h *Handler) error(w http.ResponseWriter, err error) {
	switch library.KindOf(err) {
	case library.KindValidation:
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case library.KindNotFound:
		h.jsonError(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error("user operation failed", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
