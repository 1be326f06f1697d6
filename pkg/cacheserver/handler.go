package cacheserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stonebell/issuegraph/pkg/model"
)

// cacheHandler exposes the store under /api/cache/{projectID}[...].
type cacheHandler struct {
	store *Store
	log   *slog.Logger
}

func (h *cacheHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/cache/")
	if path == "" {
		http.Error(w, "missing project ID", http.StatusBadRequest)
		return
	}

	projectID, sub, _ := strings.Cut(path, "/")
	if projectID == "" {
		http.Error(w, "missing project ID", http.StatusBadRequest)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.handleGet(w, projectID)
	case sub == "items" && r.Method == http.MethodPut:
		h.handlePutItems(w, r, projectID)
	case sub == "items" && r.Method == http.MethodDelete:
		h.handleDeleteItems(w, projectID)
	case sub == "node-positions" && r.Method == http.MethodPut:
		h.handlePutPositions(w, r, projectID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *cacheHandler) handleGet(w http.ResponseWriter, projectID string) {
	cache, err := h.store.Cache(projectID)
	if err != nil {
		h.log.Error("cache read failed", "project_id", projectID, "error", err)
		http.Error(w, "cache read failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cache)
}

func (h *cacheHandler) handlePutItems(w http.ResponseWriter, r *http.Request, projectID string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.store.SetItems(projectID, body); err != nil {
		h.log.Error("cache write failed", "project_id", projectID, "error", err)
		http.Error(w, "cache write failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *cacheHandler) handleDeleteItems(w http.ResponseWriter, projectID string) {
	if err := h.store.DeleteItems(projectID); err != nil {
		h.log.Error("cache delete failed", "project_id", projectID, "error", err)
		http.Error(w, "cache delete failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *cacheHandler) handlePutPositions(w http.ResponseWriter, r *http.Request, projectID string) {
	var positions map[string]model.NodePosition
	if err := json.NewDecoder(r.Body).Decode(&positions); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.store.MergePositions(projectID, positions); err != nil {
		h.log.Error("position write failed", "project_id", projectID, "error", err)
		http.Error(w, "position write failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
