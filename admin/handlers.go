// Package admin serves the HTTP side of a running session: Prometheus
// metrics, a health probe and read-only blob inspection.
package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maxpert/fbsql/blob"
	"github.com/maxpert/fbsql/blobstore"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/rs/zerolog/log"
)

// BlobInspector is the read side of a blob store
type BlobInspector interface {
	engine.BlobStore
	Stat(id engine.BlobID) (segments, totalLength int64, err error)
}

// AdminHandlers handles admin API endpoints
type AdminHandlers struct {
	nodeID uint64
	blobs  BlobInspector
	stats  telemetry.StatsProvider
}

// NewAdminHandlers creates a new AdminHandlers instance. stats may be nil.
func NewAdminHandlers(nodeID uint64, blobs BlobInspector, stats telemetry.StatsProvider) *AdminHandlers {
	return &AdminHandlers{
		nodeID: nodeID,
		blobs:  blobs,
		stats:  stats,
	}
}

func (h *AdminHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"status":  "ok",
		"node_id": h.nodeID,
	}
	if h.stats != nil {
		data["open_blobs"] = h.stats.OpenBlobCount()
		data["cached_statements"] = h.stats.CachedStatementCount()
	}
	writeJSONResponse(w, data)
}

func (h *AdminHandlers) handleBlobStat(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBlobIDParam(w, r)
	if !ok {
		return
	}

	segments, total, err := h.blobs.Stat(id)
	if err != nil {
		writeBlobError(w, err)
		return
	}

	writeJSONResponse(w, map[string]interface{}{
		"id":           id.String(),
		"segments":     segments,
		"total_length": total,
	})
}

func (h *AdminHandlers) handleBlobContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBlobIDParam(w, r)
	if !ok {
		return
	}

	s, err := blob.Open(h.blobs, id)
	if err != nil {
		writeBlobError(w, err)
		return
	}
	defer s.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, s); err != nil {
		log.Error().Err(err).Stringer("blob_id", id).Msg("Failed to stream blob")
	}
}

func parseBlobIDParam(w http.ResponseWriter, r *http.Request) (engine.BlobID, bool) {
	id, err := engine.ParseBlobID(chi.URLParam(r, "blobID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return engine.BlobID{}, false
	}
	return id, true
}

func writeBlobError(w http.ResponseWriter, err error) {
	if errors.Is(err, blobstore.ErrNotFound) {
		writeErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	writeErrorResponse(w, http.StatusInternalServerError, err.Error())
}

// writeJSONResponse writes a successful JSON response
func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"data": data,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error JSON response
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response := map[string]interface{}{
		"error": message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}
