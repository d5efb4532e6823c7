package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/export"
	"github.com/vbonduro/dishcarbon/internal/photostore"
	"github.com/vbonduro/dishcarbon/internal/service"
)

const (
	historyPageLimit   = 50
	historyExportLimit = 10000
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type historyData struct {
	ActiveNav string
	Entries   []*domain.HistoryEntry
	Disabled  bool
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// handleHistory lists the caller's own estimations.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	data := historyData{ActiveNav: "history"}

	entries, err := s.service.History(r.Context(), sess.ID, historyPageLimit)
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		data.Disabled = true
	case err != nil:
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		s.logger.Error("list history failed", "session_id", sess.ID, "error", err)
		return
	default:
		data.Entries = entries
	}

	if err := s.renderPage(w, data, "base.html", "pages/history.html"); err != nil {
		s.logger.Error("render page failed", "page", "history", "error", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	entries, err := s.service.History(r.Context(), sess.ID, historyExportLimit)
	if errors.Is(err, service.ErrHistoryDisabled) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		s.logger.Error("list history for export failed", "error", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteHistory(&buf, entries); err != nil {
		http.Error(w, "failed to build workbook", http.StatusInternalServerError)
		s.logger.Error("export history failed", "error", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="dishcarbon-history.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write export failed", "error", err)
	}
}

func (s *Server) handleHistoryPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid estimation id", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	reader, mimeType, err := s.service.Photo(r.Context(), sess.ID, id)
	if errors.Is(err, photostore.ErrNotFound) || errors.Is(err, service.ErrHistoryDisabled) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load photo", http.StatusInternalServerError)
		s.logger.Error("get photo failed", "estimation_id", id, "error", err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "estimation_id", id, "error", err)
	}
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid estimation id", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	err = s.service.DeleteEntry(r.Context(), sess.ID, id)
	if errors.Is(err, service.ErrEntryNotFound) || errors.Is(err, service.ErrHistoryDisabled) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to delete estimation", http.StatusInternalServerError)
		s.logger.Error("delete history entry failed", "estimation_id", id, "error", err)
		return
	}

	w.Header().Set("HX-Redirect", "/history")
	w.WriteHeader(http.StatusOK)
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	code := http.StatusOK

	h, err := s.service.Health(r.Context())
	if err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
		s.logger.Warn("backend health check failed", "error", err)
	} else {
		resp.Backend = h.Status
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("write health response failed", "error", err)
	}
}
