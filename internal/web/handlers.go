package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/usecase"
	"go.uber.org/zap"
)

const defaultLevelTTL = 24 * time.Hour

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func symbolParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSetups(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.RecentSetups(r.Context(), symbolParam(r)))
}

// handleLatest serves the worker's in-memory snapshot, or the stored
// window when no worker is running.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.worker == nil {
		s.writeJSON(w, http.StatusOK, s.service.RecentSetups(r.Context(), ""))
		return
	}
	s.writeJSON(w, http.StatusOK, s.worker.Latest())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	direction := domain.Direction(strings.ToLower(r.URL.Query().Get("direction")))

	setup, err := s.service.Scan(r.Context(), symbol, direction)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDirection) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Scan failed", zap.String("symbol", symbol), zap.Error(err))
		if setup == nil {
			s.writeError(w, http.StatusBadGateway, "scan failed")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, setup)
}

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.KeyLevels(r.Context(), symbol))
}

func (s *Server) handleAddLevel(w http.ResponseWriter, r *http.Request) {
	var level domain.KeyLevel
	if err := json.NewDecoder(r.Body).Decode(&level); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid level")
		return
	}
	level.Symbol = strings.ToUpper(strings.TrimSpace(level.Symbol))
	if level.Symbol == "" || level.Price <= 0 {
		s.writeError(w, http.StatusBadRequest, "symbol and positive price are required")
		return
	}
	if level.Strength < 0 || level.Strength > 100 {
		s.writeError(w, http.StatusBadRequest, "strength must be within 0..100")
		return
	}
	if level.Type == "" {
		level.Type = domain.LevelSupport
	}
	if !level.Type.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown level_type")
		return
	}
	if level.Timeframe == "" {
		level.Timeframe = domain.TFDaily
	}
	if !level.Timeframe.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown timeframe")
		return
	}
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if level.CreatedAt.IsZero() {
		level.CreatedAt = now
	}
	if level.ExpiresAt.IsZero() {
		level.ExpiresAt = now.Add(defaultLevelTTL)
	}

	if err := s.store.SaveKeyLevel(r.Context(), &level); err != nil {
		s.logger.Error("Failed to save level", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to save level")
		return
	}
	s.writeJSON(w, http.StatusCreated, level)
}

func (s *Server) handleDeleteLevel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteKeyLevel(r.Context(), id); err != nil {
		s.logger.Error("Failed to delete level", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to delete level")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMTF(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.MTFAnalyses(r.Context(), symbol))
}

type scoreResponse struct {
	domain.LTPScore
	Grade domain.Grade `json:"grade"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var vals [3]float64
	for i, name := range []string{"level", "trend", "patience"} {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, name+" must be a number")
			return
		}
		vals[i] = v
	}

	score := usecase.CalculateLTPScore(vals[0], vals[1], vals[2])
	s.writeJSON(w, http.StatusOK, scoreResponse{LTPScore: score, Grade: usecase.GetLTPGrade(score.Overall)})
}
