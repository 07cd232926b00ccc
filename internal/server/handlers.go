package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/blazesportsintel/livefeed/internal/livefeed"
)

type Server struct {
	reducer    *livefeed.Reducer
	dataSource string
	logger     *zap.Logger
}

func NewServer(reducer *livefeed.Reducer, dataSource string, logger *zap.Logger) *Server {
	return &Server{
		reducer:    reducer,
		dataSource: dataSource,
		logger:     logger,
	}
}

// LiveResponse is the reducer endpoint envelope. Sequence is the new cursor
// for the client's next request.
type LiveResponse struct {
	Success  bool                      `json:"success"`
	Sport    string                    `json:"sport"`
	GameID   string                    `json:"gameId"`
	Sequence int64                     `json:"sequence"`
	Frames   []*livefeed.LiveFrame     `json:"frames"`
	Innings  []livefeed.InningSnapshot `json:"innings"`
	Meta     LiveMeta                  `json:"meta"`
}

type LiveMeta struct {
	DataSource  string `json:"dataSource"`
	LastUpdated string `json:"lastUpdated"`
	Delivered   int    `json:"delivered"`
	CacheHit    bool   `json:"cacheHit"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleLiveNCAABaseball(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "gameId query parameter is required")
		return
	}

	var cursor int64
	if raw := r.URL.Query().Get("sequence"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "sequence must be a non-negative integer")
			return
		}
		cursor = parsed
	}

	result, err := s.reducer.Reduce(r.Context(), gameID, cursor)
	if err != nil {
		s.logger.Error("reduce failed",
			zap.String("gameId", gameID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	frames := result.Frames
	if frames == nil {
		frames = []*livefeed.LiveFrame{}
	}
	innings := result.Innings
	if innings == nil {
		innings = []livefeed.InningSnapshot{}
	}

	// Freshness is reducer-driven; this endpoint is never edge-cached.
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, LiveResponse{
		Success:  true,
		Sport:    "ncaa-baseball",
		GameID:   gameID,
		Sequence: result.Cursor,
		Frames:   frames,
		Innings:  innings,
		Meta: LiveMeta{
			DataSource:  s.dataSource,
			LastUpdated: time.Now().UTC().Format(time.RFC3339),
			Delivered:   result.Delivered,
			CacheHit:    result.CacheHit,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
