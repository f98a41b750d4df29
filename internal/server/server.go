// Package server 是引擎的 HTTP / websocket 外壳：前端把局面发过来，拿回一步棋。
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"quarto_go/internal/board"
	"quarto_go/internal/config"
	"quarto_go/internal/search"
	"quarto_go/internal/tt"
	"quarto_go/internal/zobrist"
)

type Server struct {
	cfg  *config.Store
	keys *zobrist.Keys
	log  zerolog.Logger

	// shared 持久化的置换表；同一时刻只允许一次搜索写它
	shared   *tt.Table
	sharedMu sync.Mutex
}

// New shared 可以为 nil，此时每次搜索各用一张新表
func New(cfg *config.Store, keys *zobrist.Keys, shared *tt.Table, logger zerolog.Logger) *Server {
	if keys == nil {
		keys = zobrist.Default
	}
	return &Server{cfg: cfg, keys: keys, shared: shared, log: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.cfg.Get())
	})
	r.Put("/api/config", s.handlePutConfig)
	r.Post("/api/move", s.handleMove)
	r.Post("/api/apply", s.handleApply)
	r.Get("/api/search/ws", s.serveSearchWS)
	return r
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	next := s.cfg.Get()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	if err := s.cfg.Update(next); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.log.Info().Str("log_level", next.LogLevel).Int("tt_megabytes", next.TTMegabytes).Msg("config-updated")
	writeJSON(w, http.StatusOK, s.cfg.Get())
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	resp, err := s.search(r.Context(), req, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	st, err := req.State.State()
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := req.Move.Move()
	if err != nil {
		writeError(w, err)
		return
	}
	if st.Over() {
		writeError(w, errors.Wrap(board.ErrInvalidMove, "game is already over"))
		return
	}
	after, err := st.Apply(m)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := applyResponse{State: toStateDTO(after), HasWon: after.Board.HasWon(), IsFull: after.Board.IsFull()}
	if p, ok := after.Winner(); ok {
		resp.Winner = p.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// search 解析请求、跑引擎并把着法落到局面上
func (s *Server) search(ctx context.Context, req moveRequest, onDepth func(search.Stats)) (moveResponse, error) {
	st, err := req.State.State()
	if err != nil {
		return moveResponse{}, err
	}
	d := search.Medium
	if req.Difficulty != "" {
		if d, err = search.ParseDifficulty(req.Difficulty); err != nil {
			return moveResponse{}, errors.Wrap(board.ErrInvalidState, err.Error())
		}
	}
	cfg := s.cfg.Get()
	limits := cfg.Limits(d)
	logger := s.log.With().Str("difficulty", d.String()).Logger()
	opts := search.Options{
		Logger:     &logger,
		OnDepth:    onDepth,
		Keys:       s.keys,
		TableBytes: cfg.TTBytes(),
		Limits:     &limits,
	}
	if s.shared != nil {
		s.sharedMu.Lock()
		defer s.sharedMu.Unlock()
		opts.Table = s.shared
	}
	res, err := search.FindBestMove(ctx, st, d, opts)
	if err != nil {
		return moveResponse{}, err
	}
	after, err := st.Apply(res.Move)
	if err != nil {
		return moveResponse{}, errors.WithMessage(err, "engine produced an illegal move")
	}
	return toMoveResponse(res, after, s.keys), nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrInvalidState), errors.Is(err, board.ErrInvalidMove):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrTerminal):
		return http.StatusConflict
	case errors.Is(err, search.ErrCancelled):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
