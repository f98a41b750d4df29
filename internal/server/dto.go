package server

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"quarto_go/internal/board"
	"quarto_go/internal/game"
	"quarto_go/internal/piece"
	"quarto_go/internal/search"
	"quarto_go/internal/zobrist"
)

// StateDTO 16 格按行优先，"" 表示空格，其余是 4 位棋子串如 "1011"
type StateDTO struct {
	Cells    [board.Cells]string `json:"cells"`
	Selected string              `json:"selected"`
	Turn     string              `json:"turn"`
	Unplaced []string            `json:"unplaced,omitempty"` // 只出现在响应里
}

type MoveDTO struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Next string `json:"next"` // 棋子交完时为 ""
}

type moveRequest struct {
	State      StateDTO `json:"state"`
	Difficulty string   `json:"difficulty"`
}

type moveResponse struct {
	Move      MoveDTO  `json:"move"`
	Score     int32    `json:"score"`
	Depth     int      `json:"depth"`
	Nodes     uint64   `json:"nodes"`
	Proven    bool     `json:"proven"`
	Cancelled bool     `json:"cancelled"`
	TimedOut  bool     `json:"timed_out"`
	ElapsedMs float64  `json:"elapsed_ms"`
	State     StateDTO `json:"state"`
	Key       string   `json:"key"` // 对称约化后的局面键，对称局面相同
	HasWon    bool     `json:"has_won"`
	IsFull    bool     `json:"is_full"`
	Winner    string   `json:"winner,omitempty"`
}

type applyRequest struct {
	State StateDTO `json:"state"`
	Move  MoveDTO  `json:"move"`
}

type applyResponse struct {
	State  StateDTO `json:"state"`
	HasWon bool     `json:"has_won"`
	IsFull bool     `json:"is_full"`
	Winner string   `json:"winner,omitempty"`
}

type depthDTO struct {
	Depth     int     `json:"depth"`
	Move      MoveDTO `json:"move"`
	Score     int32   `json:"score"`
	Nodes     uint64  `json:"nodes"`
	TTHits    uint64  `json:"tt_hits"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toStateDTO(s game.State) StateDTO {
	var out StateDTO
	for c := board.Cell(0); c < board.Cells; c++ {
		if p, ok := s.Board.At(c); ok {
			out.Cells[c] = p.String()
		}
	}
	if p, ok := s.Board.Selected(); ok {
		out.Selected = p.String()
	}
	out.Turn = s.Turn.String()
	out.Unplaced = lo.Map(s.Board.UnplacedPieces(), func(p piece.Piece, _ int) string { return p.String() })
	return out
}

// State 解析并校验；格式错误同样归为 ErrInvalidState
func (d StateDTO) State() (game.State, error) {
	var cells [board.Cells]piece.Piece
	for i, v := range d.Cells {
		p, err := parsePiece(v)
		if err != nil {
			return game.State{}, errors.Wrapf(board.ErrInvalidState, "cell %d: %v", i, err)
		}
		cells[i] = p
	}
	sel, err := parsePiece(d.Selected)
	if err != nil {
		return game.State{}, errors.Wrapf(board.ErrInvalidState, "selected: %v", err)
	}
	b, err := board.FromCells(cells, sel)
	if err != nil {
		return game.State{}, err
	}
	turn, err := parsePlayer(d.Turn)
	if err != nil {
		return game.State{}, err
	}
	return game.State{Board: b, Turn: turn}, nil
}

func (m MoveDTO) Move() (board.Move, error) {
	if m.Row < 0 || m.Row >= board.Size || m.Col < 0 || m.Col >= board.Size {
		return board.NoMove, errors.Wrapf(board.ErrInvalidMove, "cell (%d,%d) out of range", m.Row, m.Col)
	}
	next, err := parsePiece(m.Next)
	if err != nil {
		return board.NoMove, errors.Wrapf(board.ErrInvalidMove, "next: %v", err)
	}
	return board.Move{Cell: board.CellAt(m.Row, m.Col), Next: next}, nil
}

func toMoveDTO(m board.Move) MoveDTO {
	out := MoveDTO{Row: m.Cell.Row(), Col: m.Cell.Col()}
	if m.Next != piece.None {
		out.Next = m.Next.String()
	}
	return out
}

func toMoveResponse(res search.Result, after game.State, keys *zobrist.Keys) moveResponse {
	key, _ := after.Key(keys)
	resp := moveResponse{
		Move:      toMoveDTO(res.Move),
		Score:     res.Score,
		Depth:     res.Depth,
		Nodes:     res.Nodes,
		Proven:    res.Proven,
		Cancelled: res.Cancelled,
		TimedOut:  res.TimedOut,
		ElapsedMs: ms(res.Elapsed),
		State:     toStateDTO(after),
		Key:       strconv.FormatUint(key, 16),
		HasWon:    after.Board.HasWon(),
		IsFull:    after.Board.IsFull(),
	}
	if w, ok := after.Winner(); ok {
		resp.Winner = w.String()
	}
	return resp
}

func toDepthDTO(st search.Stats) depthDTO {
	return depthDTO{
		Depth:     st.Depth,
		Move:      toMoveDTO(st.Move),
		Score:     st.Score,
		Nodes:     st.Nodes,
		TTHits:    st.TTHits,
		ElapsedMs: ms(st.Elapsed),
	}
}

func parsePiece(s string) (piece.Piece, error) {
	if s == "" {
		return piece.None, nil
	}
	return piece.Parse(s)
}

func parsePlayer(s string) (game.Player, error) {
	for _, p := range []game.Player{game.First, game.Second} {
		if p.String() == s {
			return p, nil
		}
	}
	return game.First, errors.Wrapf(board.ErrInvalidState, "unknown turn %q", s)
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
