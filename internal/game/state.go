// File: internal/game/state.go
package game

import (
	"github.com/pkg/errors"

	"quarto_go/internal/board"
	"quarto_go/internal/piece"
	"quarto_go/internal/symmetry"
	"quarto_go/internal/zobrist"
)

// Player 谁来落下当前选中的棋子
type Player int8

const (
	First Player = iota
	Second
)

func (p Player) Other() Player { return p ^ 1 }

func (p Player) String() string {
	if p == First {
		return "first"
	}
	return "second"
}

// State 搜索单元：棋盘快照 + 轮到谁。值语义，各分支互不影响。
type State struct {
	Board board.Board
	Turn  Player
}

// New 开局：First 先挑一枚棋子交给 Second，Second 先落子
func New() State { return State{Turn: Second} }

// Opening First 交出第一枚棋子
func (s State) Opening(p piece.Piece) (State, error) {
	b, err := s.Board.WithSelected(p)
	if err != nil {
		return s, err
	}
	s.Board = b
	return s, nil
}

// Apply 落子 + 交棋，轮次交换
func (s State) Apply(m board.Move) (State, error) {
	b, err := s.Board.Apply(m)
	if err != nil {
		return s, errors.WithMessagef(err, "%s player", s.Turn)
	}
	return State{Board: b, Turn: s.Turn.Other()}, nil
}

// Over 有人成线或棋盘已满
func (s State) Over() bool { return s.Board.HasWon() || s.Board.IsFull() }

// Winner 成线者是刚刚落子的一方，即当前 Turn 的对手
func (s State) Winner() (Player, bool) {
	if !s.Board.HasWon() {
		return 0, false
	}
	return s.Turn.Other(), true
}

// Validate 局面是否可以交给搜索
func (s State) Validate() error {
	if err := s.Board.Validate(); err != nil {
		return err
	}
	if s.Turn != First && s.Turn != Second {
		return errors.Wrapf(board.ErrInvalidState, "unknown player %d", s.Turn)
	}
	if _, ok := s.Board.Selected(); !ok && len(s.Board.LegalCells()) > 0 {
		return errors.Wrap(board.ErrInvalidState, "no selected piece but empty cells remain")
	}
	return nil
}

// Key 规范（对称约化后）Zobrist 键及所用变换。
// Turn 不参与：两人共用同一批棋子，局面对“该走的一方”的价值与是谁无关。
func (s State) Key(k *zobrist.Keys) (uint64, symmetry.Transform) {
	return k.Symmetric(s.Board).Canonical()
}
