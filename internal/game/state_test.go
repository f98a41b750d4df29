package game

import (
	"errors"
	"testing"

	"quarto_go/internal/board"
	"quarto_go/internal/symmetry"
	"quarto_go/internal/zobrist"
)

func TestTurnsAlternate(t *testing.T) {
	s, err := New().Opening(11)
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	if s.Turn != Second {
		t.Fatalf("second player places first")
	}
	next, err := s.Apply(board.Move{Cell: 0, Next: 3})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if next.Turn != First {
		t.Fatalf("turn must flip")
	}
	if _, ok := s.Board.At(0); ok {
		t.Fatalf("parent state must not be mutated")
	}
}

func TestWinnerIsLastMover(t *testing.T) {
	s, _ := New().Opening(1)
	moves := []board.Move{
		{Cell: board.CellAt(0, 0), Next: 3},
		{Cell: board.CellAt(0, 1), Next: 5},
		{Cell: board.CellAt(0, 2), Next: 7},
		{Cell: board.CellAt(0, 3), Next: 2},
	}
	var err error
	for _, m := range moves {
		if s, err = s.Apply(m); err != nil {
			t.Fatalf("apply %v: %v", m, err)
		}
	}
	w, ok := s.Winner()
	if !ok || !s.Over() {
		t.Fatalf("expected a finished game")
	}
	// Second 放了第 1、3 枚，First 放了第 2、4 枚
	if w != First {
		t.Fatalf("expected First to win, got %s", w)
	}
}

func TestValidateRejectsMissingSelection(t *testing.T) {
	if err := New().Validate(); !errors.Is(err, board.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	s, _ := New().Opening(0)
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestKeyIgnoresTurnAndOrientation(t *testing.T) {
	s, _ := New().Opening(4)
	s, _ = s.Apply(board.Move{Cell: board.CellAt(0, 1), Next: 9})
	k1, _ := s.Key(zobrist.Default)
	flipped := s
	flipped.Turn = flipped.Turn.Other()
	if k2, _ := flipped.Key(zobrist.Default); k1 != k2 {
		t.Fatalf("turn must not change the key")
	}
	for _, tr := range symmetry.All() {
		img := State{Board: tr.Board(s.Board), Turn: s.Turn}
		if k, _ := img.Key(zobrist.Default); k != k1 {
			t.Fatalf("transform %d changes the key", tr)
		}
	}
}
