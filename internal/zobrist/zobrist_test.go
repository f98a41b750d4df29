package zobrist

import (
	"math/rand"
	"testing"

	"quarto_go/internal/board"
	"quarto_go/internal/piece"
	"quarto_go/internal/symmetry"
)

func randomGame(t *testing.T, seed int64, plies int) []board.Board {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	b, err := board.New().WithSelected(piece.Piece(rng.Intn(piece.Count)))
	if err != nil {
		t.Fatalf("WithSelected: %v", err)
	}
	out := []board.Board{b}
	for i := 0; i < plies && !b.IsFull(); i++ {
		cells := b.LegalCells()
		rest := b.UnplacedPieces()
		m := board.Move{Cell: cells[rng.Intn(len(cells))], Next: piece.None}
		if len(rest) > 0 {
			m.Next = rest[rng.Intn(len(rest))]
		}
		if b, err = b.Apply(m); err != nil {
			t.Fatalf("apply: %v", err)
		}
		out = append(out, b)
	}
	return out
}

func TestSeedIsDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	if *a != *b {
		t.Fatalf("same seed must produce the same keys")
	}
	if *a == *New(43) {
		t.Fatalf("different seeds should produce different keys")
	}
	for c := range a.cell {
		for p := range a.cell[c] {
			if a.cell[c][p] == 0 {
				t.Fatalf("zero key at %d/%d", c, p)
			}
		}
	}
}

func TestIncrementalMatchesFull(t *testing.T) {
	k := New(7)
	rng := rand.New(rand.NewSource(11))
	b, _ := board.New().WithSelected(5)
	h := k.Hash(b)
	set := k.Symmetric(b)
	for !b.IsFull() {
		cells := b.LegalCells()
		rest := b.UnplacedPieces()
		m := board.Move{Cell: cells[rng.Intn(len(cells))], Next: piece.None}
		if len(rest) > 0 {
			m.Next = rest[rng.Intn(len(rest))]
		}
		sel, _ := b.Selected()
		h = k.Select(k.Place(h, m.Cell, sel), sel, m.Next)
		set = set.Apply(k, sel, m)
		b = b.Advance(m)
		if h != k.Hash(b) {
			t.Fatalf("incremental hash diverged after %v", m)
		}
		if set != k.Symmetric(b) {
			t.Fatalf("incremental symmetric set diverged after %v", m)
		}
	}
}

func TestSetEntriesAreHashesOfImages(t *testing.T) {
	k := Default
	for _, b := range randomGame(t, 3, 9) {
		set := k.Symmetric(b)
		for _, tr := range symmetry.All() {
			if set[tr] != k.Hash(tr.Board(b)) {
				t.Fatalf("set[%d] != Hash(image)", tr)
			}
		}
	}
}

func TestSymmetricBoardsShareCanonicalKey(t *testing.T) {
	k := Default
	for seed := int64(0); seed < 20; seed++ {
		game := randomGame(t, seed, 7)
		b := game[len(game)-1]
		want, wt := k.Symmetric(b).Canonical()
		for _, img := range symmetry.Orbit(b) {
			got, gt := k.Symmetric(img).Canonical()
			if got != want {
				t.Fatalf("seed %d: canonical key differs for a symmetric image", seed)
			}
			// 两个变换都应把各自的局面送到同一个规范朝向
			if gt.Board(img) != wt.Board(b) {
				t.Fatalf("seed %d: canonical orientation differs", seed)
			}
		}
	}
}

func TestSelectedPieceChangesKey(t *testing.T) {
	b1, _ := board.New().WithSelected(1)
	b2, _ := board.New().WithSelected(2)
	if Default.Hash(b1) == Default.Hash(b2) || Default.Hash(b1) == Default.Hash(board.New()) {
		t.Fatalf("selected piece must be part of the key")
	}
}
