package movegen

import (
	"testing"

	"quarto_go/internal/board"
	"quarto_go/internal/piece"
	"quarto_go/internal/zobrist"
)

func opened(t *testing.T, p piece.Piece) board.Board {
	t.Helper()
	b, err := board.New().WithSelected(p)
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	return b
}

func count(b board.Board) int {
	n := 0
	for range Generate(b) {
		n++
	}
	return n
}

func TestGenerateEmptyBoard(t *testing.T) {
	b := opened(t, 0b1011)
	if n := count(b); n != 16*15 {
		t.Fatalf("want 240 raw options, got %d", n)
	}
	for m := range Generate(b) {
		if _, err := b.Apply(m); err != nil {
			t.Fatalf("generated illegal move %v: %v", m, err)
		}
	}
	if n := count(board.New()); n != 0 {
		t.Fatalf("nothing to place, got %d options", n)
	}
}

func TestGenerateStopsEarly(t *testing.T) {
	b := opened(t, 3)
	n := 0
	for range Generate(b) {
		n++
		if n == 5 {
			break
		}
	}
	if n != 5 {
		t.Fatalf("iteration did not stop")
	}
}

func TestSymmetricPlacementsCollapse(t *testing.T) {
	g := New(zobrist.Default)

	empty := opened(t, 0b1011)
	if n := len(g.Ordered(empty, g.Keys().Symmetric(empty), board.NoMove)); n != 3*15 {
		t.Fatalf("empty board: corner/edge/centre × 15 pieces = 45, got %d", n)
	}

	// 角落开局后：210 个原始选项，去掉对称重复剩 126
	corner := empty.Advance(board.Move{Cell: board.CellAt(0, 0), Next: 4})
	if n := count(corner); n != 210 {
		t.Fatalf("want 210 raw options, got %d", n)
	}
	opts := g.Ordered(corner, g.Keys().Symmetric(corner), board.NoMove)
	if len(opts) != 126 {
		t.Fatalf("want 126 distinct options, got %d", len(opts))
	}

	seen := map[uint64]bool{}
	for _, o := range opts {
		child := corner.Advance(o.Move)
		if o.Key != g.Keys().Symmetric(child) {
			t.Fatalf("incremental key mismatch for %v", o.Move)
		}
		k, _ := o.Key.Canonical()
		if seen[k] {
			t.Fatalf("duplicate child class for %v", o.Move)
		}
		seen[k] = true
	}
}

func TestWinningPlacementIsTheOnlyOption(t *testing.T) {
	var cells [board.Cells]piece.Piece
	for i := range cells {
		cells[i] = piece.None
	}
	cells[0], cells[1], cells[2] = 1, 3, 5
	b, err := board.FromCells(cells, 7)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g := New(nil)
	opts := g.Ordered(b, g.Keys().Symmetric(b), board.NoMove)
	if len(opts) != 1 || !opts[0].Wins || opts[0].Move.Cell != board.CellAt(0, 3) {
		t.Fatalf("expected the single winning placement, got %+v", opts)
	}
	if _, err := b.Apply(opts[0].Move); err != nil {
		t.Fatalf("winning move must be legal: %v", err)
	}
}

func TestPoisonSinksAndHintLeads(t *testing.T) {
	var cells [board.Cells]piece.Piece
	for i := range cells {
		cells[i] = piece.None
	}
	cells[0], cells[1], cells[2] = 1, 3, 5
	b, err := board.FromCells(cells, 8)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g := New(nil)
	set := g.Keys().Symmetric(b)
	opts := g.Ordered(b, set, board.NoMove)

	var poison, clean int
	for i, o := range opts {
		if o.Poison {
			poison++
			continue
		}
		clean++
		if i > 0 && opts[i-1].Poison {
			t.Fatalf("clean option %v after a poison one", o.Move)
		}
	}
	if poison == 0 || clean == 0 {
		t.Fatalf("expected both kinds, poison=%d clean=%d", poison, clean)
	}

	again := g.Ordered(b, set, board.NoMove)
	for i := range opts {
		if opts[i].Move != again[i].Move {
			t.Fatalf("ordering is not deterministic at %d", i)
		}
	}

	hint := opts[len(opts)/2].Move
	hinted := g.Ordered(b, set, hint)
	if len(hinted) != len(opts) || hinted[0].Move != hint {
		t.Fatalf("hint %v should lead, got %v", hint, hinted[0].Move)
	}
}
