// File internal/board/board.go
package board

import (
	"math/bits"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"quarto_go/internal/piece"
)

const (
	Size     = 4
	Cells    = Size * Size // 16 格
	NumLines = 2*Size + 2  // 4 行 + 4 列 + 2 对角线
)

// Cell 格子索引 row*4+col
type Cell int8

func CellAt(r, c int) Cell { return Cell(r*Size + c) }

func (c Cell) Row() int { return int(c) / Size }
func (c Cell) Col() int { return int(c) % Size }
func (c Cell) Valid() bool { return c >= 0 && c < Cells }
func (c Cell) String() string {
	if !c.Valid() {
		return "(-,-)"
	}
	return "(" + string(rune('0'+c.Row())) + "," + string(rune('0'+c.Col())) + ")"
}

// slot：0 = 空，否则 piece+1。这样 Board 的零值就是一个合法的空棋盘。
type slot uint8

func slotOf(p piece.Piece) slot {
	if !p.Valid() {
		return 0
	}
	return slot(p + 1)
}

func (s slot) piece() piece.Piece {
	if s == 0 {
		return piece.None
	}
	return piece.Piece(s - 1)
}

// Board 值类型，按值传递；任何修改都返回新副本
type Board struct {
	cells    [Cells]slot
	selected slot
	used     uint16 // 已落子 + 已选中 的棋子集合
	placed   int8   // 已落子数，IsFull 用
}

// --------------------- 构造 ------------------------

// New 空棋盘，尚未选出第一枚棋子
func New() Board { return Board{} }

// FromCells 由 16 格内容 + 当前选中棋子构造局面，并校验棋子守恒
func FromCells(cells [Cells]piece.Piece, selected piece.Piece) (Board, error) {
	var b Board
	for i, p := range cells {
		if p == piece.None {
			continue
		}
		if !p.Valid() {
			return Board{}, errors.Wrapf(ErrInvalidState, "cell %v holds unknown piece %d", Cell(i), p)
		}
		if b.used&p.Mask() != 0 {
			return Board{}, errors.Wrapf(ErrInvalidState, "piece %s appears twice", p)
		}
		b.cells[i] = slotOf(p)
		b.used |= p.Mask()
		b.placed++
	}
	if selected != piece.None {
		if !selected.Valid() {
			return Board{}, errors.Wrapf(ErrInvalidState, "unknown selected piece %d", selected)
		}
		if b.used&selected.Mask() != 0 {
			return Board{}, errors.Wrapf(ErrInvalidState, "selected piece %s is already on the board", selected)
		}
		b.selected = slotOf(selected)
		b.used |= selected.Mask()
	}
	return b, nil
}

// WithSelected 开局时把第一枚棋子交给对手
func (b Board) WithSelected(p piece.Piece) (Board, error) {
	switch {
	case b.selected != 0:
		return b, errors.Wrapf(ErrInvalidMove, "piece %s is already selected", b.selected.piece())
	case !p.Valid():
		return b, errors.Wrapf(ErrInvalidMove, "unknown piece %d", p)
	case b.used&p.Mask() != 0:
		return b, errors.Wrapf(ErrInvalidMove, "piece %s already used", p)
	}
	b.selected = slotOf(p)
	b.used |= p.Mask()
	return b, nil
}

// -------------------- 查询 -----------------------------

// At 读格子；ok=false 表示空
func (b Board) At(c Cell) (piece.Piece, bool) {
	p := b.cells[c].piece()
	return p, p != piece.None
}

// Selected 本回合必须落下的棋子
func (b Board) Selected() (piece.Piece, bool) {
	p := b.selected.piece()
	return p, p != piece.None
}

func (b Board) Placed() int { return int(b.placed) }

// Unplaced 既不在棋盘上也不是当前选中的棋子集合
func (b Board) Unplaced() uint16 { return ^b.used }

func (b Board) UnplacedCount() int { return bits.OnesCount16(b.Unplaced()) }

// UnplacedPieces 按编号升序
func (b Board) UnplacedPieces() []piece.Piece {
	rest := b.Unplaced()
	return lo.Filter(piece.All(), func(p piece.Piece, _ int) bool {
		return rest&p.Mask() != 0
	})
}

// LegalCells 空格，按索引升序；满盘返回空
func (b Board) LegalCells() []Cell {
	out := make([]Cell, 0, Cells-int(b.placed))
	for c := Cell(0); c < Cells; c++ {
		if b.cells[c] == 0 {
			out = append(out, c)
		}
	}
	return out
}

// IsFull O(1)：计数器判断，不扫描格子
func (b Board) IsFull() bool { return b.placed == Cells && b.selected == 0 }

// Validate 检查棋子守恒：每个棋子至多出现在一个位置，总数 16
func (b Board) Validate() error {
	var seen uint16
	var placed int8
	for i, s := range b.cells {
		if s == 0 {
			continue
		}
		p := s.piece()
		if !p.Valid() {
			return errors.Wrapf(ErrInvalidState, "cell %v holds unknown piece", Cell(i))
		}
		if seen&p.Mask() != 0 {
			return errors.Wrapf(ErrInvalidState, "piece %s appears twice", p)
		}
		seen |= p.Mask()
		placed++
	}
	if placed != b.placed {
		return errors.Wrapf(ErrInvalidState, "placed counter %d, board holds %d", b.placed, placed)
	}
	if b.selected != 0 {
		p := b.selected.piece()
		if seen&p.Mask() != 0 {
			return errors.Wrapf(ErrInvalidState, "selected piece %s is already on the board", p)
		}
		seen |= p.Mask()
	}
	if seen != b.used {
		return errors.Wrapf(ErrInvalidState, "piece accounting mismatch %016b vs %016b", seen, b.used)
	}
	return nil
}

// Remap 按排列 perm 搬动格子（perm[c] = c 的新位置）
func (b Board) Remap(perm [Cells]Cell) Board {
	out := b
	for c := range b.cells {
		out.cells[perm[c]] = b.cells[c]
	}
	return out
}

// Encoding 用于字典序比较的编码（0 = 空）
func (b Board) Encoding() [Cells]uint8 {
	var out [Cells]uint8
	for i, s := range b.cells {
		out[i] = uint8(s)
	}
	return out
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if p, ok := b.At(CellAt(r, c)); ok {
				sb.WriteString(p.String())
			} else {
				sb.WriteString("....")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("selected: ")
	sb.WriteString(b.selected.piece().String())
	return sb.String()
}
