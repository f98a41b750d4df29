// File internal/board/rules.go
package board

import (
	"github.com/pkg/errors"

	"quarto_go/internal/piece"
)

// Lines 10 条线：4 行、4 列、主对角、副对角
var Lines [NumLines][Size]Cell

// cellLines 每个格子所在的线（2 或 3 条）
var cellLines [Cells][]int8

func init() {
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			Lines[i][j] = CellAt(i, j)      // 行
			Lines[Size+i][j] = CellAt(j, i) // 列
		}
		Lines[2*Size][i] = CellAt(i, i)          // ↘
		Lines[2*Size+1][i] = CellAt(i, Size-1-i) // ↙
	}
	for li, line := range Lines {
		for _, c := range line {
			cellLines[c] = append(cellLines[c], int8(li))
		}
	}
}

// LineInfo 一条线上已放棋子的属性汇总
type LineInfo struct {
	Count int   // 已放棋子数
	Ones  uint8 // 所有棋子都为 1 的属性
	Zeros uint8 // 所有棋子都为 0 的属性
}

// Shared 共同属性掩码；空线返回 0
func (l LineInfo) Shared() uint8 {
	if l.Count == 0 {
		return 0
	}
	return l.Ones | l.Zeros
}

func (l LineInfo) Full() bool { return l.Count == Size }
func (l LineInfo) Winning() bool { return l.Full() && l.Shared() != 0 }

// Accepts 把 p 放进这条线后，是否仍有共同属性
func (l LineInfo) Accepts(p piece.Piece) bool {
	if l.Count == 0 {
		return true
	}
	pb := p.Bits()
	return (l.Ones&pb)|(l.Zeros&^pb&piece.AllMask) != 0
}

// Line 汇总第 i 条线
func (b Board) Line(i int) LineInfo {
	info := LineInfo{Ones: piece.AllMask, Zeros: piece.AllMask}
	for _, c := range Lines[i] {
		s := b.cells[c]
		if s == 0 {
			continue
		}
		pb := s.piece().Bits()
		info.Ones &= pb
		info.Zeros &= ^pb & piece.AllMask
		info.Count++
	}
	if info.Count == 0 {
		info.Ones, info.Zeros = 0, 0
	}
	return info
}

// HasWon 任意一条满线共享至少一个属性；遇到第一条即返回
func (b Board) HasWon() bool {
	for i := 0; i < NumLines; i++ {
		if b.Line(i).Winning() {
			return true
		}
	}
	return false
}

// WinsAt 在空格 c 放 p 是否立即成线；只看经过 c 的线
func (b Board) WinsAt(c Cell, p piece.Piece) bool {
	if b.cells[c] != 0 {
		return false
	}
	for _, li := range cellLines[c] {
		info := b.Line(int(li))
		if info.Count == Size-1 && info.Accepts(p) {
			return true
		}
	}
	return false
}

// LinesThrough 经过 c 的线编号
func LinesThrough(c Cell) []int8 { return cellLines[c] }

// --------------- 着法执行 ----------------

// Apply 返回落子后的新棋盘；原棋盘不变
func (b Board) Apply(m Move) (Board, error) {
	if b.selected == 0 {
		return b, errors.Wrap(ErrInvalidMove, "no selected piece to place")
	}
	if !m.Cell.Valid() {
		return b, errors.Wrapf(ErrInvalidMove, "cell %d out of range", m.Cell)
	}
	if b.cells[m.Cell] != 0 {
		return b, errors.Wrapf(ErrInvalidMove, "cell %v is occupied", m.Cell)
	}
	rest := b.Unplaced()
	if m.Next == piece.None {
		if rest != 0 {
			return b, errors.Wrap(ErrInvalidMove, "a piece must be handed over while pieces remain")
		}
	} else {
		if !m.Next.Valid() {
			return b, errors.Wrapf(ErrInvalidMove, "unknown piece %d", m.Next)
		}
		if rest&m.Next.Mask() == 0 {
			return b, errors.Wrapf(ErrInvalidMove, "piece %s already used", m.Next)
		}
	}
	return b.apply(m), nil
}

// apply 不做校验，供搜索内部使用
func (b Board) apply(m Move) Board {
	b.cells[m.Cell] = b.selected
	b.placed++
	b.selected = slotOf(m.Next)
	if m.Next != piece.None {
		b.used |= m.Next.Mask()
	}
	return b
}

// Advance 不校验的 Apply，调用方已保证合法（例如来自着法生成器）
func (b Board) Advance(m Move) Board { return b.apply(m) }
