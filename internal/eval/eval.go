// internal/eval/eval.go
package eval

import (
	"math/bits"

	"quarto_go/internal/board"
	"quarto_go/internal/piece"
)

/*
   启发指标
   ─────────
   hLine   每条未满、仍有共同属性的线：权重(已放子数) × 共同属性个数
   hThreat 手上的棋子能补全某条 3 子线 → 近乎必胜
   hPoison 放完之后剩下的每一枚都会送对手赢 → 惩罚

   分数总是站在“该走的一方”（手里拿着 selected 的一方）。
*/

// ─── 权重与阈值 ───
const (
	threatBonus   = 4096
	poisonPenalty = 512
)

// lineWeight 按线上已放子数加权，越接近满线越重；单子线不计
var lineWeight = [board.Size]int32{0, 0, 4, 8}

// Threat 差一枚就满、且仍有共同属性的线
type Threat struct {
	Line  int
	Ones  uint8 // 补全所需：这些位为 1
	Zeros uint8 // 或这些位为 0
}

// Completes p 放进这条线是否成线
func (t Threat) Completes(p piece.Piece) bool {
	pb := p.Bits()
	return (t.Ones&pb)|(t.Zeros&^pb&piece.AllMask) != 0
}

// Threats 定长集合，叶子节点上不分配内存
type Threats struct {
	list [board.NumLines]Threat
	n    int
}

func (ts *Threats) add(t Threat) {
	ts.list[ts.n] = t
	ts.n++
}

func (ts *Threats) Len() int { return ts.n }

func (ts *Threats) All() []Threat { return ts.list[:ts.n] }

// Completes 任意一条威胁线被 p 补全
func (ts *Threats) Completes(p piece.Piece) bool {
	for i := 0; i < ts.n; i++ {
		if ts.list[i].Completes(p) {
			return true
		}
	}
	return false
}

// Safe 从 mask 中挑出不会补全任何威胁线的棋子
func (ts *Threats) Safe(mask uint16) uint16 {
	var out uint16
	for m := mask; m != 0; m &= m - 1 {
		p := piece.Piece(bits.TrailingZeros16(m))
		if !ts.Completes(p) {
			out |= p.Mask()
		}
	}
	return out
}

// ThreatsOf 收集所有 3 子威胁线
func ThreatsOf(b board.Board) Threats {
	var ts Threats
	for i := 0; i < board.NumLines; i++ {
		info := b.Line(i)
		if info.Count == board.Size-1 && info.Shared() != 0 {
			ts.add(Threat{Line: i, Ones: info.Ones, Zeros: info.Zeros})
		}
	}
	return ts
}

// Position 一次扫线的结果，着法排序对同一落子的不同交子复用它
type Position struct {
	Lines   int32
	Threats Threats
}

// Analyze 扫描 10 条线；满线（终局）由搜索处理，这里跳过
func Analyze(b board.Board) Position {
	var pos Position
	for i := 0; i < board.NumLines; i++ {
		info := b.Line(i)
		if info.Full() {
			continue
		}
		shared := info.Shared()
		if shared == 0 {
			continue
		}
		if info.Count == board.Size-1 {
			pos.Threats.add(Threat{Line: i, Ones: info.Ones, Zeros: info.Zeros})
		}
		pos.Lines += lineWeight[info.Count] * int32(bits.OnesCount8(shared))
	}
	return pos
}

// Score 该走的一方手里拿着 sel，rest 是放完后还能交出的棋子
func (pos *Position) Score(sel piece.Piece, rest uint16) int32 {
	score := pos.Lines
	if pos.Threats.Len() == 0 {
		return score
	}
	if pos.Threats.Completes(sel) {
		return threatBonus + score
	}
	if rest != 0 && pos.Threats.Safe(rest) == 0 {
		score -= poisonPenalty
	}
	return score
}

// Evaluate 非终局叶子的静态评分，站在该走的一方
func Evaluate(b board.Board) int32 {
	sel, ok := b.Selected()
	if !ok {
		return Draw
	}
	pos := Analyze(b)
	return pos.Score(sel, b.Unplaced())
}
