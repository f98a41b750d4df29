// internal/movegen/movegen.go
package movegen

import (
	"iter"
	"math/bits"
	"sort"

	"quarto_go/internal/board"
	"quarto_go/internal/eval"
	"quarto_go/internal/piece"
	"quarto_go/internal/zobrist"
)

// Option 一个候选着法，连同排序分和子局面的对称哈希
type Option struct {
	Move   board.Move
	Score  int32 // 站在走子方的粗略评分，只用于排序
	Wins   bool  // 这一步直接成线
	Poison bool  // 交出的棋子能让对手直接成线
	Key    zobrist.Set
}

// Generate 所有合法 (落点, 交子) 组合，不做去重；棋子交完后交子为 None
func Generate(b board.Board) iter.Seq[board.Move] {
	return func(yield func(board.Move) bool) {
		if _, ok := b.Selected(); !ok {
			return
		}
		rest := b.Unplaced()
		for _, c := range b.LegalCells() {
			if rest == 0 {
				if !yield(board.Move{Cell: c, Next: piece.None}) {
					return
				}
				continue
			}
			for m := rest; m != 0; m &= m - 1 {
				if !yield(board.Move{Cell: c, Next: piece.Piece(bits.TrailingZeros16(m))}) {
					return
				}
			}
		}
	}
}

// Generator 带 zobrist 键表的排序器；无内部状态，可并发使用
type Generator struct {
	keys *zobrist.Keys
}

func New(keys *zobrist.Keys) *Generator {
	if keys == nil {
		keys = zobrist.Default
	}
	return &Generator{keys: keys}
}

func (g *Generator) Keys() *zobrist.Keys { return g.keys }

// Ordered 生成并排序当前节点的候选着法。set 是 b 的对称哈希。
//   - 放下棋子后互为对称的落点只保留一个（hint 的落点优先保留）
//   - 能直接成线的落点只返回这一个着法
//   - 毒子沉底；其余按分数降序，再按落点、棋子分组
//   - hint 若在列表中则排到最前
func (g *Generator) Ordered(b board.Board, set zobrist.Set, hint board.Move) []Option {
	sel, ok := b.Selected()
	if !ok {
		return nil
	}
	rest := b.Unplaced()
	cells := b.LegalCells()
	if hint.Cell.Valid() {
		for i, c := range cells {
			if c == hint.Cell {
				copy(cells[1:i+1], cells[:i])
				cells[0] = c
				break
			}
		}
	}

	out := make([]Option, 0, len(cells)*max(1, bits.OnesCount16(rest)))
	seen := make([]uint64, 0, len(cells))
	for _, c := range cells {
		placedSet := set.Place(g.keys, c, sel).Select(g.keys, sel, piece.None)
		pk, _ := placedSet.Canonical()
		if contains(seen, pk) {
			continue
		}
		seen = append(seen, pk)

		placed := b.Advance(board.Move{Cell: c, Next: piece.None})
		if placed.HasWon() {
			next := piece.None
			if rest != 0 {
				next = piece.Piece(bits.TrailingZeros16(rest))
			}
			m := board.Move{Cell: c, Next: next}
			return []Option{{
				Move:  m,
				Score: eval.WinScore,
				Wins:  true,
				Key:   set.Apply(g.keys, sel, m),
			}}
		}

		pos := eval.Analyze(placed)
		if rest == 0 {
			m := board.Move{Cell: c, Next: piece.None}
			out = append(out, Option{Move: m, Key: set.Apply(g.keys, sel, m)})
			continue
		}
		for m := rest; m != 0; m &= m - 1 {
			next := piece.Piece(bits.TrailingZeros16(m))
			mv := board.Move{Cell: c, Next: next}
			out = append(out, Option{
				Move:   mv,
				Score:  -pos.Score(next, rest&^next.Mask()),
				Poison: pos.Threats.Completes(next),
				Key:    placedSet.Select(g.keys, piece.None, next),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	if hint.Cell.Valid() {
		for i := range out {
			if out[i].Move == hint {
				h := out[i]
				copy(out[1:i+1], out[:i])
				out[0] = h
				break
			}
		}
	}
	return out
}

func less(a, b *Option) bool {
	if a.Poison != b.Poison {
		return !a.Poison
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Move.Cell != b.Move.Cell {
		return a.Move.Cell < b.Move.Cell
	}
	return a.Move.Next < b.Move.Next
}

func contains(keys []uint64, k uint64) bool {
	for _, v := range keys {
		if v == k {
			return true
		}
	}
	return false
}
