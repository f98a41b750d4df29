// Package symmetry 正方形的 8 种对称（4 个旋转 × 是否镜像）
package symmetry

import "quarto_go/internal/board"

const Count = 8

// Transform 低 2 位 = 顺时针 90° 旋转次数，bit2 = 旋转后左右镜像
type Transform uint8

const Identity Transform = 0

var (
	perms    [Count][board.Cells]board.Cell
	inverses [Count]Transform
	compose  [Count][Count]Transform
)

func init() {
	for t := Transform(0); t < Count; t++ {
		for c := board.Cell(0); c < board.Cells; c++ {
			r, col := c.Row(), c.Col()
			for k := 0; k < int(t&3); k++ {
				r, col = col, board.Size-1-r // 顺时针 90°
			}
			if t&4 != 0 {
				col = board.Size - 1 - col
			}
			perms[t][c] = board.CellAt(r, col)
		}
	}
	for a := Transform(0); a < Count; a++ {
		for b := Transform(0); b < Count; b++ {
			for t := Transform(0); t < Count; t++ {
				if perms[t] == chain(a, b) {
					compose[a][b] = t
				}
			}
		}
	}
	for t := Transform(0); t < Count; t++ {
		for u := Transform(0); u < Count; u++ {
			if t.Then(u) == Identity {
				inverses[t] = u
			}
		}
	}
}

// chain 先 a 后 b
func chain(a, b Transform) [board.Cells]board.Cell {
	var out [board.Cells]board.Cell
	for c := range out {
		out[c] = perms[b][perms[a][c]]
	}
	return out
}

// All 8 个变换，Identity 在前
func All() []Transform {
	out := make([]Transform, Count)
	for i := range out {
		out[i] = Transform(i)
	}
	return out
}

func (t Transform) Apply(c board.Cell) board.Cell { return perms[t][c] }

func (t Transform) Inverse() Transform { return inverses[t] }

// Then 先 t 后 u
func (t Transform) Then(u Transform) Transform { return compose[t][u] }

func (t Transform) Perm() [board.Cells]board.Cell { return perms[t] }

// Board 对整个棋盘做变换；选中棋子、剩余棋子不受影响
func (t Transform) Board(b board.Board) board.Board {
	if t == Identity {
		return b
	}
	return b.Remap(t.Perm())
}

// Move 把着法坐标变换到 t 之后的朝向
func (t Transform) Move(m board.Move) board.Move {
	if !m.Cell.Valid() {
		return m
	}
	m.Cell = t.Apply(m.Cell)
	return m
}

// Canonicalize 返回 8 个像中编码字典序最小者，以及得到它的变换
func Canonicalize(b board.Board) (board.Board, Transform) {
	best, bestT := b, Identity
	bestEnc := b.Encoding()
	for t, img := range Orbit(b) {
		if enc := img.Encoding(); less(enc, bestEnc) {
			best, bestT, bestEnc = img, Transform(t), enc
		}
	}
	return best, bestT
}

// Orbit 8 个像（可能有重复）
func Orbit(b board.Board) [Count]board.Board {
	var out [Count]board.Board
	for t := Transform(0); t < Count; t++ {
		out[t] = t.Board(b)
	}
	return out
}

func less(a, b [board.Cells]uint8) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
