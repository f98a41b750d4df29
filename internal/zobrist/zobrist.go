// File: internal/zobrist/zobrist.go
package zobrist

import (
	"encoding/binary"

	"lukechampine.com/frand"

	"quarto_go/internal/board"
	"quarto_go/internal/piece"
	"quarto_go/internal/symmetry"
)

// DefaultSeed 固定种子：同一种子 → 同一张键表，测试可复现
const DefaultSeed uint64 = 0x51A7_0C0D_E15E_ED01

// noneIndex “没有选中棋子”对应的下标
const noneIndex = piece.Count

// Keys 每个 (格子, 棋子) 一个键，另加每个“选中棋子”状态一个键
type Keys struct {
	seed     uint64
	cell     [board.Cells][piece.Count]uint64
	selected [piece.Count + 1]uint64
}

// Default 进程级只读键表
var Default = New(DefaultSeed)

// New 用 ChaCha 流 (frand.NewCustom) 从 seed 生成键表
func New(seed uint64) *Keys {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	binary.LittleEndian.PutUint64(key[8:16], ^seed)
	rng := frand.NewCustom(key[:], 1024, 12)

	next := func() uint64 {
		var buf [8]byte
		for {
			rng.Read(buf[:])
			// 避免生成 0（XOR 不起作用）
			if v := binary.LittleEndian.Uint64(buf[:]); v != 0 {
				return v
			}
		}
	}

	k := &Keys{seed: seed}
	for c := range k.cell {
		for p := range k.cell[c] {
			k.cell[c][p] = next()
		}
	}
	for i := range k.selected {
		k.selected[i] = next()
	}
	return k
}

func (k *Keys) Seed() uint64 { return k.seed }

func selIndex(p piece.Piece) int {
	if !p.Valid() {
		return noneIndex
	}
	return int(p)
}

// Place 对 (cell, piece) 做一次 XOR：落子 / 撤子 都用它
func (k *Keys) Place(h uint64, c board.Cell, p piece.Piece) uint64 {
	return h ^ k.cell[c][p]
}

// Select 把选中棋子从 from 换成 to（piece.None 表示没有）
func (k *Keys) Select(h uint64, from, to piece.Piece) uint64 {
	return h ^ k.selected[selIndex(from)] ^ k.selected[selIndex(to)]
}

// Hash 整盘计算
func (k *Keys) Hash(b board.Board) uint64 {
	var h uint64
	for c := board.Cell(0); c < board.Cells; c++ {
		if p, ok := b.At(c); ok {
			h ^= k.cell[c][p]
		}
	}
	sel, _ := b.Selected()
	return h ^ k.selected[selIndex(sel)]
}

// ──────────────────────── 对称哈希 ────────────────────────

// Set 一个局面在 8 种对称下的哈希：Set[t] == Hash(t.Board(b))
// 对称局面拥有同一个集合，所以最小值相同。
type Set [symmetry.Count]uint64

// Symmetric 整盘计算 8 个哈希；只在搜索根节点用，其余节点走增量
func (k *Keys) Symmetric(b board.Board) Set {
	var s Set
	for t, img := range symmetry.Orbit(b) {
		s[t] = k.Hash(img)
	}
	return s
}

// Place 增量：在 c 放 p
func (s Set) Place(k *Keys, c board.Cell, p piece.Piece) Set {
	for t := symmetry.Transform(0); t < symmetry.Count; t++ {
		s[t] ^= k.cell[t.Apply(c)][p]
	}
	return s
}

// Select 增量：选中棋子 from → to
func (s Set) Select(k *Keys, from, to piece.Piece) Set {
	d := k.selected[selIndex(from)] ^ k.selected[selIndex(to)]
	for t := range s {
		s[t] ^= d
	}
	return s
}

// Apply 增量执行一步：放下当前选中棋子 sel，再选中 m.Next
func (s Set) Apply(k *Keys, sel piece.Piece, m board.Move) Set {
	return s.Place(k, m.Cell, sel).Select(k, sel, m.Next)
}

// Canonical 最小哈希 + 产生它的变换（平局取编号最小的变换）
func (s Set) Canonical() (uint64, symmetry.Transform) {
	best, bt := s[0], symmetry.Identity
	for t := 1; t < symmetry.Count; t++ {
		if s[t] < best {
			best, bt = s[t], symmetry.Transform(t)
		}
	}
	return best, bt
}
