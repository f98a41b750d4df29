// File: internal/piece/piece.go
package piece

import (
	"math/bits"
	"strconv"

	"github.com/pkg/errors"
)

const (
	Count      = 16 // 棋子总数
	Attributes = 4  // 每个棋子 4 个二值属性
	AllMask    = uint8(Count - 1)

	None = Piece(-1) // 空 / 没有棋子
)

// Piece 用 4 个 bit 编码：高位→低位 = Large / Round / Hollow / White
type Piece int8

// Attribute 单个属性所在的 bit
type Attribute uint8

const (
	White Attribute = 1 << iota
	Hollow
	Round
	Large
)

var attrNames = [Attributes]string{"white", "hollow", "round", "large"}

// FromBits 取低 4 位构造棋子，域封闭，不会失败
func FromBits(b uint8) Piece { return Piece(b & AllMask) }

// Parse 解析 "1011" 形式的 4 位二进制串
func Parse(s string) (Piece, error) {
	if len(s) != Attributes {
		return None, errors.Errorf("piece %q: want %d binary digits", s, Attributes)
	}
	v, err := strconv.ParseUint(s, 2, 8)
	if err != nil {
		return None, errors.Wrapf(err, "piece %q", s)
	}
	return Piece(v), nil
}

// All 返回 0..15 全部棋子
func All() []Piece {
	out := make([]Piece, Count)
	for i := range out {
		out[i] = Piece(i)
	}
	return out
}

func (p Piece) Valid() bool { return p >= 0 && p < Count }

func (p Piece) Bits() uint8 { return uint8(p) & AllMask }

func (p Piece) Has(a Attribute) bool { return p.Bits()&uint8(a) != 0 }

// Mask 位集合中该棋子对应的 bit（用于 uint16 棋子集合）
func (p Piece) Mask() uint16 { return 1 << uint(p) }

func (p Piece) String() string {
	if !p.Valid() {
		return "----"
	}
	s := strconv.FormatUint(uint64(p.Bits()), 2)
	for len(s) < Attributes {
		s = "0" + s
	}
	return s
}

func (a Attribute) String() string {
	i := bits.TrailingZeros8(uint8(a))
	if i >= Attributes || bits.OnesCount8(uint8(a)) != 1 {
		return "attribute(" + strconv.Itoa(int(a)) + ")"
	}
	return attrNames[i]
}

// Shared 返回所有棋子取值一致的属性掩码；没有棋子时返回 0
func Shared(ps ...Piece) uint8 {
	if len(ps) == 0 {
		return 0
	}
	ones, zeros := AllMask, AllMask
	for _, p := range ps {
		ones &= p.Bits()
		zeros &= ^p.Bits() & AllMask
	}
	return ones | zeros
}
