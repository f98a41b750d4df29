package board

import "quarto_go/internal/piece"

// Move 一步 = 把选中棋子放到 Cell + 把 Next 交给对手（无剩余棋子时为 piece.None）
type Move struct {
	Cell Cell
	Next piece.Piece
}

var NoMove = Move{Cell: -1, Next: piece.None}

func (m Move) IsZero() bool { return m == NoMove }

func (m Move) String() string { return m.Cell.String() + "->" + m.Next.String() }

// Pack 紧凑编码，0 留给 NoMove：低 5 位 cell+1，高位 next+1
func (m Move) Pack() uint16 {
	if !m.Cell.Valid() {
		return 0
	}
	return uint16(m.Cell+1) | uint16(m.Next+1)<<5
}

func Unpack(v uint16) Move {
	if v == 0 {
		return NoMove
	}
	return Move{Cell: Cell(v&0x1F) - 1, Next: piece.Piece(v>>5) - 1}
}
