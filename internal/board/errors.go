package board

import "github.com/pkg/errors"

var (
	// ErrInvalidMove 着法与局面不符：格子已占、棋子已用、没有选中棋子
	ErrInvalidMove = errors.New("invalid move")
	// ErrInvalidState 局面本身不合法：棋子守恒被破坏
	ErrInvalidState = errors.New("invalid state")
)
