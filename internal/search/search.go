// internal/search/search.go
package search

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"quarto_go/internal/board"
	"quarto_go/internal/eval"
	"quarto_go/internal/game"
	"quarto_go/internal/movegen"
	"quarto_go/internal/piece"
	"quarto_go/internal/tt"
	"quarto_go/internal/zobrist"
)

const inf = eval.WinScore + 1

var (
	// ErrCancelled 调用方取消时连深度 1 都没跑完，没有可用着法
	ErrCancelled = errors.New("search cancelled before any depth completed")
	// ErrTerminal 对已经结束的对局发起搜索
	ErrTerminal = errors.New("search invoked on a finished game")
)

/* ──────────────── 公开 API ──────────────── */

// Options 都可以留空
type Options struct {
	// Logger nil 时不输出
	Logger *zerolog.Logger
	// OnDepth 每完成一层同步回调一次
	OnDepth func(Stats)
	// Table 显式共享的置换表；nil 时每次调用新建一张（TableBytes 大小）
	Table      *tt.Table
	TableBytes int
	Keys       *zobrist.Keys
	// Limits 覆盖难度自带的上限
	Limits *Limits
}

// Stats 一层迭代完成后的统计
type Stats struct {
	Depth   int
	Move    board.Move
	Score   int32
	Nodes   uint64
	TTHits  uint64
	Elapsed time.Duration
}

type Result struct {
	Move      board.Move
	Score     int32 // 站在走子方
	Depth     int   // 最后一层完整跑完的深度
	Nodes     uint64
	Proven    bool // 分数来自终局推导
	Cancelled bool // 调用方取消，返回的是已完成的最深一层
	TimedOut  bool
	Elapsed   time.Duration
}

// FindBestMove 迭代加深的 negamax。ctx 是取消信号；预算到时返回已完成的最深一层。
// 深度 1 不受时间预算约束，只有取消能打断它。
func FindBestMove(ctx context.Context, s game.State, d Difficulty, opts Options) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	if s.Over() {
		return Result{}, errors.Wrapf(ErrTerminal, "board:\n%s", s.Board)
	}
	limits := DefaultLimits(d)
	if opts.Limits != nil {
		limits = *opts.Limits
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	e := newEngine(opts)
	release := e.stop.watch(ctx)
	defer release()

	start := time.Now()
	res, err := e.deepen(s.Board, limits, start, func(st Stats) {
		logger.Debug().
			Int("depth", st.Depth).
			Str("move", st.Move.String()).
			Int32("score", st.Score).
			Uint64("nodes", st.Nodes).
			Uint64("tt-hits", st.TTHits).
			Dur("elapsed", st.Elapsed).
			Msg("depth-complete")
		if opts.OnDepth != nil {
			opts.OnDepth(st)
		}
	})
	if err != nil {
		logger.Debug().Str("difficulty", d.String()).Msg("search-cancelled")
		return Result{}, err
	}
	logger.Info().
		Str("difficulty", d.String()).
		Str("move", res.Move.String()).
		Int32("score", res.Score).
		Int("depth", res.Depth).
		Bool("proven", res.Proven).
		Bool("timed-out", res.TimedOut).
		Bool("cancelled", res.Cancelled).
		Dur("elapsed", res.Elapsed).
		Msg("best-move")
	return res, nil
}

// OpeningPiece 空棋盘上任意棋子都等价，随机挑一个交给对手
func OpeningPiece(rng *frand.RNG) piece.Piece {
	if rng == nil {
		return piece.Piece(frand.Intn(piece.Count))
	}
	return piece.Piece(rng.Intn(piece.Count))
}

/* ──────────────── 迭代加深 ──────────────── */

type engine struct {
	keys  *zobrist.Keys
	gen   *movegen.Generator
	table *tt.Table
	stop  stopper
	nodes uint64
	// halted 本层有节点因停止信号提前返回，结果不可用
	halted bool
}

func newEngine(opts Options) *engine {
	keys := opts.Keys
	if keys == nil {
		keys = zobrist.Default
	}
	table := opts.Table
	if table == nil {
		size := opts.TableBytes
		if size <= 0 {
			size = tt.DefaultBytes
		}
		table = tt.New(size)
	}
	table.NewSearch()
	return &engine{keys: keys, gen: movegen.New(keys), table: table}
}

func (e *engine) deepen(b board.Board, limits Limits, start time.Time, report func(Stats)) (Result, error) {
	maxDepth := min(limits.Depth, board.Cells-b.Placed())
	maxDepth = max(maxDepth, 1)

	set := e.keys.Symmetric(b)
	rootKey, rootT := set.Canonical()
	// 根节点的候选顺序固定，不受置换表内容影响
	opts := e.gen.Ordered(b, set, board.NoMove)
	hitsBefore := e.table.Stats().Hits

	var res Result
	first, stopped := 0, false
	disarm := func() {}
	defer func() { disarm() }()

	for depth := 1; depth <= maxDepth; depth++ {
		score, idx := e.root(b, opts, first, int8(depth))
		if e.halted {
			stopped = true
			break
		}
		first = idx
		res.Move, res.Score, res.Depth = opts[idx].Move, score, depth
		res.Nodes = e.nodes
		res.Proven = eval.IsProven(score)
		e.table.Store(rootKey, int8(depth), tt.ToTTScore(score, 0), tt.Exact, rootT.Move(res.Move).Pack())

		report(Stats{
			Depth:   depth,
			Move:    res.Move,
			Score:   score,
			Nodes:   e.nodes,
			TTHits:  e.table.Stats().Hits - hitsBefore,
			Elapsed: time.Since(start),
		})
		if res.Proven {
			break
		}
		if depth == 1 && limits.Budget > 0 {
			disarm = e.stop.arm(limits.Budget - time.Since(start))
		}
		if e.stop.IsAborted() {
			stopped = true
			break
		}
	}

	res.Elapsed = time.Since(start)
	if !stopped {
		return res, nil
	}
	switch e.stop.Reason() {
	case cancelled:
		if res.Depth == 0 {
			return Result{}, ErrCancelled
		}
		res.Cancelled = true
	case timedOut:
		res.TimedOut = true
	}
	return res, nil
}

/* ──────────────── 根节点 ──────────────── */

// root 搜索根节点，返回最高分和它在 opts 中的下标；同分取下标最小者。
// first 先搜（上一层的最佳着法），窗口按下标区分：
// 下标比当前最佳小的着法只要追平就胜出，所以窗口下沿放宽 1。
func (e *engine) root(b board.Board, opts []movegen.Option, first int, depth int8) (int32, int) {
	best, bestIdx := int32(-inf), -1
	for n := 0; n < len(opts); n++ {
		i := n
		switch {
		case n == 0:
			i = first
		case n <= first:
			i = n - 1
		}
		if e.stop.IsAborted() {
			e.halted = true
			return best, max(bestIdx, 0)
		}
		o := &opts[i]
		var score int32
		switch {
		case o.Wins:
			e.nodes++
			score = eval.WinScore - 1
		case bestIdx < 0:
			score = -e.negamax(b.Advance(o.Move), o.Key, depth-1, -inf, inf, 1)
		case i < bestIdx:
			score = -e.negamax(b.Advance(o.Move), o.Key, depth-1, -inf, -(best - 1), 1)
		default:
			score = -e.negamax(b.Advance(o.Move), o.Key, depth-1, -inf, -best, 1)
		}
		if bestIdx < 0 || score > best || (score == best && i < bestIdx) {
			best, bestIdx = score, i
		}
	}
	return best, bestIdx
}

/* ──────────────── Negamax + αβ + TT ──────────────── */

func (e *engine) negamax(b board.Board, set zobrist.Set, depth int8, alpha, beta int32, ply int32) int32 {
	e.nodes++
	/* --- 终局 --- */
	if b.HasWon() {
		return -(eval.WinScore - ply) // 上一手成线，走子方已输；越晚输越好
	}
	if b.IsFull() {
		return eval.Draw
	}
	if depth == 0 {
		return eval.Evaluate(b)
	}

	/* --- TT Probe --- */
	key, tr := set.Canonical()
	hint := board.NoMove
	if ent, ok := e.table.Probe(key); ok {
		hint = tr.Inverse().Move(board.Unpack(ent.Move))
		if ent.Usable(depth) {
			score := tt.FromTTScore(ent.Score, ply)
			switch {
			case ent.Flag == tt.Exact:
				return score
			case ent.Flag == tt.Lower && score >= beta:
				return score
			case ent.Flag == tt.Upper && score <= alpha:
				return score
			}
		}
	}

	alphaOrig := alpha
	best, bestMove := int32(-inf), board.NoMove
	for _, o := range e.gen.Ordered(b, set, hint) {
		if e.stop.IsAborted() {
			e.halted = true
			return 0 // 这一层的结果会被丢弃
		}
		var score int32
		if o.Wins {
			e.nodes++
			score = eval.WinScore - (ply + 1)
		} else {
			score = -e.negamax(b.Advance(o.Move), o.Key, depth-1, -beta, -alpha, ply+1)
		}
		if score > best {
			best, bestMove = score, o.Move
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break // β 剪
		}
	}
	if e.halted {
		return 0
	}

	/* --- TT Store --- */
	flag := tt.Exact
	if best <= alphaOrig {
		flag = tt.Upper
	} else if best >= beta {
		flag = tt.Lower
	}
	e.table.Store(key, depth, tt.ToTTScore(best, ply), flag, tr.Move(bestMove).Pack())
	return best
}
