// Package arena 让两个 AI 对弈，只用引擎的公开接口。每一步都是一次独立的搜索，
// 各自一张置换表，所以多盘棋可以并发进行。
package arena

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"quarto_go/internal/board"
	"quarto_go/internal/game"
	"quarto_go/internal/piece"
	"quarto_go/internal/search"
	"quarto_go/internal/zobrist"
)

type Options struct {
	Logger     *zerolog.Logger
	Keys       *zobrist.Keys
	TableBytes int
	// Limits 难度 → 上限；nil 时用内置难度表
	Limits func(search.Difficulty) search.Limits
	// Seed 非 0 时开局棋子可复现
	Seed uint64
}

type Pairing struct {
	First  search.Difficulty
	Second search.Difficulty
}

func (p Pairing) String() string { return fmt.Sprintf("%s vs %s", p.First, p.Second) }

// Game 一盘棋的完整记录
type Game struct {
	Pairing
	Opening piece.Piece
	Moves   []board.Move
	Final   game.State
	Winner  game.Player
	Draw    bool
	Nodes   uint64
}

// Play 下完一盘。first 先交子，second 先落子
func Play(ctx context.Context, p Pairing, rng *frand.RNG, opts Options) (Game, error) {
	g := Game{Pairing: p, Opening: search.OpeningPiece(rng)}
	s, err := game.New().Opening(g.Opening)
	if err != nil {
		return g, err
	}
	base := search.Options{Keys: opts.Keys, TableBytes: opts.TableBytes, Logger: opts.Logger}

	for !s.Board.HasWon() && !s.Board.IsFull() {
		d := p.First
		if s.Turn == game.Second {
			d = p.Second
		}
		so := base
		if opts.Limits != nil {
			l := opts.Limits(d)
			so.Limits = &l
		}
		res, err := search.FindBestMove(ctx, s, d, so)
		if err != nil {
			return g, errors.WithMessagef(err, "%s, move %d", p, len(g.Moves)+1)
		}
		g.Nodes += res.Nodes
		if s, err = s.Apply(res.Move); err != nil {
			return g, err
		}
		g.Moves = append(g.Moves, res.Move)
		if res.Cancelled {
			return g, errors.Wrapf(search.ErrCancelled, "%s, move %d", p, len(g.Moves))
		}
	}
	g.Final = s
	g.Winner, _ = s.Winner()
	g.Draw = !s.Board.HasWon()
	return g, nil
}

// Tally 一个对阵组合的战绩
type Tally struct {
	Pairing
	Games      int
	FirstWins  int
	SecondWins int
	Draws      int
}

// Tournament 每个组合下 games 盘，最多 parallel 盘同时进行
func Tournament(ctx context.Context, pairs []Pairing, games, parallel int, opts Options) ([]Tally, []Game, error) {
	if games <= 0 || len(pairs) == 0 {
		return nil, nil, nil
	}
	results := make([]Game, len(pairs)*games)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(parallel, 1))
	for i := range results {
		p := pairs[i/games]
		rng := gameRNG(opts.Seed, i)
		eg.Go(func() error {
			g, err := Play(ctx, p, rng, opts)
			if err != nil {
				return errors.WithMessagef(err, "game %d", i)
			}
			results[i] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	tallies := lo.Map(pairs, func(p Pairing, k int) Tally {
		played := results[k*games : (k+1)*games]
		return Tally{
			Pairing:    p,
			Games:      len(played),
			FirstWins:  lo.CountBy(played, func(g Game) bool { return !g.Draw && g.Winner == game.First }),
			SecondWins: lo.CountBy(played, func(g Game) bool { return !g.Draw && g.Winner == game.Second }),
			Draws:      lo.CountBy(played, func(g Game) bool { return g.Draw }),
		}
	})
	return tallies, results, nil
}

// gameRNG seed 为 0 时返回 nil，OpeningPiece 退回全局随机源
func gameRNG(seed uint64, i int) *frand.RNG {
	if seed == 0 {
		return nil
	}
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(i))
	return frand.NewCustom(buf[:], 1024, 12)
}
