package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quarto_go/internal/arena"
	"quarto_go/internal/config"
	"quarto_go/internal/game"
	"quarto_go/internal/search"
	"quarto_go/internal/symmetry"
	"quarto_go/internal/tt"
	"quarto_go/internal/zobrist"
)

func main() {
	// ──────── 命令行参数 ────────
	var (
		configPath = flag.String("config", "", "JSON config file")
		first      = flag.String("first", "hard", "difficulty of the player who hands over the first piece")
		second     = flag.String("second", "medium", "difficulty of the player who places first")
		games      = flag.Int("games", 10, "games per colour assignment")
		parallel   = flag.Int("parallel", 0, "concurrent games (0 = arena_parallel from config)")
		seed       = flag.Uint64("seed", 0, "seed for opening pieces (0 = random)")
		ttFile     = flag.String("tt-file", "", "analyse the opening with a transposition table loaded from and saved to this file")
		prof       = flag.String("profile", "", "write a cpu or mem profile to the working directory")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	os.Exit(withProfile(*prof, ".", func() error {
		return run(*configPath, *first, *second, *games, *parallel, *seed, *ttFile, *verbose)
	}))
}

// withProfile 在 profile 停止之后才返回退出码，失败退出时 profile 也会写完整
func withProfile(kind, dir string, fn func() error) int {
	var mode func(*profile.Profile)
	switch kind {
	case "":
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	default:
		log.Error().Str("profile", kind).Msg("unknown profile kind, want cpu or mem")
		return 2
	}
	if mode != nil {
		defer profile.Start(mode, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet).Stop()
	}
	if err := fn(); err != nil {
		log.Error().Err(err).Msg("quarto")
		return 1
	}
	return 0
}

func run(configPath, first, second string, games, parallel int, seed uint64, ttFile string, verbose bool) error {
	// ──────── 配置 ────────
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	zerolog.SetGlobalLevel(cfg.Level())
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if parallel <= 0 {
		parallel = cfg.ArenaParallel
	}
	df, err := search.ParseDifficulty(first)
	if err != nil {
		return err
	}
	ds, err := search.ParseDifficulty(second)
	if err != nil {
		return err
	}
	keys := zobrist.Default
	if cfg.ZobristSeed != zobrist.DefaultSeed {
		keys = zobrist.New(cfg.ZobristSeed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ttFile != "" {
		if err := analyse(ctx, cfg, keys, df, ttFile); err != nil {
			return err
		}
	}

	// ──────── 对战 ────────
	pairs := []arena.Pairing{{First: df, Second: ds}}
	if df != ds {
		pairs = append(pairs, arena.Pairing{First: ds, Second: df})
	}
	opts := arena.Options{
		Logger:     &log.Logger,
		Keys:       keys,
		TableBytes: cfg.TTBytes(),
		Limits:     cfg.Limits,
		Seed:       seed,
	}
	log.Info().Int("games", games*len(pairs)).Int("parallel", parallel).Msg("tournament-start")
	start := time.Now()
	tallies, played, err := arena.Tournament(ctx, pairs, games, parallel, opts)
	if err != nil {
		return err
	}

	fmt.Printf("%-28s %6s %6s %6s %6s\n", "pairing", "games", "first", "second", "draws")
	for _, t := range tallies {
		fmt.Printf("%-28s %6d %6d %6d %6d\n", t.Pairing, t.Games, t.FirstWins, t.SecondWins, t.Draws)
	}
	if len(played) > 0 {
		last := played[len(played)-1]
		fmt.Printf("\nlast game (%s), opening piece %s, %d moves, %d nodes:\n%s\n",
			last.Pairing, last.Opening, len(last.Moves), last.Nodes, last.Final.Board)
		if last.Draw {
			fmt.Println("result: draw")
		} else {
			fmt.Printf("result: %s player wins\n", last.Winner)
		}
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("tournament-done")
	return nil
}

// analyse 用持久化的表对开局做一次搜索，再把表写回文件
func analyse(ctx context.Context, cfg config.Config, keys *zobrist.Keys, d search.Difficulty, path string) error {
	table := tt.NewShared(cfg.TTBytes())
	if f, err := os.Open(path); err == nil {
		n, err := table.Load(f, keys.Seed())
		f.Close()
		if err != nil {
			return errors.WithMessagef(err, "load %s", path)
		}
		log.Info().Int("entries", n).Str("file", path).Msg("tt-loaded")
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "open %s", path)
	}

	s, err := game.New().Opening(search.OpeningPiece(nil))
	if err != nil {
		return err
	}
	limits := cfg.Limits(d)
	res, err := search.FindBestMove(ctx, s, d, search.Options{
		Logger: &log.Logger,
		Table:  table,
		Keys:   keys,
		Limits: &limits,
	})
	if err != nil {
		return err
	}
	fmt.Printf("opening analysis (%s): %v score %d depth %d nodes %d\n", d, res.Move, res.Score, res.Depth, res.Nodes)
	// 表里的着法按规范朝向存，这里把根节点也换到规范朝向便于对照
	canon, tr := symmetry.Canonicalize(s.Board)
	key, _ := s.Key(keys)
	log.Debug().
		Str("key", strconv.FormatUint(key, 16)).
		Str("canonical-move", tr.Move(res.Move).String()).
		Msgf("canonical-root\n%s", canon)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	n, err := table.Save(f, keys.Seed())
	if err != nil {
		return errors.WithMessagef(err, "save %s", path)
	}
	log.Info().Int("entries", n).Str("file", path).Msg("tt-saved")
	return nil
}
