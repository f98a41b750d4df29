package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"quarto_go/internal/config"
	"quarto_go/internal/server"
	"quarto_go/internal/tt"
	"quarto_go/internal/zobrist"
)

func main() {
	configPath := flag.String("config", "", "JSON config file")
	addr := flag.String("addr", "", "listen address (overrides listen_addr)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if err := run(*configPath, *addr); err != nil {
		log.Error().Err(err).Msg("quartod")
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}
	zerolog.SetGlobalLevel(cfg.Level())

	keys := zobrist.Default
	if cfg.ZobristSeed != zobrist.DefaultSeed {
		keys = zobrist.New(cfg.ZobristSeed)
	}

	// 配置了持久化路径时所有搜索共用一张表，启动时读、退出时写
	var shared *tt.Table
	if cfg.TTPersistencePath != "" {
		shared = tt.NewShared(cfg.TTBytes())
		if err := loadTable(shared, cfg.TTPersistencePath, keys.Seed()); err != nil {
			log.Warn().Err(err).Msg("tt-load-failed")
		}
		defer func() {
			if err := saveTable(shared, cfg.TTPersistencePath, keys.Seed()); err != nil {
				log.Error().Err(err).Msg("tt-save-failed")
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(config.NewStore(cfg), keys, shared, log.Logger).Router(),
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	eg, ctx := errgroup.WithContext(sigCtx)

	eg.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Msg("quartod listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = srv.Close()
			return errors.Wrap(err, "graceful shutdown")
		}
		return nil
	})
	return eg.Wait()
}

func loadTable(t *tt.Table, path string, seed uint64) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	n, err := t.Load(f, seed)
	if err != nil {
		return errors.WithMessagef(err, "load %s", path)
	}
	log.Info().Int("entries", n).Str("file", path).Msg("tt-loaded")
	return nil
}

func saveTable(t *tt.Table, path string, seed uint64) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	n, err := t.Save(f, seed)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.WithMessagef(err, "save %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}
	log.Info().Int("entries", n).Str("file", path).Msg("tt-saved")
	return nil
}
