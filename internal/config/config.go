package config

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"quarto_go/internal/eval"
	"quarto_go/internal/search"
	"quarto_go/internal/zobrist"
)

type Config struct {
	LogLevel          string                      `json:"log_level"`
	ZobristSeed       uint64                      `json:"zobrist_seed"`
	TTMegabytes       int                         `json:"tt_megabytes"`
	TTPersistencePath string                      `json:"tt_persistence_path"`
	ListenAddr        string                      `json:"listen_addr"`
	Difficulties      map[string]DifficultyConfig `json:"difficulties"`
	ArenaParallel     int                         `json:"arena_parallel"`
}

type DifficultyConfig struct {
	Depth    int `json:"depth"`
	BudgetMs int `json:"budget_ms"` // 0 = 不限时
}

type Store struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		ZobristSeed: zobrist.DefaultSeed,
		TTMegabytes: 16,
		ListenAddr:  ":8080",
		// 空表：全部用内置难度
		Difficulties:  map[string]DifficultyConfig{},
		ArenaParallel: 4,
	}
}

// Load 读取 JSON；文件里没写的字段保持默认值
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.WithMessagef(err, "config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	if c.TTMegabytes <= 0 {
		return errors.Errorf("tt_megabytes must be positive, got %d", c.TTMegabytes)
	}
	if c.ArenaParallel <= 0 {
		return errors.Errorf("arena_parallel must be positive, got %d", c.ArenaParallel)
	}
	// "very-hard" 和 "veryhard" 指同一档，只能出现一个
	seen := make(map[search.Difficulty]string, len(c.Difficulties))
	for name, d := range c.Difficulties {
		pd, err := search.ParseDifficulty(name)
		if err != nil {
			return errors.WithMessage(err, "difficulties")
		}
		if prev, dup := seen[pd]; dup {
			return errors.Errorf("difficulties %q and %q both set %s", prev, name, pd)
		}
		seen[pd] = name
		if d.Depth < 1 || d.Depth > eval.MaxPly {
			return errors.Errorf("difficulty %s: depth %d outside 1..%d", name, d.Depth, eval.MaxPly)
		}
		if d.BudgetMs < 0 {
			return errors.Errorf("difficulty %s: negative budget", name)
		}
	}
	return nil
}

// Level 日志级别；非法值按 info 处理（Validate 已经拦住）
func (c Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

func (c Config) TTBytes() int { return c.TTMegabytes << 20 }

// Limits 配置覆盖优先，否则用内置难度表
func (c Config) Limits(d search.Difficulty) search.Limits {
	for name, dc := range c.Difficulties {
		if pd, err := search.ParseDifficulty(name); err == nil && pd == d {
			return search.Limits{Depth: dc.Depth, Budget: time.Duration(dc.BudgetMs) * time.Millisecond}
		}
	}
	return search.DefaultLimits(d)
}

func NewStore(c Config) *Store {
	return &Store{config: c}
}

func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Update 校验通过才替换
func (s *Store) Update(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.config = c
	s.mu.Unlock()
	return nil
}
