package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"quarto_go/internal/search"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quarto.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Level() != zerolog.InfoLevel {
		t.Fatalf("default level should be info")
	}
	for _, d := range search.Difficulties() {
		if c.Limits(d) != search.DefaultLimits(d) {
			t.Fatalf("%s should fall back to the built-in limits", d)
		}
	}
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"log_level": "debug",
		"tt_megabytes": 4,
		"difficulties": {"hard": {"depth": 6, "budget_ms": 1500}}
	}`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Level() != zerolog.DebugLevel || c.TTBytes() != 4<<20 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.ListenAddr != ":8080" || c.ArenaParallel != 4 {
		t.Fatalf("missing fields should keep defaults: %+v", c)
	}
	want := search.Limits{Depth: 6, Budget: 1500 * time.Millisecond}
	if got := c.Limits(search.Hard); got != want {
		t.Fatalf("hard limits: want %+v, got %+v", want, got)
	}
	if c.Limits(search.Easy) != search.DefaultLimits(search.Easy) {
		t.Fatalf("easy should keep the built-in limits")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"syntax":     `{"log_level": `,
		"level":      `{"log_level": "loud"}`,
		"tt":         `{"tt_megabytes": 0}`,
		"parallel":   `{"arena_parallel": -1}`,
		"difficulty": `{"difficulties": {"baby": {"depth": 1}}}`,
		"depth":      `{"difficulties": {"easy": {"depth": 17}}}`,
		"alias":      `{"difficulties": {"very-hard": {"depth": 5}, "veryhard": {"depth": 9}}}`,
	} {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("missing file must fail")
	}
}

func TestStoreUpdateValidates(t *testing.T) {
	s := NewStore(DefaultConfig())
	bad := DefaultConfig()
	bad.TTMegabytes = -3
	if err := s.Update(bad); err == nil {
		t.Fatalf("invalid config accepted")
	}
	if s.Get().TTMegabytes != 16 {
		t.Fatalf("store changed after a rejected update")
	}
	good := DefaultConfig()
	good.ListenAddr = "127.0.0.1:9000"
	if err := s.Update(good); err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Get().ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("update not visible")
	}
}

func TestStoreRejectsDuplicateDifficultyAliases(t *testing.T) {
	s := NewStore(DefaultConfig())
	c := DefaultConfig()
	c.Difficulties = map[string]DifficultyConfig{
		"very_hard": {Depth: 5, BudgetMs: 100},
		"Very-Hard": {Depth: 9, BudgetMs: 100},
	}
	if err := s.Update(c); err == nil {
		t.Fatalf("two spellings of one difficulty accepted")
	}
	c.Difficulties = map[string]DifficultyConfig{"very_hard": {Depth: 5, BudgetMs: 100}}
	if err := s.Update(c); err != nil {
		t.Fatalf("single alias rejected: %v", err)
	}
	if got := s.Get().Limits(search.VeryHard); got.Depth != 5 {
		t.Fatalf("alias not resolved: %+v", got)
	}
}
