package tt

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"quarto_go/internal/eval"
)

func TestNewRespectsBudget(t *testing.T) {
	table := New(1 << 20)
	if table.Bytes() > 1<<20 {
		t.Fatalf("table uses %d bytes, budget 1MiB", table.Bytes())
	}
	if n := table.Len(); n&(n-1) != 0 {
		t.Fatalf("slot count %d is not a power of two", n)
	}
	if New(0).Len() != minSlots {
		t.Fatalf("tiny budgets fall back to the minimum size")
	}
}

func TestProbeStoreAndReplacement(t *testing.T) {
	table := New(1 << 16)
	const key = 0xDEADBEEF
	if _, ok := table.Probe(key); ok {
		t.Fatalf("empty table must miss")
	}
	table.Store(key, 4, 120, Exact, 33)
	e, ok := table.Probe(key)
	if !ok || e.Score != 120 || e.Flag != Exact || e.Move != 33 {
		t.Fatalf("unexpected entry %+v", e)
	}
	if !e.Usable(4) || e.Usable(5) || e.Usable(3) {
		t.Fatalf("only same-depth entries may cut")
	}

	// 同一代中浅层结果不覆盖深层结果
	table.Store(key, 2, -5, Upper, 1)
	if e, _ := table.Probe(key); e.Depth != 4 {
		t.Fatalf("shallower store must not evict, got depth %d", e.Depth)
	}
	// 新一代中旧条目可被替换
	table.NewSearch()
	table.Store(key, 2, -5, Upper, 1)
	if e, _ := table.Probe(key); e.Depth != 2 || e.Flag != Upper {
		t.Fatalf("stale entry should be replaced, got %+v", e)
	}

	// 槽冲突：不同哈希，同一槽
	other := uint64(key) + uint64(table.Len())
	table.Store(other, 3, 7, Lower, 2)
	if _, ok := table.Probe(key); ok {
		t.Fatalf("colliding store with deeper depth should evict")
	}
	if e, ok := table.Probe(other); !ok || e.Score != 7 {
		t.Fatalf("expected colliding entry to be present")
	}

	s := table.Stats()
	if s.Probes == 0 || s.Hits == 0 || s.Stores == 0 {
		t.Fatalf("counters not updated: %+v", s)
	}
	table.Clear()
	if table.Count() != 0 {
		t.Fatalf("clear must empty the table")
	}
}

func TestWinScoreEncoding(t *testing.T) {
	win := eval.WinScore - 5 // 距根 5 步获胜
	stored := ToTTScore(win, 3)
	if got := FromTTScore(stored, 3); got != win {
		t.Fatalf("round trip at same ply: %d vs %d", got, win)
	}
	// 同一局面从另一个 ply 读出：距离随之平移
	if got := FromTTScore(stored, 1); got != win+2 {
		t.Fatalf("expected %d, got %d", win+2, got)
	}
	if ToTTScore(42, 7) != 42 || FromTTScore(-42, 7) != -42 {
		t.Fatalf("heuristic scores must pass through unchanged")
	}
	loss := -eval.WinScore + 4
	if FromTTScore(ToTTScore(loss, 2), 2) != loss {
		t.Fatalf("loss round trip broken")
	}
}

func TestSharedTableConcurrentAccess(t *testing.T) {
	table := NewShared(1 << 16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			for i := uint64(1); i <= 2000; i++ {
				key := seed<<32 | i
				table.Store(key, int8(i%8), int32(i), Exact, uint16(i))
				table.Probe(key)
			}
		}(uint64(g + 1))
	}
	wg.Wait()
	if table.Count() == 0 {
		t.Fatalf("expected entries after concurrent traffic")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := New(1 << 14)
	keys := []uint64{1, 0x8000_0000_0000_0102, 0xFFFF_FFFF_FFFF_FFFE}
	for i, k := range keys {
		src.Store(k, int8(i+1), int32(i*10)-5, Flag(i%3), uint16(i+100))
	}
	var buf bytes.Buffer
	n, err := src.Save(&buf, 99)
	if err != nil || n != len(keys) {
		t.Fatalf("save: n=%d err=%v", n, err)
	}

	dst := New(1 << 15)
	if _, err := dst.Load(bytes.NewReader(buf.Bytes()), 98); !errors.Is(err, ErrSeedMismatch) {
		t.Fatalf("expected seed mismatch, got %v", err)
	}
	if _, err := dst.Load(bytes.NewReader(buf.Bytes()), 99); err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, k := range keys {
		e, ok := dst.Probe(k)
		if !ok || e.Depth != int8(i+1) || e.Score != int32(i*10)-5 || e.Move != uint16(i+100) || e.Flag != Flag(i%3) {
			t.Fatalf("entry %x lost or changed: %+v", k, e)
		}
	}
}
