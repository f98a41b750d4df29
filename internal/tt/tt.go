// File: internal/tt/tt.go
package tt

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"quarto_go/internal/eval"
)

// Flag 表示评分类型：Exact(0)、LowerBound(1)、UpperBound(2)
type Flag uint8

const (
	Exact Flag = iota
	Lower
	Upper
)

func (f Flag) String() string {
	switch f {
	case Exact:
		return "exact"
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	}
	return "unknown"
}

// Entry 是 TT 中的一条记录
type Entry struct {
	Hash  uint64 // 规范 zobrist 哈希；用于碰撞校验，0 = 空槽
	Score int32  // 节点评分（已做胜负距离编码）
	Move  uint16 // board.Move.Pack()，规范朝向下的最佳着法
	Depth int8   // 搜索深度
	Flag  Flag   // 上界/下界/精确
	Gen   uint8  // 写入时的代
}

// Usable 只有深度相同的条目才能直接截断。一轮迭代里局面的剩余深度由已落子数决定，
// 更深的条目来自之前的搜索，只当作着法提示，这样复用的表和新表给出相同结果。
func (e Entry) Usable(depth int8) bool { return e.Depth == depth }

// EntrySize 每槽字节数
const EntrySize = int(unsafe.Sizeof(Entry{}))

// ──────────────────────────── 配置 ────────────────────────────

const (
	DefaultBytes = 16 << 20 // 默认 16 MiB
	minSlots     = 1 << 10
	emptyHash    = 0 // Hash=0 视为“槽空”，因此 zobrist 键绝不能生成 0
)

// Table 一次搜索独占；NewShared 得到的表可以在多次搜索之间共享（读写锁，单写者）
type Table struct {
	slots    []Entry
	sizeMask uint64
	gen      uint8
	shared   bool
	mu       sync.RWMutex

	probes atomic.Uint64
	hits   atomic.Uint64
	stores atomic.Uint64
}

// New 按内存预算创建，槽数取不超过预算的 2 的幂
func New(bytes int) *Table {
	n := minSlots
	for n*2*EntrySize <= bytes {
		n *= 2
	}
	return &Table{slots: make([]Entry, n), sizeMask: uint64(n - 1)}
}

// NewShared 跨搜索复用的表，并发访问加锁
func NewShared(bytes int) *Table {
	t := New(bytes)
	t.shared = true
	return t
}

func (t *Table) Len() int { return len(t.slots) }

func (t *Table) Shared() bool { return t.shared }

func (t *Table) Bytes() int { return len(t.slots) * EntrySize }

// NewSearch 开始新一次搜索：旧代条目变为可替换
func (t *Table) NewSearch() {
	t.lock()
	t.gen++
	t.unlock()
}

// Clear 把所有槽标记为空
func (t *Table) Clear() {
	t.lock()
	for i := range t.slots {
		t.slots[i] = Entry{}
	}
	t.gen = 0
	t.unlock()
	t.probes.Store(0)
	t.hits.Store(0)
	t.stores.Store(0)
}

// ──────────────────────────── API ────────────────────────────

// Probe 查表：ok == false → 不命中。命中时调用方再用 Usable 判断深度，
// 深度不够的条目仍可提供着法排序提示。
func (t *Table) Probe(hash uint64) (Entry, bool) {
	t.probes.Add(1)
	t.rlock()
	e := t.slots[hash&t.sizeMask]
	t.runlock()
	if e.Hash != hash || hash == emptyHash {
		return Entry{}, false
	}
	t.hits.Add(1)
	return e, true
}

// Store 写入。替换策略：槽空、旧代、或新深度 ≥ 旧深度 时覆盖
func (t *Table) Store(hash uint64, depth int8, score int32, flag Flag, move uint16) {
	t.lock()
	e := &t.slots[hash&t.sizeMask]
	if e.Hash == emptyHash || e.Gen != t.gen || depth >= e.Depth {
		*e = Entry{Hash: hash, Score: score, Move: move, Depth: depth, Flag: flag, Gen: t.gen}
		t.stores.Add(1)
	}
	t.unlock()
}

// Count 非空槽数量
func (t *Table) Count() int {
	t.rlock()
	defer t.runlock()
	n := 0
	for i := range t.slots {
		if t.slots[i].Hash != emptyHash {
			n++
		}
	}
	return n
}

type Stats struct {
	Probes uint64
	Hits   uint64
	Stores uint64
}

func (t *Table) Stats() Stats {
	return Stats{Probes: t.probes.Load(), Hits: t.hits.Load(), Stores: t.stores.Load()}
}

func (t *Table) lock() {
	if t.shared {
		t.mu.Lock()
	}
}

func (t *Table) unlock() {
	if t.shared {
		t.mu.Unlock()
	}
}

func (t *Table) rlock() {
	if t.shared {
		t.mu.RLock()
	}
}

func (t *Table) runlock() {
	if t.shared {
		t.mu.RUnlock()
	}
}

// ──────────────────────── 胜负分数编码 ────────────────────────

// ToTTScore 把“距根 ply 步获胜”的分数改写成“距本节点”的分数再存表
func ToTTScore(score int32, plyFromRoot int32) int32 {
	if score >= eval.WinThreshold {
		return score + plyFromRoot
	}
	if score <= -eval.WinThreshold {
		return score - plyFromRoot
	}
	return score
}

// FromTTScore 把 TT 里的特殊分数还原回 engine 评分
func FromTTScore(score int32, plyFromRoot int32) int32 {
	if score >= eval.WinThreshold {
		return score - plyFromRoot
	}
	if score <= -eval.WinThreshold {
		return score + plyFromRoot
	}
	return score
}
