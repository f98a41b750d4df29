package tt

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/mgo.v2/bson"
)

// snapshot BSON 没有 uint64，哈希和种子按位存成 int64
type snapshot struct {
	Seed    int64      `bson:"seed"`
	Slots   int        `bson:"slots"`
	Entries []entryDoc `bson:"entries"`
}

type entryDoc struct {
	Hash  int64 `bson:"h"`
	Score int32 `bson:"s"`
	Move  int32 `bson:"m"`
	Depth int32 `bson:"d"`
	Flag  int32 `bson:"f"`
}

// ErrSeedMismatch 快照来自另一张 zobrist 键表，不能复用
var ErrSeedMismatch = errors.New("transposition snapshot seed mismatch")

// Save 把非空条目写成一份 BSON 快照
func (t *Table) Save(w io.Writer, seed uint64) (int, error) {
	t.rlock()
	snap := snapshot{Seed: int64(seed), Slots: len(t.slots)}
	for _, e := range t.slots {
		if e.Hash == emptyHash {
			continue
		}
		snap.Entries = append(snap.Entries, entryDoc{
			Hash:  int64(e.Hash),
			Score: e.Score,
			Move:  int32(e.Move),
			Depth: int32(e.Depth),
			Flag:  int32(e.Flag),
		})
	}
	t.runlock()

	data, err := bson.Marshal(&snap)
	if err != nil {
		return 0, errors.Wrap(err, "encode transposition snapshot")
	}
	if _, err := w.Write(data); err != nil {
		return 0, errors.Wrap(err, "write transposition snapshot")
	}
	return len(snap.Entries), nil
}

// Load 读取快照并写入表中（按本表的容量重新散列）；种子不同则拒绝
func (t *Table) Load(r io.Reader, seed uint64) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "read transposition snapshot")
	}
	var snap snapshot
	if err := bson.Unmarshal(data, &snap); err != nil {
		return 0, errors.Wrap(err, "decode transposition snapshot")
	}
	if uint64(snap.Seed) != seed {
		return 0, errors.Wrapf(ErrSeedMismatch, "snapshot %x, keys %x", uint64(snap.Seed), seed)
	}
	for _, d := range snap.Entries {
		t.Store(uint64(d.Hash), int8(d.Depth), d.Score, Flag(d.Flag), uint16(d.Move))
	}
	return len(snap.Entries), nil
}
