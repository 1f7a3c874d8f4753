package store

import "github.com/ValentinKolb/dInfer/lib/db"

// Batch collects commands that are executed atomically by IStore.Exec.
// The result of the i-th added command is the i-th result of Exec.
//
//	b := store.NewBatch().
//		ZIncrBy("inferx:red", "apple", 2).
//		HIncrBy("inferx:categories", "red", 2)
//	results, err := s.Exec(b)
type Batch struct {
	cmds []db.Command
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{}
}

// BatchOf wraps already built commands (e.g. decoded from the wire) into a batch
func BatchOf(cmds []db.Command) *Batch {
	return &Batch{cmds: cmds}
}

// Commands returns the commands of the batch in submission order
func (b *Batch) Commands() []db.Command {
	return b.cmds
}

// Len returns the number of commands
func (b *Batch) Len() int {
	return len(b.cmds)
}

// ReadOnly reports whether no command of the batch modifies the store
func (b *Batch) ReadOnly() bool {
	return db.IsReadOnly(b.cmds)
}

func (b *Batch) add(cmd db.Command) *Batch {
	b.cmds = append(b.cmds, cmd)
	return b
}

// --------------------------------------------------------------------------
// Hash commands
// --------------------------------------------------------------------------

// HGet reads a field, Ok reports whether it exists
func (b *Batch) HGet(key, field string) *Batch {
	return b.add(db.Command{Type: db.CmdHGet, Key: key, Field: field})
}

// HSetNX creates the field with the given value, existing fields are not changed
func (b *Batch) HSetNX(key, field string, value int64) *Batch {
	return b.add(db.Command{Type: db.CmdHSetNX, Key: key, Field: field, Delta: value})
}

// HIncrBy adds delta to a field (missing fields start at 0) and returns the new value
func (b *Batch) HIncrBy(key, field string, delta int64) *Batch {
	return b.add(db.Command{Type: db.CmdHIncrBy, Key: key, Field: field, Delta: delta})
}

// HDel removes a field, Ok reports whether it existed
func (b *Batch) HDel(key, field string) *Batch {
	return b.add(db.Command{Type: db.CmdHDel, Key: key, Field: field})
}

// HExists reports in Ok whether the field exists
func (b *Batch) HExists(key, field string) *Batch {
	return b.add(db.Command{Type: db.CmdHExists, Key: key, Field: field})
}

// HKeys lists the fields of a hash in insertion order
func (b *Batch) HKeys(key string) *Batch {
	return b.add(db.Command{Type: db.CmdHKeys, Key: key})
}

// HGetAll lists all fields with their values in insertion order
func (b *Batch) HGetAll(key string) *Batch {
	return b.add(db.Command{Type: db.CmdHGetAll, Key: key})
}

// --------------------------------------------------------------------------
// Sorted counter commands
// --------------------------------------------------------------------------

// ZIncrBy adds delta to the score of a member (missing members start at 0)
// and returns the new score
func (b *Batch) ZIncrBy(key, member string, delta int64) *Batch {
	return b.add(db.Command{Type: db.CmdZIncrBy, Key: key, Field: member, Delta: delta})
}

// ZScore reads the score of a member, Ok reports whether it exists
func (b *Batch) ZScore(key, member string) *Batch {
	return b.add(db.Command{Type: db.CmdZScore, Key: key, Field: member})
}

// ZRevRange selects members by rank (highest score first), start and stop are inclusive
// and negative values count from the end (-1 is the last member)
func (b *Batch) ZRevRange(key string, start, stop int64) *Batch {
	return b.add(db.Command{Type: db.CmdZRevRange, Key: key, Start: start, Stop: stop})
}

// ZRevRangeByScore selects members with min <= score <= max (highest score first),
// count limits the number of members (0 = unlimited)
func (b *Batch) ZRevRangeByScore(key string, max, min, count int64) *Batch {
	return b.add(db.Command{Type: db.CmdZRevRangeByScore, Key: key, Max: max, Min: min, Count: count})
}

// ZRemRangeByScore removes all members with min <= score <= max
func (b *Batch) ZRemRangeByScore(key string, min, max int64) *Batch {
	return b.add(db.Command{Type: db.CmdZRemRangeByScore, Key: key, Min: min, Max: max})
}

// Del removes a key of either kind, Ok reports whether it existed
func (b *Batch) Del(key string) *Batch {
	return b.add(db.Command{Type: db.CmdDel, Key: key})
}
