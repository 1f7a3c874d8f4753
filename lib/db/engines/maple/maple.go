package maple

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/dInfer/lib/db/util"
	"io"
	"runtime"
	"sort"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for database behavior and structure
const (
	magicNum     = "MAPLEDB\x00" // File format identifier
	mapleVersion = 4             // Database version (v4: hashes and sorted counters)
)

// features supported by maple
const features = db.FeatureHash | db.FeatureSortedCounters | db.FeatureDelete |
	db.FeatureAtomicBatch | db.FeatureSave | db.FeatureLoad

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements a counter database with sharded data
type mapleImpl struct {
	numShards int               // Number of shards
	seed      uint64            // Seed for hash function
	shards    []*internal.Shard // Array of shards
	currIndex atomic.Uint64     // Current logical timestamp
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int // Number of shards (0 = auto)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
//
// Thread-safety: This function is not thread-safe and should only be called once
// during initialization.
func NewMapleDB(opts *DBOptions) db.KVDB {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	// Create shards
	shards := make([]*internal.Shard, opts.NumShards)
	for i := 0; i < opts.NumShards; i++ {
		shards[i] = internal.NewShard()
	}

	return &mapleImpl{
		numShards: opts.NumShards,
		seed:      util.NewSeed(),
		shards:    shards,
	}
}

// shardIndex returns the position of the shard responsible for the key
func (maple *mapleImpl) shardIndex(key string) int {
	return internal.GetShardIndex(util.Hash64(key, maple.seed), maple.numShards)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Batches
// --------------------------------------------------------------------------

// Apply executes all commands of the batch in order.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// All shards touched by the batch are locked in ascending order before the first
// command is executed, so two batches never interleave on a shared key and
// overlapping batches can not deadlock.
func (maple *mapleImpl) Apply(cmds []db.Command, writeIndex uint64) []db.Result {
	results := make([]db.Result, len(cmds))
	if len(cmds) == 0 {
		return results
	}

	write := !db.IsReadOnly(cmds)
	if write {
		maple.SetWriteIdx(writeIndex)
	}

	// collect the shards of the batch (each shard only once)
	shardIdx := make([]int, len(cmds))
	touched := make([]int, 0, len(cmds))
	seen := make(map[int]struct{}, len(cmds))
	for i := range cmds {
		idx := maple.shardIndex(cmds[i].Key)
		shardIdx[i] = idx
		if _, ok := seen[idx]; !ok {
			seen[idx] = struct{}{}
			touched = append(touched, idx)
		}
	}
	sort.Ints(touched)

	// lock
	for _, idx := range touched {
		if write {
			maple.shards[idx].Mu.Lock()
		} else {
			maple.shards[idx].Mu.RLock()
		}
	}

	// unlock in reverse order
	defer func() {
		for i := len(touched) - 1; i >= 0; i-- {
			if write {
				maple.shards[touched[i]].Mu.Unlock()
			} else {
				maple.shards[touched[i]].Mu.RUnlock()
			}
		}
	}()

	for i := range cmds {
		results[i] = maple.exec(maple.shards[shardIdx[i]], &cmds[i], writeIndex)
	}

	return results
}

// exec executes a single command on the (locked) shard of its key
func (maple *mapleImpl) exec(shard *internal.Shard, cmd *db.Command, writeIdx uint64) db.Result {
	var entryType internal.EntryType
	switch feature, err := cmd.Type.ToDBFeature(); {
	case err != nil:
		return db.Result{Err: db.ErrMsgUnknownCommand}
	case feature == db.FeatureHash:
		entryType = internal.EntryTHash
	case feature == db.FeatureSortedCounters:
		entryType = internal.EntryTSortedCounters
	default:
		// Del works on every type
		_, existed := shard.Data[cmd.Key]
		delete(shard.Data, cmd.Key)
		return db.Result{Ok: existed}
	}

	entry, exists := shard.Data[cmd.Key]
	if exists && entry.Type != entryType {
		return db.Result{Err: db.ErrMsgWrongType}
	}

	// create missing entries for increments
	if !exists && (cmd.Type == db.CmdHSetNX || cmd.Type == db.CmdHIncrBy || cmd.Type == db.CmdZIncrBy) {
		entry = internal.NewEntry(entryType, writeIdx)
		shard.Data[cmd.Key] = entry
		exists = true
	}

	if cmd.Type.IsWrite() && exists {
		entry.Index = writeIdx
	}

	switch cmd.Type {

	// hash commands

	case db.CmdHGet:
		if !exists {
			return db.Result{}
		}
		v, ok := entry.Values[cmd.Field]
		return db.Result{Int: v, Ok: ok}

	case db.CmdHSetNX:
		if _, ok := entry.Values[cmd.Field]; ok {
			return db.Result{Ok: false}
		}
		entry.Set(cmd.Field, cmd.Delta)
		return db.Result{Ok: true}

	case db.CmdHIncrBy, db.CmdZIncrBy:
		v := entry.Values[cmd.Field] + cmd.Delta
		entry.Set(cmd.Field, v)
		return db.Result{Int: v}

	case db.CmdHDel:
		if !exists {
			return db.Result{}
		}
		ok := entry.Remove(cmd.Field)
		if entry.Len() == 0 {
			delete(shard.Data, cmd.Key)
		}
		return db.Result{Ok: ok}

	case db.CmdHExists:
		if !exists {
			return db.Result{}
		}
		_, ok := entry.Values[cmd.Field]
		return db.Result{Ok: ok}

	case db.CmdHKeys:
		if !exists {
			return db.Result{Members: []string{}}
		}
		members := make([]string, len(entry.Fields))
		copy(members, entry.Fields)
		return db.Result{Members: members}

	case db.CmdHGetAll:
		if !exists {
			return db.Result{Pairs: []db.Pair{}}
		}
		return db.Result{Pairs: toPairs(entry.Pairs())}

	// sorted counter commands

	case db.CmdZScore:
		if !exists {
			return db.Result{}
		}
		v, ok := entry.Values[cmd.Field]
		return db.Result{Int: v, Ok: ok}

	case db.CmdZRevRange:
		if !exists {
			return db.Result{Pairs: []db.Pair{}}
		}
		pairs := entry.Pairs()
		start, stop, ok := normalizeRange(cmd.Start, cmd.Stop, int64(len(pairs)))
		if !ok {
			return db.Result{Pairs: []db.Pair{}}
		}
		return db.Result{Pairs: toPairs(pairs[start : stop+1])}

	case db.CmdZRevRangeByScore:
		result := make([]db.Pair, 0)
		if !exists {
			return db.Result{Pairs: result}
		}
		for _, p := range entry.Pairs() {
			if cmd.Count > 0 && int64(len(result)) >= cmd.Count {
				break
			}
			if p.Score >= cmd.Min && p.Score <= cmd.Max {
				result = append(result, db.Pair{Member: p.Member, Score: p.Score})
			}
		}
		return db.Result{Pairs: result}

	case db.CmdZRemRangeByScore:
		if !exists {
			return db.Result{}
		}
		var removed int64
		for m, s := range entry.Values {
			if s >= cmd.Min && s <= cmd.Max {
				delete(entry.Values, m)
				removed++
			}
		}
		if entry.Len() == 0 {
			delete(shard.Data, cmd.Key)
		}
		return db.Result{Int: removed}
	}

	return db.Result{Err: db.ErrMsgUnknownCommand}
}

// normalizeRange converts inclusive rank bounds (negative values count from the end)
// into valid slice positions. It returns false if the range is empty.
func normalizeRange(start, stop, n int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

func toPairs(pairs []internal.Pair) []db.Pair {
	result := make([]db.Pair, len(pairs))
	for i, p := range pairs {
		result[i] = db.Pair{Member: p.Member, Score: p.Score}
	}
	return result
}

// lockAll locks every shard in ascending order
func (maple *mapleImpl) lockAll(write bool) (unlock func()) {
	for _, shard := range maple.shards {
		if write {
			shard.Mu.Lock()
		} else {
			shard.Mu.RLock()
		}
	}
	return func() {
		for i := len(maple.shards) - 1; i >= 0; i-- {
			if write {
				maple.shards[i].Mu.Unlock()
			} else {
				maple.shards[i].Mu.RUnlock()
			}
		}
	}
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save persists the database to the writer
//
// Thread-safety: Save takes a read lock on all shards while the entries are collected,
// the result is a consistent snapshot of the database. Writing to w happens without locks.
func (maple *mapleImpl) Save(w io.Writer) error {
	// Use a buffered writer for better performance
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	type entryToSave struct {
		key   string
		typ   internal.EntryType
		index uint64
		pairs []internal.Pair
	}

	// Collect snapshots of all shards
	unlock := maple.lockAll(false)
	var entries []entryToSave
	for _, shard := range maple.shards {
		for key, entry := range shard.Data {
			entries = append(entries, entryToSave{
				key:   key,
				typ:   entry.Type,
				index: entry.Index,
				pairs: entry.Pairs(), // copy
			})
		}
	}
	writeIdx := maple.currIndex.Load()
	unlock()

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}

	// Write maple version
	if err := binary.Write(bw, binary.LittleEndian, uint8(mapleVersion)); err != nil {
		return err
	}

	// Write seed and current write index
	if err := binary.Write(bw, binary.LittleEndian, maple.seed); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, writeIdx); err != nil {
		return err
	}

	// Write total entries count
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	for _, item := range entries {
		// Write key
		if err := writeString(bw, item.key); err != nil {
			return err
		}

		// Write type and index
		if err := binary.Write(bw, binary.LittleEndian, uint8(item.typ)); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, item.index); err != nil {
			return err
		}

		// Write fields / members
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.pairs))); err != nil {
			return err
		}
		for _, p := range item.pairs {
			if err := writeString(bw, p.Member); err != nil {
				return err
			}
			if err := binary.Write(bw, binary.LittleEndian, p.Score); err != nil {
				return err
			}
		}
	}

	// Flush buffer to ensure all data is written
	return bw.Flush()
}

// Load restores a database from the reader. All existing data is replaced.
//
// Thread-safety: Load locks all shards while the data is replaced.
func (maple *mapleImpl) Load(r io.Reader) error {

	// Use a buffered reader for better performance
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}

	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}

	if int(version) != mapleVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, mapleVersion)
	}

	// Read seed and write index (the seed of the running instance is kept, entries are redistributed)
	var seed, writeIdx uint64
	if err := binary.Read(br, binary.LittleEndian, &seed); err != nil {
		return err
	}
	if err := binary.Read(br, binary.LittleEndian, &writeIdx); err != nil {
		return err
	}

	// Read entries count
	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	// Read everything before touching the shards, a broken file leaves the database unchanged
	data := make(map[string]*internal.Entry)
	for i := uint64(0); i < count; i++ {
		key, err := readString(br)
		if err != nil {
			return err
		}

		var typ uint8
		if err := binary.Read(br, binary.LittleEndian, &typ); err != nil {
			return err
		}
		if internal.EntryType(typ) != internal.EntryTHash && internal.EntryType(typ) != internal.EntryTSortedCounters {
			return fmt.Errorf("invalid entry type %d for key %q", typ, key)
		}

		var index uint64
		if err := binary.Read(br, binary.LittleEndian, &index); err != nil {
			return err
		}

		var pairs uint32
		if err := binary.Read(br, binary.LittleEndian, &pairs); err != nil {
			return err
		}

		entry := internal.NewEntry(internal.EntryType(typ), index)
		for j := uint32(0); j < pairs; j++ {
			member, err := readString(br)
			if err != nil {
				return err
			}
			var score int64
			if err := binary.Read(br, binary.LittleEndian, &score); err != nil {
				return err
			}
			entry.Set(member, score)
		}
		data[key] = entry
	}

	// Replace the content of all shards
	unlock := maple.lockAll(true)
	defer unlock()

	for _, shard := range maple.shards {
		shard.Data = make(map[string]*internal.Entry)
	}
	for key, entry := range data {
		maple.shards[maple.shardIndex(key)].Data[key] = entry
	}
	maple.currIndex.Store(writeIdx)

	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	var hashes, sortedCounters int
	shardSizes := make([]int, len(maple.shards))

	for i, shard := range maple.shards {
		shard.Mu.RLock()
		shardSizes[i] = len(shard.Data)
		for _, entry := range shard.Data {
			if entry.Type == internal.EntryTHash {
				hashes++
			} else {
				sortedCounters++
			}
		}
		shard.Mu.RUnlock()
	}

	meta := struct {
		CurrentWriteIndex uint64            `json:"current_write_index"`
		ShardCount        int               `json:"shard_count"`
		ShardBalance      util.ShardBalance `json:"shard_balance"`
	}{
		CurrentWriteIndex: maple.currIndex.Load(),
		ShardCount:        len(maple.shards),
		ShardBalance:      util.NewShardBalance(shardSizes),
	}

	return db.DatabaseInfo{
		Keys:           hashes + sortedCounters,
		Hashes:         hashes,
		SortedCounters: sortedCounters,
		DbType:         db.ImplMaple,
		SupportedFeatures: features.Split(),
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return features&feature == feature
}

// Close releases the database (no background work to stop)
func (maple *mapleImpl) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Index Management
// --------------------------------------------------------------------------

// SetWriteIdx safely updates the current index
// It only updates if the new index is greater than the current one
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := maple.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if maple.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (maple *mapleImpl) WriteIdx() uint64 {
	return maple.currIndex.Load()
}
