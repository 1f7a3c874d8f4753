package internal

import (
	"sort"
	"sync"
)

// --------------------------------------------------------------------------
// Entry Types
// --------------------------------------------------------------------------

type EntryType uint8

const (
	EntryTHash EntryType = iota
	EntryTSortedCounters
)

func (e EntryType) String() string {
	switch e {
	case EntryTHash:
		return "Hash"
	case EntryTSortedCounters:
		return "SortedCounters"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Entry Type (the value stored for one key)
// --------------------------------------------------------------------------

// Entry stores a hash or a sorted counter collection with metadata.
// Hash fields keep their insertion order in Fields, sorted counters are ordered on read.
type Entry struct {
	Type   EntryType
	Fields []string         // insertion order of the hash fields (unused for sorted counters)
	Values map[string]int64 // field -> value or member -> score
	Index  uint64           // Current Index when this entry was created/updated
}

// NewEntry creates an empty entry of the given type
func NewEntry(t EntryType, writeIdx uint64) *Entry {
	return &Entry{
		Type:   t,
		Values: make(map[string]int64),
		Index:  writeIdx,
	}
}

// Set stores a value and keeps track of the field order for hashes
func (e *Entry) Set(field string, value int64) {
	if _, ok := e.Values[field]; !ok && e.Type == EntryTHash {
		e.Fields = append(e.Fields, field)
	}
	e.Values[field] = value
}

// Remove deletes a field and reports whether it existed
func (e *Entry) Remove(field string) bool {
	if _, ok := e.Values[field]; !ok {
		return false
	}
	delete(e.Values, field)
	if e.Type == EntryTHash {
		for i, f := range e.Fields {
			if f == field {
				e.Fields = append(e.Fields[:i], e.Fields[i+1:]...)
				break
			}
		}
	}
	return true
}

// Len returns the number of fields or members
func (e *Entry) Len() int {
	return len(e.Values)
}

// Pairs returns all fields (hash, insertion order) or members (sorted counters,
// highest score first, equal scores by member descending) together with their values.
func (e *Entry) Pairs() []Pair {
	pairs := make([]Pair, 0, len(e.Values))
	if e.Type == EntryTHash {
		for _, f := range e.Fields {
			pairs = append(pairs, Pair{Member: f, Score: e.Values[f]})
		}
		return pairs
	}

	for m, s := range e.Values {
		pairs = append(pairs, Pair{Member: m, Score: s})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		return pairs[i].Member > pairs[j].Member
	})
	return pairs
}

// Pair is a member with its score
type Pair struct {
	Member string
	Score  int64
}

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard represents a partition of the database
// Each shard has its own independent lock and map
type Shard struct {
	Mu   sync.RWMutex
	Data map[string]*Entry
}

// NewShard creates a new empty shard
func NewShard() *Shard {
	return &Shard{
		Data: make(map[string]*Entry),
	}
}

// GetShardIndex returns the position of the shard responsible for a given key hash
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShardIndex(key uint64, numShards int) int {
	// Shift right by 7 bits to use higher-quality bits for distribution
	shiftedKey := key >> 7
	return int(shiftedKey % uint64(numShards))
}
