package db

import (
	"io"
	"math/bits"
)

// Implementation names a KVDB engine
type Implementation string

const (
	ImplMaple Implementation = "maple"
)

// Feature is a bit set of optional engine capabilities
type Feature uint64

const (
	FeatureHash           Feature = 1 << iota // HGet, HSetNX, HIncrBy, HDel, HExists, HKeys, HGetAll
	FeatureSortedCounters                     // ZIncrBy, ZScore, ZRevRange, ZRevRangeByScore, ZRemRangeByScore
	FeatureDelete                             // Del
	FeatureAtomicBatch                        // batches are applied without interleaving
	FeatureSave
	FeatureLoad
)

var featureNames = []string{"Hash", "SortedCounters", "Delete", "AtomicBatch", "Save", "Load"}

func (f Feature) String() string {
	if bits.OnesCount64(uint64(f)) != 1 || bits.TrailingZeros64(uint64(f)) >= len(featureNames) {
		return "Unknown"
	}
	return featureNames[bits.TrailingZeros64(uint64(f))]
}

// Split returns the single features contained in the set f
func (f Feature) Split() []Feature {
	var out []Feature
	for rest := uint64(f); rest != 0; rest &= rest - 1 {
		out = append(out, Feature(1)<<bits.TrailingZeros64(rest))
	}
	return out
}

// DatabaseInfo describes the content of a database, Metadata is engine specific
type DatabaseInfo struct {
	Keys              int            `json:"keys"`
	Hashes            int            `json:"hashes"`
	SortedCounters    int            `json:"sorted_counters"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// KVDB is a counter database. Every key holds either a hash (field -> integer)
// or a sorted counter collection (member -> integer score, ordered by score).
// All access goes through batches of Commands, see command.go for the commands
// and their results.
type KVDB interface {
	// Apply executes all commands in order and returns one Result per command.
	// No other batch observes or modifies the keys of the batch while it runs.
	// writeIndex is the logical timestamp of the batch, read-only batches
	// may pass the current WriteIdx().
	Apply(cmds []Command, writeIndex uint64) (results []Result)

	// Save writes the whole database to w
	Save(w io.Writer) (err error)

	// Load replaces the database with the state written by Save
	Load(r io.Reader) (err error)

	// SupportsFeature reports whether all features of the set are supported,
	// e.g. SupportsFeature(FeatureSave|FeatureLoad).
	SupportsFeature(feature Feature) (ok bool)

	GetInfo() (info DatabaseInfo)

	// SetWriteIdx raises the write index, smaller values are ignored
	SetWriteIdx(index uint64)
	WriteIdx() (index uint64)

	Close() (err error)
}
