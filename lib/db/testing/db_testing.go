package testing

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("HashCommands", func(t *testing.T) {
			testHashCommands(t, factory())
		})

		t.Run("HashFieldOrder", func(t *testing.T) {
			testHashFieldOrder(t, factory())
		})

		t.Run("SortedCounterCommands", func(t *testing.T) {
			testSortedCounterCommands(t, factory())
		})

		t.Run("RevRange", func(t *testing.T) {
			testRevRange(t, factory())
		})

		t.Run("RevRangeByScore", func(t *testing.T) {
			testRevRangeByScore(t, factory())
		})

		t.Run("RemRangeByScore", func(t *testing.T) {
			testRemRangeByScore(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("WrongType", func(t *testing.T) {
			testWrongType(t, factory())
		})

		t.Run("BatchOrder", func(t *testing.T) {
			testBatchOrder(t, factory())
		})

		t.Run("ConcurrentBatches", func(t *testing.T) {
			testConcurrentBatches(t, factory())
		})

		t.Run("WriteIndex", func(t *testing.T) {
			testWriteIndex(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// apply executes a single command and returns its result
func apply(database db.KVDB, cmd db.Command, idx uint64) db.Result {
	return database.Apply([]db.Command{cmd}, idx)[0]
}

func hIncrBy(key, field string, delta int64) db.Command {
	return db.Command{Type: db.CmdHIncrBy, Key: key, Field: field, Delta: delta}
}

func zIncrBy(key, member string, delta int64) db.Command {
	return db.Command{Type: db.CmdZIncrBy, Key: key, Field: member, Delta: delta}
}

func revRange(key string, start, stop int64) db.Command {
	return db.Command{Type: db.CmdZRevRange, Key: key, Start: start, Stop: stop}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testHashCommands(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureHash)

	if res := apply(database, db.Command{Type: db.CmdHGet, Key: "h", Field: "a"}, 0); res.Ok || res.Int != 0 {
		t.Errorf("Expected missing field on missing hash, got %+v", res)
	}

	if res := apply(database, db.Command{Type: db.CmdHSetNX, Key: "h", Field: "a", Delta: 0}, 1); !res.Ok {
		t.Errorf("Expected HSetNX to create the field")
	}
	if res := apply(database, db.Command{Type: db.CmdHSetNX, Key: "h", Field: "a", Delta: 7}, 2); res.Ok {
		t.Errorf("Expected HSetNX to keep the existing field")
	}

	if res := apply(database, hIncrBy("h", "a", 5), 3); res.Int != 5 {
		t.Errorf("Expected HIncrBy result 5, got %d", res.Int)
	}
	if res := apply(database, hIncrBy("h", "a", -2), 4); res.Int != 3 {
		t.Errorf("Expected HIncrBy result 3, got %d", res.Int)
	}

	res := apply(database, db.Command{Type: db.CmdHGet, Key: "h", Field: "a"}, 4)
	if !res.Ok || res.Int != 3 {
		t.Errorf("Expected HGet to return 3, got %+v", res)
	}

	// an existing field with value 0 is still found
	apply(database, hIncrBy("h", "zero", 0), 5)
	res = apply(database, db.Command{Type: db.CmdHGet, Key: "h", Field: "zero"}, 5)
	if !res.Ok || res.Int != 0 {
		t.Errorf("Expected HGet to find field with value 0, got %+v", res)
	}

	if res := apply(database, db.Command{Type: db.CmdHExists, Key: "h", Field: "a"}, 5); !res.Ok {
		t.Errorf("Expected HExists to report the field")
	}
	if res := apply(database, db.Command{Type: db.CmdHDel, Key: "h", Field: "a"}, 6); !res.Ok {
		t.Errorf("Expected HDel to report the removed field")
	}
	if res := apply(database, db.Command{Type: db.CmdHDel, Key: "h", Field: "a"}, 7); res.Ok {
		t.Errorf("Expected HDel on a missing field to report false")
	}
	if res := apply(database, db.Command{Type: db.CmdHExists, Key: "h", Field: "a"}, 7); res.Ok {
		t.Errorf("Expected HExists to report a deleted field as missing")
	}

	// removing the last field removes the key
	apply(database, db.Command{Type: db.CmdHDel, Key: "h", Field: "zero"}, 8)
	if info := database.GetInfo(); info.Keys != 0 {
		t.Errorf("Expected empty hash to be removed, got %d keys", info.Keys)
	}
}

func testHashFieldOrder(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureHash)

	fields := []string{"red", "green", "blue", "alpha", "omega"}
	for i, f := range fields {
		apply(database, hIncrBy("h", f, int64(i+1)), uint64(i+1))
	}

	// updating a field does not move it
	apply(database, hIncrBy("h", "red", 10), 10)

	res := apply(database, db.Command{Type: db.CmdHKeys, Key: "h"}, 10)
	if !reflect.DeepEqual(res.Members, fields) {
		t.Errorf("Expected HKeys %v, got %v", fields, res.Members)
	}

	res = apply(database, db.Command{Type: db.CmdHGetAll, Key: "h"}, 10)
	expected := []db.Pair{{Member: "red", Score: 11}, {Member: "green", Score: 2}, {Member: "blue", Score: 3}, {Member: "alpha", Score: 4}, {Member: "omega", Score: 5}}
	if !reflect.DeepEqual(res.Pairs, expected) {
		t.Errorf("Expected HGetAll %v, got %v", expected, res.Pairs)
	}

	// deleting and re-adding moves the field to the end
	apply(database, db.Command{Type: db.CmdHDel, Key: "h", Field: "green"}, 11)
	apply(database, hIncrBy("h", "green", 1), 12)
	res = apply(database, db.Command{Type: db.CmdHKeys, Key: "h"}, 12)
	expectedKeys := []string{"red", "blue", "alpha", "omega", "green"}
	if !reflect.DeepEqual(res.Members, expectedKeys) {
		t.Errorf("Expected HKeys %v, got %v", expectedKeys, res.Members)
	}

	if res := apply(database, db.Command{Type: db.CmdHKeys, Key: "missing"}, 12); len(res.Members) != 0 {
		t.Errorf("Expected no fields for a missing hash, got %v", res.Members)
	}
}

func testSortedCounterCommands(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSortedCounters)

	if res := apply(database, zIncrBy("z", "a", 2), 1); res.Int != 2 {
		t.Errorf("Expected ZIncrBy result 2, got %d", res.Int)
	}
	if res := apply(database, zIncrBy("z", "a", 3), 2); res.Int != 5 {
		t.Errorf("Expected ZIncrBy result 5, got %d", res.Int)
	}

	res := apply(database, db.Command{Type: db.CmdZScore, Key: "z", Field: "a"}, 2)
	if !res.Ok || res.Int != 5 {
		t.Errorf("Expected ZScore 5, got %+v", res)
	}
	if res := apply(database, db.Command{Type: db.CmdZScore, Key: "z", Field: "b"}, 2); res.Ok {
		t.Errorf("Expected ZScore of a missing member to report false")
	}
	if res := apply(database, db.Command{Type: db.CmdZScore, Key: "missing", Field: "a"}, 2); res.Ok {
		t.Errorf("Expected ZScore of a missing key to report false")
	}

	// scores may become negative, the member stays until it is removed
	res = apply(database, zIncrBy("z", "a", -7), 3)
	if res.Int != -2 {
		t.Errorf("Expected ZIncrBy result -2, got %d", res.Int)
	}
	res = apply(database, db.Command{Type: db.CmdZScore, Key: "z", Field: "a"}, 3)
	if !res.Ok || res.Int != -2 {
		t.Errorf("Expected ZScore -2, got %+v", res)
	}
}

func testRevRange(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSortedCounters)

	database.Apply([]db.Command{
		zIncrBy("z", "a", 1),
		zIncrBy("z", "b", 3),
		zIncrBy("z", "c", 2),
		zIncrBy("z", "d", 3),
	}, 1)

	testCases := []struct {
		name        string
		start, stop int64
		expected    []db.Pair
	}{
		{"all", 0, -1, []db.Pair{{Member: "d", Score: 3}, {Member: "b", Score: 3}, {Member: "c", Score: 2}, {Member: "a", Score: 1}}},
		{"first", 0, 0, []db.Pair{{Member: "d", Score: 3}}},
		{"top two", 0, 1, []db.Pair{{Member: "d", Score: 3}, {Member: "b", Score: 3}}},
		{"last", -1, -1, []db.Pair{{Member: "a", Score: 1}}},
		{"stop beyond end", 2, 100, []db.Pair{{Member: "c", Score: 2}, {Member: "a", Score: 1}}},
		{"start beyond end", 10, 20, []db.Pair{}},
		{"start after stop", 2, 1, []db.Pair{}},
		{"negative start before begin", -100, 0, []db.Pair{{Member: "d", Score: 3}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := apply(database, revRange("z", tc.start, tc.stop), 1)
			if len(res.Pairs) != len(tc.expected) {
				t.Fatalf("Expected %v, got %v", tc.expected, res.Pairs)
			}
			for i := range tc.expected {
				if res.Pairs[i] != tc.expected[i] {
					t.Errorf("Expected %v, got %v", tc.expected, res.Pairs)
					break
				}
			}
		})
	}

	if res := apply(database, revRange("missing", 0, -1), 1); len(res.Pairs) != 0 {
		t.Errorf("Expected empty range for a missing key, got %v", res.Pairs)
	}
}

func testRevRangeByScore(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSortedCounters)

	database.Apply([]db.Command{
		zIncrBy("z", "a", 1),
		zIncrBy("z", "b", 5),
		zIncrBy("z", "c", 3),
		zIncrBy("z", "d", 10),
	}, 1)

	testCases := []struct {
		name     string
		max, min int64
		count    int64
		expected []string
	}{
		{"all", db.MaxScore, db.MinScore, 0, []string{"d", "b", "c", "a"}},
		{"min bound inclusive", db.MaxScore, 3, 0, []string{"d", "b", "c"}},
		{"max bound inclusive", 5, db.MinScore, 0, []string{"b", "c", "a"}},
		{"window", 5, 3, 0, []string{"b", "c"}},
		{"count", db.MaxScore, db.MinScore, 2, []string{"d", "b"}},
		{"count with bounds", 5, db.MinScore, 1, []string{"b"}},
		{"empty", 100, 50, 0, []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := apply(database, db.Command{Type: db.CmdZRevRangeByScore, Key: "z", Max: tc.max, Min: tc.min, Count: tc.count}, 1)
			members := make([]string, 0, len(res.Pairs))
			for _, p := range res.Pairs {
				members = append(members, p.Member)
			}
			if !reflect.DeepEqual(members, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, members)
			}
		})
	}
}

func testRemRangeByScore(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSortedCounters)

	database.Apply([]db.Command{
		zIncrBy("z", "a", -2),
		zIncrBy("z", "b", 0),
		zIncrBy("z", "c", 1),
		zIncrBy("z", "d", 4),
	}, 1)

	res := apply(database, db.Command{Type: db.CmdZRemRangeByScore, Key: "z", Min: db.MinScore, Max: 0}, 2)
	if res.Int != 2 {
		t.Errorf("Expected 2 removed members, got %d", res.Int)
	}

	res = apply(database, revRange("z", 0, -1), 2)
	expected := []db.Pair{{Member: "d", Score: 4}, {Member: "c", Score: 1}}
	if !reflect.DeepEqual(res.Pairs, expected) {
		t.Errorf("Expected %v, got %v", expected, res.Pairs)
	}

	// removing the remaining members removes the key
	apply(database, db.Command{Type: db.CmdZRemRangeByScore, Key: "z", Min: db.MinScore, Max: db.MaxScore}, 3)
	if info := database.GetInfo(); info.Keys != 0 {
		t.Errorf("Expected empty sorted counter to be removed, got %d keys", info.Keys)
	}

	if res := apply(database, db.Command{Type: db.CmdZRemRangeByScore, Key: "missing", Min: db.MinScore, Max: 0}, 4); res.Int != 0 || res.Err != "" {
		t.Errorf("Expected no removal on a missing key, got %+v", res)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureDelete)

	database.Apply([]db.Command{
		hIncrBy("h", "a", 1),
		zIncrBy("z", "a", 1),
	}, 1)

	results := database.Apply([]db.Command{
		{Type: db.CmdDel, Key: "h"},
		{Type: db.CmdDel, Key: "z"},
		{Type: db.CmdDel, Key: "missing"},
	}, 2)

	if !results[0].Ok || !results[1].Ok {
		t.Errorf("Expected Del to report existing keys, got %+v", results)
	}
	if results[2].Ok {
		t.Errorf("Expected Del to report a missing key as false")
	}

	if res := apply(database, db.Command{Type: db.CmdHExists, Key: "h", Field: "a"}, 2); res.Ok {
		t.Errorf("Expected deleted hash to be gone")
	}
	if res := apply(database, db.Command{Type: db.CmdZScore, Key: "z", Field: "a"}, 2); res.Ok {
		t.Errorf("Expected deleted sorted counter to be gone")
	}
}

func testWrongType(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureHash|db.FeatureSortedCounters)

	apply(database, hIncrBy("h", "a", 1), 1)
	apply(database, zIncrBy("z", "a", 1), 1)

	results := database.Apply([]db.Command{
		zIncrBy("h", "a", 1),
		hIncrBy("z", "a", 1),
		hIncrBy("h", "a", 1),
	}, 2)

	if results[0].Err != db.ErrMsgWrongType || results[1].Err != db.ErrMsgWrongType {
		t.Errorf("Expected WRONGTYPE errors, got %+v", results)
	}

	// the other commands of the batch are not affected
	if results[2].Err != "" || results[2].Int != 2 {
		t.Errorf("Expected HIncrBy to succeed, got %+v", results[2])
	}

	if res := apply(database, db.Command{Type: db.CommandType(255), Key: "h"}, 3); res.Err == "" {
		t.Errorf("Expected error for unknown command")
	}
}

func testBatchOrder(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSortedCounters|db.FeatureHash)

	// commands of a batch see the effects of the previous commands
	results := database.Apply([]db.Command{
		zIncrBy("z", "a", 2),
		zIncrBy("z", "a", -2),
		{Type: db.CmdZRemRangeByScore, Key: "z", Min: db.MinScore, Max: 0},
		{Type: db.CmdZScore, Key: "z", Field: "a"},
		hIncrBy("h", "size", 4),
		{Type: db.CmdHGet, Key: "h", Field: "size"},
	}, 1)

	if results[1].Int != 0 {
		t.Errorf("Expected score 0 after second ZIncrBy, got %d", results[1].Int)
	}
	if results[2].Int != 1 {
		t.Errorf("Expected one removed member, got %d", results[2].Int)
	}
	if results[3].Ok {
		t.Errorf("Expected removed member to be missing")
	}
	if !results[5].Ok || results[5].Int != 4 {
		t.Errorf("Expected HGet 4, got %+v", results[5])
	}

	if len(database.Apply(nil, 1)) != 0 {
		t.Errorf("Expected no results for an empty batch")
	}
}

func testConcurrentBatches(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureAtomicBatch)

	const (
		workers = 16
		rounds  = 200
	)

	var (
		wg      sync.WaitGroup
		counter atomic.Uint64
		broken  atomic.Int64
	)

	// every batch moves one point from "a" to "b" in two different keys,
	// a reader must never see a state where the two keys disagree
	apply(database, hIncrBy("x", "a", workers*rounds), counter.Add(1))
	apply(database, zIncrBy("y", "a", workers*rounds), counter.Add(1))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if w%2 == 0 {
					database.Apply([]db.Command{
						hIncrBy("x", "a", -1),
						zIncrBy("y", "a", -1),
						hIncrBy("x", "b", 1),
						zIncrBy("y", "b", 1),
					}, counter.Add(1))
				} else {
					results := database.Apply([]db.Command{
						{Type: db.CmdHGet, Key: "x", Field: "a"},
						{Type: db.CmdZScore, Key: "y", Field: "a"},
					}, counter.Load())
					if results[0].Int != results[1].Int {
						broken.Add(1)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	if broken.Load() != 0 {
		t.Errorf("Observed %d inconsistent reads", broken.Load())
	}

	res := apply(database, db.Command{Type: db.CmdHGet, Key: "x", Field: "b"}, counter.Load())
	if res.Int != workers/2*rounds {
		t.Errorf("Expected %d, got %d", workers/2*rounds, res.Int)
	}
}

func testWriteIndex(t *testing.T, database db.KVDB) {
	defer database.Close()

	apply(database, hIncrBy("h", "a", 1), 10)
	if database.WriteIdx() != 10 {
		t.Errorf("Expected write index 10, got %d", database.WriteIdx())
	}

	// lower indices never move the index backwards
	apply(database, hIncrBy("h", "a", 1), 5)
	database.SetWriteIdx(3)
	if database.WriteIdx() != 10 {
		t.Errorf("Expected write index 10, got %d", database.WriteIdx())
	}

	// read-only batches do not change the index
	apply(database, db.Command{Type: db.CmdHGet, Key: "h", Field: "a"}, 100)
	if database.WriteIdx() != 10 {
		t.Errorf("Expected write index 10 after read, got %d", database.WriteIdx())
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	defer database.Close()

	requireFeature(t, database, db.FeatureSave|db.FeatureLoad)

	for i := 0; i < 100; i++ {
		database.Apply([]db.Command{
			hIncrBy("categories", fmt.Sprintf("cat-%d", i), int64(i)),
			zIncrBy(fmt.Sprintf("cat-%d", i%10), fmt.Sprintf("word-%d", i), int64(i+1)),
		}, uint64(i+1))
	}

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Failed to save database: %v", err)
	}

	loaded := factory()
	defer loaded.Close()

	// existing data is replaced
	apply(loaded, hIncrBy("stale", "a", 1), 1)

	if err := loaded.Load(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Failed to load database: %v", err)
	}

	if loaded.WriteIdx() != database.WriteIdx() {
		t.Errorf("Expected write index %d, got %d", database.WriteIdx(), loaded.WriteIdx())
	}
	if res := apply(loaded, db.Command{Type: db.CmdHExists, Key: "stale", Field: "a"}, 0); res.Ok {
		t.Errorf("Expected stale data to be replaced on load")
	}

	for _, cmd := range []db.Command{
		{Type: db.CmdHKeys, Key: "categories"},
		{Type: db.CmdHGetAll, Key: "categories"},
		revRange("cat-3", 0, -1),
		revRange("cat-7", 0, -1),
	} {
		original := apply(database, cmd, 0)
		restored := apply(loaded, cmd, 0)
		if !reflect.DeepEqual(original, restored) {
			t.Errorf("%s: expected %+v, got %+v", cmd, original, restored)
		}
	}

	if err := loaded.Load(bytes.NewReader([]byte("NOTMAPLE"))); err == nil {
		t.Errorf("Expected error for invalid data")
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	database.Apply([]db.Command{
		hIncrBy("h1", "a", 1),
		hIncrBy("h2", "a", 1),
		zIncrBy("z", "a", 1),
	}, 1)

	info := database.GetInfo()
	if info.Keys != 3 || info.Hashes != 2 || info.SortedCounters != 1 {
		t.Errorf("Unexpected info %+v", info)
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("Feature %s listed but not supported", f)
		}
	}
}
