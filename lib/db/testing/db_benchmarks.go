package testing

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"math/rand"
	"sync/atomic"
	"testing"
)

// RunKVDBBenchmarks runs all benchmarks for a counter database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("HIncrBy", func(b *testing.B) {
		benchmarkHIncrBy(b, factory())
	})

	b.Run("ZIncrBy", func(b *testing.B) {
		benchmarkZIncrBy(b, factory())
	})

	b.Run("TrainBatch", func(b *testing.B) {
		benchmarkTrainBatch(b, factory())
	})

	b.Run("ScoreBatch", func(b *testing.B) {
		benchmarkScoreBatch(b, factory())
	})

	b.Run("RevRange", func(b *testing.B) {
		benchmarkRevRange(b, factory())
	})

	b.Run("SaveLoad", func(b *testing.B) {
		benchmarkSaveLoad(b, factory)
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkHIncrBy(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureHash)

	var idx atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Apply([]db.Command{hIncrBy("h", fmt.Sprintf("field-%d", counter%100), 1)}, idx.Add(1))
			counter++
		}
	})
}

func benchmarkZIncrBy(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSortedCounters)

	var idx atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Apply([]db.Command{zIncrBy(fmt.Sprintf("z-%d", counter%10), fmt.Sprintf("word-%d", counter), 1)}, idx.Add(1))
			counter++
		}
	})
}

// benchmarkTrainBatch measures batches shaped like a training call:
// one ZIncrBy per word followed by a size update
func benchmarkTrainBatch(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureHash|db.FeatureSortedCounters)

	words := make([]string, 20)
	for i := range words {
		words[i] = fmt.Sprintf("word-%d", i)
	}

	var idx atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			category := fmt.Sprintf("cat-%d", rand.Intn(4))
			cmds := make([]db.Command, 0, len(words)+1)
			for _, w := range words {
				cmds = append(cmds, zIncrBy(category, w, 1))
			}
			cmds = append(cmds, hIncrBy("categories", category, int64(len(words))))
			database.Apply(cmds, idx.Add(1))
		}
	})
}

// benchmarkScoreBatch measures read batches shaped like a classification
func benchmarkScoreBatch(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSortedCounters)

	for i := 0; i < 10000; i++ {
		database.Apply([]db.Command{zIncrBy(fmt.Sprintf("cat-%d", i%4), fmt.Sprintf("word-%d", i), int64(i%7+1))}, uint64(i+1))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			cmds := make([]db.Command, 0, 20)
			for i := 0; i < 20; i++ {
				cmds = append(cmds, db.Command{Type: db.CmdZScore, Key: "cat-1", Field: fmt.Sprintf("word-%d", rand.Intn(20000))})
			}
			database.Apply(cmds, database.WriteIdx())
		}
	})
}

func benchmarkRevRange(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSortedCounters)

	for i := 0; i < 1000; i++ {
		database.Apply([]db.Command{zIncrBy("z", fmt.Sprintf("word-%d", i), int64(i))}, uint64(i+1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Apply([]db.Command{revRange("z", 0, 9)}, database.WriteIdx())
	}
}

func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	database := factory()
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSave|db.FeatureLoad)

	for i := 0; i < 100000; i++ {
		database.Apply([]db.Command{zIncrBy(fmt.Sprintf("cat-%d", i%10), fmt.Sprintf("word-%d", i), 1)}, uint64(i+1))
	}

	var buf bytes.Buffer
	b.Run("Save", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf.Reset()
			if err := database.Save(&buf); err != nil {
				b.Fatalf("Failed to save database: %v", err)
			}
		}
	})

	b.Run("Load", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			loaded := factory()
			if err := loaded.Load(bytes.NewReader(buf.Bytes())); err != nil {
				b.Fatalf("Failed to load database: %v", err)
			}
			loaded.Close()
		}
	})
}
