package testing

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"sync"
	"testing"
)

// StoreFactory creates a new, empty store for a single test
type StoreFactory func(t *testing.T) store.IStore

// RunStoreTests runs the conformance test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Exec", func(t *testing.T) {
			testExec(t, factory(t))
		})

		t.Run("ReadOnlyBatch", func(t *testing.T) {
			testReadOnlyBatch(t, factory(t))
		})

		t.Run("EmptyBatch", func(t *testing.T) {
			testEmptyBatch(t, factory(t))
		})

		t.Run("WrongType", func(t *testing.T) {
			testWrongType(t, factory(t))
		})

		t.Run("ConcurrentIncrements", func(t *testing.T) {
			testConcurrentIncrements(t, factory(t))
		})

		t.Run("Save", func(t *testing.T) {
			testSave(t, factory(t))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testExec(t *testing.T, s store.IStore) {
	results, err := s.Exec(store.NewBatch().
		ZIncrBy("inferx:red", "apple", 2).
		ZIncrBy("inferx:red", "pear", 1).
		HIncrBy("inferx:categories", "red", 3).
		ZRevRange("inferx:red", 0, -1).
		HGet("inferx:categories", "red"))
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(results))
	}
	if results[0].Int != 2 || results[1].Int != 1 || results[2].Int != 3 {
		t.Errorf("Unexpected increment results %+v", results[:3])
	}
	expected := []db.Pair{{Member: "apple", Score: 2}, {Member: "pear", Score: 1}}
	if len(results[3].Pairs) != 2 || results[3].Pairs[0] != expected[0] || results[3].Pairs[1] != expected[1] {
		t.Errorf("Expected %v, got %v", expected, results[3].Pairs)
	}
	if !results[4].Ok || results[4].Int != 3 {
		t.Errorf("Expected size 3, got %+v", results[4])
	}
}

func testReadOnlyBatch(t *testing.T, s store.IStore) {
	if _, err := s.Exec(store.NewBatch().HSetNX("inferx:categories", "red", 0)); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	results, err := s.Exec(store.NewBatch().
		HExists("inferx:categories", "red").
		HExists("inferx:categories", "green").
		HKeys("inferx:categories").
		ZScore("inferx:red", "apple"))
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if !results[0].Ok || results[1].Ok {
		t.Errorf("Unexpected HExists results %+v", results[:2])
	}
	if len(results[2].Members) != 1 || results[2].Members[0] != "red" {
		t.Errorf("Expected [red], got %v", results[2].Members)
	}
	if results[3].Ok {
		t.Errorf("Expected missing score, got %+v", results[3])
	}
}

func testEmptyBatch(t *testing.T, s store.IStore) {
	results, err := s.Exec(store.NewBatch())
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %v", results)
	}
}

func testWrongType(t *testing.T, s store.IStore) {
	if _, err := s.Exec(store.NewBatch().HIncrBy("h", "a", 1)); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	results, err := s.Exec(store.NewBatch().
		HIncrBy("h", "a", 1).
		ZIncrBy("h", "a", 1))
	if err == nil {
		t.Fatalf("Expected error for wrong type")
	}

	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != store.RetCWrongType {
		t.Errorf("Expected RetCWrongType, got %v", err)
	}

	// the results are returned next to the error, the other commands were applied
	if len(results) != 2 || results[0].Int != 2 || results[1].Err != db.ErrMsgWrongType {
		t.Errorf("Unexpected results %+v", results)
	}
}

func testConcurrentIncrements(t *testing.T, s store.IStore) {
	const (
		workers = 8
		rounds  = 25
	)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_, err := s.Exec(store.NewBatch().
					ZIncrBy("inferx:red", fmt.Sprintf("word-%d", i%5), 1).
					HIncrBy("inferx:categories", "red", 1))
				if err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("Exec failed: %v", err)
	}

	results, err := s.Exec(store.NewBatch().
		HGet("inferx:categories", "red").
		ZRevRangeByScore("inferx:red", db.MaxScore, db.MinScore, 0))
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if results[0].Int != workers*rounds {
		t.Errorf("Expected size %d, got %d", workers*rounds, results[0].Int)
	}
	var sum int64
	for _, p := range results[1].Pairs {
		sum += p.Score
	}
	if sum != results[0].Int {
		t.Errorf("Expected sum of scores %d to match size %d", sum, results[0].Int)
	}
}

func testSave(t *testing.T, s store.IStore) {
	if _, err := s.Exec(store.NewBatch().HIncrBy("inferx:categories", "red", 1)); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Errorf("Save failed: %v", err)
	}
}

func testInfo(t *testing.T, s store.IStore) {
	if _, err := s.Exec(store.NewBatch().
		HIncrBy("inferx:categories", "red", 1).
		ZIncrBy("inferx:red", "apple", 1)); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	info, err := s.GetDBInfo()
	if err != nil {
		t.Fatalf("GetDBInfo failed: %v", err)
	}
	if info.DbType != db.ImplMaple {
		t.Errorf("Expected db type %s, got %s", db.ImplMaple, info.DbType)
	}
}
