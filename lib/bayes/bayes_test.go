package bayes

import (
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/db/engines/maple"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/lib/store/lstore"
	"math"
	"sync/atomic"
	"testing"
)

// countingStore counts the calls to Save of the wrapped store
type countingStore struct {
	store.IStore
	saves atomic.Int64
}

func (s *countingStore) Save() error {
	s.saves.Add(1)
	return s.IStore.Save()
}

func newTestStore() *countingStore {
	return &countingStore{IStore: lstore.NewLocalStore(func() db.KVDB {
		return maple.NewMapleDB(nil)
	})}
}

func newTestCategories(t *testing.T, cfg Config, names ...string) (*Categories, *countingStore) {
	t.Helper()
	s := newTestStore()
	cats := NewCategories(s, cfg)
	if err := cats.Add(names...); err != nil {
		t.Fatalf("Add(%v) failed: %v", names, err)
	}
	return cats, s
}

func mustGet(t *testing.T, cats *Categories, name string) *Category {
	t.Helper()
	c, err := cats.Get(name)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", name, err)
	}
	return c
}

func mustTrain(t *testing.T, cats *Categories, name string, words ...string) {
	t.Helper()
	if err := mustGet(t, cats, name).Train(words); err != nil {
		t.Fatalf("Train(%q, %v) failed: %v", name, words, err)
	}
}

func mustAll(t *testing.T, c *Category, opts ...AllOption) map[string]int64 {
	t.Helper()
	all, err := c.All(opts...)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	return all
}

func equalCounts(a, b map[string]int64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func almostEqual(a, b float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) < 1e-4
}
