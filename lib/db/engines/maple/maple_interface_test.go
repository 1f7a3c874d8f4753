package maple

import (
	"github.com/ValentinKolb/dInfer/lib/db"
	dbtesting "github.com/ValentinKolb/dInfer/lib/db/testing"
	"testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}

func TestSingleShard(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB(1 shard)", func() db.KVDB {
		return NewMapleDB(&DBOptions{NumShards: 1})
	})
}

func TestNormalizeRange(t *testing.T) {
	testCases := []struct {
		start, stop, n int64
		wantStart      int64
		wantStop       int64
		wantOk         bool
	}{
		{0, -1, 5, 0, 4, true},
		{-2, -1, 5, 3, 4, true},
		{0, 10, 5, 0, 4, true},
		{5, 10, 5, 0, 0, false},
		{3, 1, 5, 0, 0, false},
		{0, -1, 0, 0, 0, false},
		{-10, 0, 5, 0, 0, true},
	}

	for _, tc := range testCases {
		start, stop, ok := normalizeRange(tc.start, tc.stop, tc.n)
		if ok != tc.wantOk || (ok && (start != tc.wantStart || stop != tc.wantStop)) {
			t.Errorf("normalizeRange(%d, %d, %d) = (%d, %d, %v), want (%d, %d, %v)",
				tc.start, tc.stop, tc.n, start, stop, ok, tc.wantStart, tc.wantStop, tc.wantOk)
		}
	}
}

func Benchmark(t *testing.B) {
	dbtesting.RunKVDBBenchmarks(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}
