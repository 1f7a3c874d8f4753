package bayes

import (
	"testing"
)

func TestCategoryTrainUntrain(t *testing.T) {
	cats, _ := newTestCategories(t, Config{}, "red")
	red := mustGet(t, cats, "red")

	if err := red.Train([]string{"apple", "pear", "apple"}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if red.Size() != 3 {
		t.Errorf("cached size = %d, want 3", red.Size())
	}
	if stored := mustGet(t, cats, "red").Size(); stored != 3 {
		t.Errorf("stored size = %d, want 3", stored)
	}

	t.Run("Get", func(t *testing.T) {
		testCases := []struct {
			word   string
			score  int64
			wantOk bool
		}{
			{"apple", 2, true},
			{"pear", 1, true},
			{"plum", 0, false},
		}
		for _, tc := range testCases {
			score, ok, err := red.Get(tc.word)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", tc.word, err)
			}
			if score != tc.score || ok != tc.wantOk {
				t.Errorf("Get(%q) = (%d, %v), want (%d, %v)", tc.word, score, ok, tc.score, tc.wantOk)
			}
		}
	})

	t.Run("Roundtrip", func(t *testing.T) {
		before := mustAll(t, red)
		words := []string{"apple", "plum", "plum", "kiwi"}

		if err := red.Train(words); err != nil {
			t.Fatalf("Train failed: %v", err)
		}
		if err := red.Untrain(words); err != nil {
			t.Fatalf("Untrain failed: %v", err)
		}

		if red.Size() != 3 {
			t.Errorf("size after roundtrip = %d, want 3", red.Size())
		}
		if after := mustAll(t, red); !equalCounts(after, before) {
			t.Errorf("counters after roundtrip = %v, want %v", after, before)
		}
	})

	t.Run("UntrainClamp", func(t *testing.T) {
		decrease, err := red.Eject([]string{"pear", "pear", "pear"})
		if err != nil {
			t.Fatalf("Eject failed: %v", err)
		}
		if decrease != 1 {
			t.Errorf("decrease = %d, want 1", decrease)
		}
		if _, ok, _ := red.Get("pear"); ok {
			t.Errorf("pear is still a member after untraining past zero")
		}
		if red.Size() != 2 {
			t.Errorf("size = %d, want 2", red.Size())
		}
		if stored := mustGet(t, cats, "red").Size(); stored != 2 {
			t.Errorf("stored size = %d, want 2", stored)
		}
	})

	t.Run("EmptyWords", func(t *testing.T) {
		if err := red.Train(nil); err != nil {
			t.Fatalf("Train(nil) failed: %v", err)
		}
		if err := red.Untrain([]string{}); err != nil {
			t.Fatalf("Untrain(empty) failed: %v", err)
		}
		if red.Size() != 2 {
			t.Errorf("size = %d, want 2", red.Size())
		}
	})
}

func TestCategorySizeInvariant(t *testing.T) {
	cats, _ := newTestCategories(t, Config{}, "red")
	red := mustGet(t, cats, "red")

	steps := []struct {
		train bool
		words []string
	}{
		{true, []string{"a", "b", "b", "c"}},
		{false, []string{"b", "d"}},
		{true, []string{"d", "d"}},
		{false, []string{"a", "a", "a"}},
		{false, []string{"b", "c", "d", "d", "d"}},
		{true, []string{"e"}},
	}

	for i, step := range steps {
		var err error
		if step.train {
			err = red.Train(step.words)
		} else {
			err = red.Untrain(step.words)
		}
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}

		var sum int64
		for _, score := range mustAll(t, red) {
			if score <= 0 {
				t.Errorf("step %d: stored non-positive score %d", i, score)
			}
			sum += score
		}
		if stored := mustGet(t, cats, "red").Size(); stored != sum || red.Size() != sum {
			t.Errorf("step %d: size = %d (cached %d), sum of scores = %d", i, stored, red.Size(), sum)
		}
	}
}

func TestCategoryAll(t *testing.T) {
	cats, _ := newTestCategories(t, Config{}, "red")
	red := mustGet(t, cats, "red")
	if err := red.Train([]string{"a", "b", "b", "c", "c", "c", "d", "d", "d", "d"}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	testCases := []struct {
		name string
		opts []AllOption
		want map[string]int64
	}{
		{"Full", nil, map[string]int64{"a": 1, "b": 2, "c": 3, "d": 4}},
		{"Rank", []AllOption{WithRank(2)}, map[string]int64{"c": 3, "d": 4}},
		{"RankBeyondSize", []AllOption{WithRank(10)}, map[string]int64{"a": 1, "b": 2, "c": 3, "d": 4}},
		{"Score", []AllOption{WithScore(2)}, map[string]int64{"b": 2, "c": 3, "d": 4}},
		{"ScoreAndRank", []AllOption{WithScore(2), WithRank(1)}, map[string]int64{"d": 4}},
		{"ScoreAboveAll", []AllOption{WithScore(5)}, map[string]int64{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustAll(t, red, tc.opts...); !equalCounts(got, tc.want) {
				t.Errorf("All() = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("TopOrder", func(t *testing.T) {
		pairs, err := red.Top()
		if err != nil {
			t.Fatalf("Top failed: %v", err)
		}
		want := []string{"d", "c", "b", "a"}
		if len(pairs) != len(want) {
			t.Fatalf("Top() = %v", pairs)
		}
		for i, p := range pairs {
			if p.Member != want[i] {
				t.Errorf("Top()[%d] = %q, want %q", i, p.Member, want[i])
			}
		}
	})
}

func TestCategoryScores(t *testing.T) {
	cats, _ := newTestCategories(t, Config{}, "red")
	red := mustGet(t, cats, "red")
	if err := red.Train([]string{"apple", "apple", "pear"}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	testCases := []struct {
		name  string
		cache map[string]int64
		want  []WordScore
	}{
		{"NoCache", nil, []WordScore{{2, true}, {0, false}, {1, true}}},
		{"CacheWins", map[string]int64{"apple": 7}, []WordScore{{7, true}, {0, false}, {1, true}}},
		{"FullCache", map[string]int64{"apple": 2, "plum": 0, "pear": 1}, []WordScore{{2, true}, {0, true}, {1, true}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := red.Scores([]string{"apple", "plum", "pear"}, tc.cache)
			if err != nil {
				t.Fatalf("Scores failed: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Scores() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Scores()[%d] = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestComplementaryTraining(t *testing.T) {
	cats, _ := newTestCategories(t, Config{Mode: Complementary}, "red", "green", "blue")
	red := mustGet(t, cats, "red")

	if err := red.Train([]string{"x"}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if red.Size() != 0 || len(mustAll(t, mustGet(t, cats, "red"))) != 0 {
		t.Errorf("complementary training changed the trained category")
	}
	for _, name := range []string{"green", "blue"} {
		c := mustGet(t, cats, name)
		if c.Size() != 1 {
			t.Errorf("%s size = %d, want 1", name, c.Size())
		}
		if score, ok, _ := c.Get("x"); !ok || score != 1 {
			t.Errorf("%s score of x = (%d, %v), want (1, true)", name, score, ok)
		}
	}

	t.Run("RespectsView", func(t *testing.T) {
		view := cats.Except("blue")
		if err := mustGet(t, view, "red").Train([]string{"y"}); err != nil {
			t.Fatalf("Train failed: %v", err)
		}
		if _, ok, _ := mustGet(t, cats, "blue").Get("y"); ok {
			t.Errorf("excluded category blue received y")
		}
		if _, ok, _ := mustGet(t, cats, "green").Get("y"); !ok {
			t.Errorf("green did not receive y")
		}
	})

	t.Run("Untrain", func(t *testing.T) {
		if err := red.Untrain([]string{"x"}); err != nil {
			t.Fatalf("Untrain failed: %v", err)
		}
		for _, name := range []string{"green", "blue"} {
			if _, ok, _ := mustGet(t, cats, name).Get("x"); ok {
				t.Errorf("%s still contains x", name)
			}
		}
	})

	t.Run("InjectIgnoresMode", func(t *testing.T) {
		if _, err := red.Inject([]string{"z"}); err != nil {
			t.Fatalf("Inject failed: %v", err)
		}
		if score, ok, _ := red.Get("z"); !ok || score != 1 {
			t.Errorf("red score of z = (%d, %v), want (1, true)", score, ok)
		}
		if _, ok, _ := mustGet(t, cats, "green").Get("z"); ok {
			t.Errorf("Inject changed green")
		}
	})
}

func TestReadyTo(t *testing.T) {
	cats, s := newTestCategories(t, Config{}, "red")
	red := mustGet(t, cats, "red")
	docs := [][]string{{"apple", "pear"}, {"apple"}, {}}

	before := s.saves.Load()
	err := red.ReadyToTrain(func(add func(words ...string)) {
		for _, doc := range docs {
			add(doc...)
		}
	})
	if err != nil {
		t.Fatalf("ReadyToTrain failed: %v", err)
	}
	if red.Size() != 3 {
		t.Errorf("size = %d, want 3", red.Size())
	}
	if saves := s.saves.Load() - before; saves != 1 {
		t.Errorf("ReadyToTrain saved %d times, want 1", saves)
	}

	err = red.ReadyToUntrain(func(add func(words ...string)) {
		add("apple")
		add("pear")
	})
	if err != nil {
		t.Fatalf("ReadyToUntrain failed: %v", err)
	}
	if all := mustAll(t, red); !equalCounts(all, map[string]int64{"apple": 1}) {
		t.Errorf("counters = %v, want apple:1", all)
	}

	if err := red.ReadyToInject(func(add func(words ...string)) { add("kiwi", "kiwi") }); err != nil {
		t.Fatalf("ReadyToInject failed: %v", err)
	}
	if err := red.ReadyToEject(func(add func(words ...string)) { add("apple") }); err != nil {
		t.Fatalf("ReadyToEject failed: %v", err)
	}
	if all := mustAll(t, red); !equalCounts(all, map[string]int64{"kiwi": 2}) || red.Size() != 2 {
		t.Errorf("counters = %v (size %d), want kiwi:2 (size 2)", all, red.Size())
	}
}

func TestTrainAfterRemove(t *testing.T) {
	cats, _ := newTestCategories(t, Config{}, "red")
	red := mustGet(t, cats, "red")
	if err := cats.Remove("red"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if err := red.Train([]string{"apple"}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	restored := mustGet(t, cats, "red")
	if restored.Size() != 1 {
		t.Errorf("size = %d, want 1", restored.Size())
	}
	if all := mustAll(t, restored); !equalCounts(all, map[string]int64{"apple": 1}) {
		t.Errorf("counters = %v, want apple:1", all)
	}
}
