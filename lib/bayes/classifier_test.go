package bayes

import (
	"math"
	"testing"
)

// newColorCategories creates red{apple:2}, green{grasses:2} and blue{sea:3}
func newColorCategories(t *testing.T, cfg Config) *Categories {
	t.Helper()
	cats, _ := newTestCategories(t, cfg, "red", "green", "blue")
	for name, words := range map[string][]string{
		"red":   {"apple", "apple"},
		"green": {"grasses", "grasses"},
		"blue":  {"sea", "sea", "sea"},
	} {
		if _, err := mustGet(t, cats, name).Inject(words); err != nil {
			t.Fatalf("Inject(%s) failed: %v", name, err)
		}
	}
	return cats
}

func TestClassifications(t *testing.T) {
	cats := newColorCategories(t, Config{})

	testCases := []struct {
		name       string
		classifier *Classifier
		words      []string
		want       map[string]float64
	}{
		{
			name:       "Apple",
			classifier: NewClassifier(cats),
			words:      []string{"apple"},
			want:       map[string]float64{"red": 0, "green": math.Log(0.1 / 2), "blue": math.Log(0.1 / 3)},
		},
		{
			name:       "Deduplicated",
			classifier: NewClassifier(cats),
			words:      []string{"apple", "apple", "apple"},
			want:       map[string]float64{"red": 0, "green": -2.9957, "blue": -3.4012},
		},
		{
			name:       "Primed",
			classifier: NewClassifier(cats, WithPrime(WithRank(10))),
			words:      []string{"apple", "sea"},
			want: map[string]float64{
				"red":   math.Log(0.1 / 2),
				"green": 2 * math.Log(0.1/2),
				"blue":  math.Log(0.1/3) + math.Log(1),
			},
		},
		{
			name:       "Smoothing",
			classifier: NewClassifier(cats, WithSmoothing(1)),
			words:      []string{"sea"},
			want:       map[string]float64{"red": math.Log(0.5), "green": math.Log(0.5), "blue": 0},
		},
		{
			name:       "Filtered",
			classifier: NewClassifier(cats).Filter("red", "blue").Except("blue"),
			words:      []string{"apple"},
			want:       map[string]float64{"red": 0},
		},
		{
			name:       "EmptyWords",
			classifier: NewClassifier(cats),
			words:      nil,
			want:       map[string]float64{"red": 0, "green": 0, "blue": 0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.classifier.Classifications(tc.words)
			if err != nil {
				t.Fatalf("Classifications failed: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Classifications() = %v, want %v", got, tc.want)
			}
			for name, want := range tc.want {
				if !almostEqual(got[name], want) {
					t.Errorf("score of %s = %v, want %v", name, got[name], want)
				}
			}
		})
	}
}

func TestScore(t *testing.T) {
	cats, _ := newTestCategories(t, Config{}, "empty", "red")
	mustTrain(t, cats, "red", "apple", "apple")
	classifier := NewClassifier(cats)

	testCases := []struct {
		name     string
		category string
		words    []string
		want     float64
	}{
		{"EmptyCategory", "empty", []string{"apple"}, math.Inf(-1)},
		{"EmptyCategoryNoWords", "empty", nil, math.Inf(-1)},
		{"NoWords", "red", nil, 0},
		{"Known", "red", []string{"apple"}, 0},
		{"Unknown", "red", []string{"pear"}, math.Log(0.05)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := classifier.Score(mustGet(t, cats, tc.category), tc.words)
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			if !almostEqual(got, tc.want) {
				t.Errorf("Score() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Run("Standard", func(t *testing.T) {
		cats := newColorCategories(t, Config{})
		classifier := NewClassifier(cats)

		testCases := []struct {
			words []string
			want  string
		}{
			{[]string{"apple"}, "red"},
			{[]string{"grasses"}, "green"},
			{[]string{"sea", "sea"}, "blue"},
			// all scores are equal, the first category wins
			{nil, "red"},
		}
		for _, tc := range testCases {
			name, ok, err := classifier.Classify(tc.words)
			if err != nil {
				t.Fatalf("Classify(%v) failed: %v", tc.words, err)
			}
			if !ok || name != tc.want {
				t.Errorf("Classify(%v) = (%q, %v), want %q", tc.words, name, ok, tc.want)
			}
		}
	})

	t.Run("Argmax", func(t *testing.T) {
		cats := newColorCategories(t, Config{})
		classifier := NewClassifier(cats)
		words := []string{"grasses", "sea", "plum"}

		scores, err := classifier.Classifications(words)
		if err != nil {
			t.Fatalf("Classifications failed: %v", err)
		}
		best := ""
		for _, name := range []string{"red", "green", "blue"} {
			if best == "" || scores[name] > scores[best] {
				best = name
			}
		}

		got, _, err := classifier.Classify(words)
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got != best {
			t.Errorf("Classify() = %q, argmax of classifications = %q", got, best)
		}
	})

	t.Run("NoCategories", func(t *testing.T) {
		cats := newColorCategories(t, Config{})
		name, ok, err := NewClassifier(cats.Filter()).Classify([]string{"apple"})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if ok || name != "" {
			t.Errorf("Classify() = (%q, %v), want no category", name, ok)
		}
	})

	t.Run("UntrainedLoses", func(t *testing.T) {
		cats, _ := newTestCategories(t, Config{}, "empty", "red")
		mustTrain(t, cats, "red", "apple")
		name, _, err := NewClassifier(cats).Classify([]string{"pear"})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if name != "red" {
			t.Errorf("Classify() = %q, want red", name)
		}
	})

	t.Run("Complementary", func(t *testing.T) {
		cats, _ := newTestCategories(t, Config{Mode: Complementary}, "red", "green", "blue")
		train := map[string][]string{
			"red":   {"apple", "cherry"},
			"green": {"grasses", "leaf"},
			"blue":  {"sea", "sky"},
		}
		for _, name := range []string{"red", "green", "blue"} {
			mustTrain(t, cats, name, train[name]...)
		}

		classifier := NewClassifier(cats)
		testCases := []struct {
			words []string
			want  string
		}{
			{[]string{"apple", "cherry"}, "red"},
			{[]string{"leaf"}, "green"},
			{[]string{"sky", "sea"}, "blue"},
		}
		for _, tc := range testCases {
			name, ok, err := classifier.Classify(tc.words)
			if err != nil {
				t.Fatalf("Classify(%v) failed: %v", tc.words, err)
			}
			if !ok || name != tc.want {
				t.Errorf("Classify(%v) = (%q, %v), want %q", tc.words, name, ok, tc.want)
			}
		}
	})

	t.Run("ScoringOverride", func(t *testing.T) {
		cats := newColorCategories(t, Config{})
		name, _, err := NewClassifier(cats, WithScoring(ArgMin)).Classify([]string{"apple"})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if name != "blue" {
			t.Errorf("Classify() with ArgMin = %q, want blue", name)
		}
	})
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"b", "a", "b", "c", "a"})
	if !equalNames(got, []string{"b", "a", "c"}) {
		t.Errorf("dedupe() = %v, want [b a c]", got)
	}
}
