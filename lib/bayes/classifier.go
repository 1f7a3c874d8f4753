package bayes

import (
	"math"
	"time"
)

// DefaultSmoothing replaces the score of words that are not a member of a category
const DefaultSmoothing = 0.1

// Classifier scores words against the visible categories of a view.
// It holds no state besides its configuration and is safe for concurrent use.
type Classifier struct {
	categories *Categories
	smoothing  float64
	scoring    ScoringMode
	prime      []AllOption
}

// ClassifierOption configures a Classifier
type ClassifierOption func(*Classifier)

// WithSmoothing sets the value used for absent or non-positive word scores
func WithSmoothing(smoothing float64) ClassifierOption {
	return func(c *Classifier) {
		c.smoothing = smoothing
	}
}

// WithScoring overrides the selection rule derived from the training mode
func WithScoring(scoring ScoringMode) ClassifierOption {
	return func(c *Classifier) {
		c.scoring = scoring
	}
}

// WithPrime fetches a snapshot of every category (bounded by opts) before scoring.
// Words found in the snapshot are not looked up again.
func WithPrime(opts ...AllOption) ClassifierOption {
	return func(c *Classifier) {
		c.prime = append([]AllOption{}, opts...)
	}
}

// NewClassifier creates a classifier over the categories.
// Complementary categories are classified with ArgMin, standard ones with ArgMax.
func NewClassifier(categories *Categories, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		categories: categories,
		smoothing:  DefaultSmoothing,
		scoring:    categories.Mode().Scoring(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categories returns the view the classifier works on
func (c *Classifier) Categories() *Categories {
	return c.categories
}

// Filter returns a classifier that only considers the given categories
func (c *Classifier) Filter(names ...string) *Classifier {
	view := *c
	view.categories = c.categories.Filter(names...)
	return &view
}

// Except returns a classifier that ignores the given categories
func (c *Classifier) Except(names ...string) *Classifier {
	view := *c
	view.categories = c.categories.Except(names...)
	return &view
}

// Score returns the log-likelihood of the words for the category.
// A category without training data scores -Inf, an empty word list scores 0.
func (c *Classifier) Score(category *Category, words []string) (float64, error) {
	if category.Size() == 0 {
		return math.Inf(-1), nil
	}
	if len(words) == 0 {
		return 0, nil
	}

	var cache map[string]int64
	if c.prime != nil {
		all, err := category.All(c.prime...)
		if err != nil {
			return 0, err
		}
		cache = all
	}

	scores, err := category.Scores(words, cache)
	if err != nil {
		return 0, err
	}

	size := float64(category.Size())
	var sum float64
	for _, s := range scores {
		v := float64(s.Value)
		if !s.Found || s.Value <= 0 {
			v = c.smoothing
		}
		sum += math.Log(v / size)
	}
	return sum, nil
}

type classification struct {
	name  string
	score float64
}

// Classifications returns the score of every visible category.
// Repeated words are counted once.
func (c *Classifier) Classifications(words []string) (map[string]float64, error) {
	ordered, err := c.classifications(words)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(ordered))
	for _, cl := range ordered {
		scores[cl.name] = cl.score
	}
	return scores, nil
}

// Classify returns the best matching category, ok is false if no category is visible.
// On equal scores the category added first wins.
func (c *Classifier) Classify(words []string) (name string, ok bool, err error) {
	start := time.Now()
	defer func() {
		classifyTotal.Inc()
		classifyDuration.UpdateDuration(start)
	}()

	ordered, err := c.classifications(words)
	if err != nil {
		return "", false, err
	}
	if len(ordered) == 0 {
		return "", false, nil
	}

	best := ordered[0]
	for _, cl := range ordered[1:] {
		if c.scoring.better(cl.score, best.score) {
			best = cl
		}
	}
	return best.name, true, nil
}

// classifications scores all visible categories in iteration order of the store
func (c *Classifier) classifications(words []string) ([]classification, error) {
	words = dedupe(words)

	var ordered []classification
	err := c.categories.Each(func(category *Category) error {
		score, err := c.Score(category, words)
		if err != nil {
			return err
		}
		ordered = append(ordered, classification{name: category.Name(), score: score})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ordered, nil
}

// dedupe removes repeated words and keeps the first occurrence
func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	unique := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		unique = append(unique, w)
	}
	return unique
}
