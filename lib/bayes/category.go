package bayes

import (
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
)

// Category gives access to the word counters of a single category.
// The size is read once when the category is loaded and only updated by
// the training methods of this value.
type Category struct {
	categories *Categories
	name       string
	key        string
	size       int64
}

// Name returns the category name
func (c *Category) Name() string {
	return c.name
}

// Key returns the store key of the word counters
func (c *Category) Key() string {
	return c.key
}

// Size returns the sum of all word scores
func (c *Category) Size() int64 {
	return c.size
}

// Get returns the score of a word, ok is false if the word is not a member
func (c *Category) Get(word string) (score int64, ok bool, err error) {
	results, err := c.categories.exec(store.NewBatch().ZScore(c.key, word))
	if err != nil {
		return 0, false, err
	}
	return results[0].Int, results[0].Ok, nil
}

// --------------------------------------------------------------------------
// Snapshots
// --------------------------------------------------------------------------

type allOptions struct {
	rank  int64
	score int64
	floor bool
}

// AllOption bounds the snapshot returned by Category.All
type AllOption func(*allOptions)

// WithRank limits the snapshot to the n words with the highest scores
func WithRank(n int64) AllOption {
	return func(o *allOptions) {
		o.rank = n
	}
}

// WithScore limits the snapshot to words with a score of at least min
func WithScore(min int64) AllOption {
	return func(o *allOptions) {
		o.score = min
		o.floor = true
	}
}

// All returns the words of the category with their scores.
// Without options all words are returned.
func (c *Category) All(opts ...AllOption) (map[string]int64, error) {
	pairs, err := c.Top(opts...)
	if err != nil {
		return nil, err
	}

	words := make(map[string]int64, len(pairs))
	for _, p := range pairs {
		words[p.Member] = p.Score
	}
	return words, nil
}

// Top works like All but keeps the order of the store (highest score first)
func (c *Category) Top(opts ...AllOption) ([]db.Pair, error) {
	o := allOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	batch := store.NewBatch()
	switch {
	case o.floor:
		batch.ZRevRangeByScore(c.key, db.MaxScore, o.score, max(o.rank, 0))
	case o.rank > 0:
		batch.ZRevRange(c.key, 0, o.rank-1)
	default:
		batch.ZRevRange(c.key, 0, -1)
	}

	results, err := c.categories.exec(batch)
	if err != nil {
		return nil, err
	}
	return results[0].Pairs, nil
}

// WordScore is the score of a single word, Found is false if the word is not a member
type WordScore struct {
	Value int64
	Found bool
}

// Scores returns the scores of the words in the same order.
// Words present in cache are taken from it, all others are fetched with one batch.
// cache may be nil.
func (c *Category) Scores(words []string, cache map[string]int64) ([]WordScore, error) {
	scores := make([]WordScore, len(words))

	batch := store.NewBatch()
	var missing []int
	for i, w := range words {
		if v, ok := cache[w]; ok {
			scores[i] = WordScore{Value: v, Found: true}
			continue
		}
		batch.ZScore(c.key, w)
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return scores, nil
	}

	results, err := c.categories.exec(batch)
	if err != nil {
		return nil, err
	}
	for j, i := range missing {
		scores[i] = WordScore{Value: results[j].Int, Found: results[j].Ok}
	}
	return scores, nil
}

// --------------------------------------------------------------------------
// Training
// --------------------------------------------------------------------------

// Train adds the words to the training data.
// In complementary mode the words are added to every other visible category instead.
// The category is not looked up again: training a category removed after Get
// adds its name back to the index.
func (c *Category) Train(words []string) error {
	if c.categories.mode == Complementary {
		_, err := c.categories.Except(c.name).Inject(words)
		return err
	}
	_, err := c.Inject(words)
	return err
}

// Untrain removes the words from the training data.
// In complementary mode the words are removed from every other visible category instead.
func (c *Category) Untrain(words []string) error {
	if c.categories.mode == Complementary {
		_, err := c.categories.Except(c.name).Eject(words)
		return err
	}
	_, err := c.Eject(words)
	return err
}

// Inject adds the words to the counters of this category regardless of the training mode
// and returns the increase of the size.
func (c *Category) Inject(words []string) (int64, error) {
	increases, err := c.categories.inject([]string{c.name}, words)
	if err != nil {
		return 0, err
	}
	c.size += increases[c.name]
	return increases[c.name], nil
}

// Eject removes the words from the counters of this category regardless of the training mode
// and returns the actual decrease of the size.
func (c *Category) Eject(words []string) (int64, error) {
	decreases, err := c.categories.eject([]string{c.name}, words)
	if err != nil {
		return 0, err
	}
	c.size -= decreases[c.name]
	return decreases[c.name], nil
}

// ReadyToTrain collects the words of every add call inside fn and trains them at once
//
//	err := category.ReadyToTrain(func(add func(words ...string)) {
//		for _, doc := range docs {
//			add(doc...)
//		}
//	})
func (c *Category) ReadyToTrain(fn func(add func(words ...string))) error {
	return c.Train(accumulate(fn))
}

// ReadyToUntrain is the Untrain counterpart of ReadyToTrain
func (c *Category) ReadyToUntrain(fn func(add func(words ...string))) error {
	return c.Untrain(accumulate(fn))
}

// ReadyToInject is the Inject counterpart of ReadyToTrain
func (c *Category) ReadyToInject(fn func(add func(words ...string))) error {
	_, err := c.Inject(accumulate(fn))
	return err
}

// ReadyToEject is the Eject counterpart of ReadyToTrain
func (c *Category) ReadyToEject(fn func(add func(words ...string))) error {
	_, err := c.Eject(accumulate(fn))
	return err
}

func accumulate(fn func(add func(words ...string))) []string {
	var all []string
	fn(func(words ...string) {
		all = append(all, words...)
	})
	return all
}
