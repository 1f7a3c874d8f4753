package bayes

import (
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("bayes")

// Categories is an immutable view on the categories of a namespace.
// Filter and Except return new views, the receiver is never changed.
type Categories struct {
	store   store.IStore
	keys    Keys
	manual  bool
	mode    TrainingMode
	include map[string]struct{} // nil = all categories
	exclude map[string]struct{}
}

// NewCategories creates a view on all categories of the namespace configured in cfg
func NewCategories(s store.IStore, cfg Config) *Categories {
	return &Categories{
		store:   s,
		keys:    NewKeys(cfg.Namespace),
		manual:  cfg.ManualSave,
		mode:    cfg.Mode,
		exclude: map[string]struct{}{},
	}
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Key returns the store key of the size index
func (c *Categories) Key() string {
	return c.keys.Categories()
}

// Manual reports whether automatic saving is disabled
func (c *Categories) Manual() bool {
	return c.manual
}

// Mode returns the training mode of the categories
func (c *Categories) Mode() TrainingMode {
	return c.mode
}

// --------------------------------------------------------------------------
// Views
// --------------------------------------------------------------------------

// Filter returns a view that only contains the given categories.
// Filtering a filtered view intersects both sets.
func (c *Categories) Filter(names ...string) *Categories {
	include := make(map[string]struct{}, len(names))
	for _, name := range names {
		if c.include != nil {
			if _, ok := c.include[name]; !ok {
				continue
			}
		}
		include[name] = struct{}{}
	}

	view := c.clone()
	view.include = include
	return view
}

// Except returns a view without the given categories
func (c *Categories) Except(names ...string) *Categories {
	view := c.clone()
	view.exclude = make(map[string]struct{}, len(c.exclude)+len(names))
	for name := range c.exclude {
		view.exclude[name] = struct{}{}
	}
	for _, name := range names {
		view.exclude[name] = struct{}{}
	}
	return view
}

// clone copies the view, the include and exclude sets are shared (they are never modified)
func (c *Categories) clone() *Categories {
	view := *c
	return &view
}

// visible reports whether the view contains the name
func (c *Categories) visible(name string) bool {
	if _, ok := c.exclude[name]; ok {
		return false
	}
	if c.include == nil {
		return true
	}
	_, ok := c.include[name]
	return ok
}

// --------------------------------------------------------------------------
// Category management
// --------------------------------------------------------------------------

// All returns the names of all visible categories in the order they were added
func (c *Categories) All() ([]string, error) {
	results, err := c.exec(store.NewBatch().HKeys(c.Key()))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(results[0].Members))
	for _, name := range results[0].Members {
		if c.visible(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Exists reports whether the category is present in the store and visible in the view
func (c *Categories) Exists(name string) (bool, error) {
	if !c.visible(name) {
		return false, nil
	}
	results, err := c.exec(store.NewBatch().HExists(c.Key(), name))
	if err != nil {
		return false, err
	}
	return results[0].Ok, nil
}

// Get returns the category with its current size.
// The error is a *CategoryError if the category is missing or not visible.
func (c *Categories) Get(name string) (*Category, error) {
	results, err := c.exec(store.NewBatch().HGet(c.Key(), name))
	if err != nil {
		return nil, err
	}
	if !results[0].Ok {
		return nil, &CategoryError{Name: name, Err: ErrMissingCategory}
	}
	if !c.visible(name) {
		return nil, &CategoryError{Name: name, Err: ErrNotVisible}
	}
	return c.newCategory(name, results[0].Int), nil
}

// Add creates the categories with size 0. Existing categories are not changed.
func (c *Categories) Add(names ...string) error {
	if len(names) == 0 {
		return nil
	}

	batch := store.NewBatch()
	for _, name := range names {
		batch.HSetNX(c.Key(), name, 0)
	}
	results, err := c.exec(batch)
	if err != nil {
		return err
	}

	for i, res := range results {
		if res.Ok {
			log.Debugf("added category %q to %s", names[i], c.Key())
		}
	}
	if anyOk(results) {
		return c.autoSave()
	}
	return nil
}

// Remove deletes the categories together with their word counters
func (c *Categories) Remove(names ...string) error {
	if len(names) == 0 {
		return nil
	}

	batch := store.NewBatch()
	for _, name := range names {
		batch.HDel(c.Key(), name)
	}
	for _, name := range names {
		batch.Del(c.keys.Category(name))
	}
	results, err := c.exec(batch)
	if err != nil {
		return err
	}

	if anyOk(results) {
		log.Debugf("removed categories %v from %s", names, c.Key())
		return c.autoSave()
	}
	return nil
}

// Each calls fn for every visible category in the order they were added.
// All sizes are read at once before the first call. Iteration stops at the first error.
func (c *Categories) Each(fn func(category *Category) error) error {
	results, err := c.exec(store.NewBatch().HGetAll(c.Key()))
	if err != nil {
		return err
	}

	for _, pair := range results[0].Pairs {
		if !c.visible(pair.Member) {
			continue
		}
		if err := fn(c.newCategory(pair.Member, pair.Score)); err != nil {
			return err
		}
	}
	return nil
}

// Save creates a persistence point of the store.
// Use this if ManualSave is set.
func (c *Categories) Save() error {
	return c.store.Save()
}

// Info returns metadata about the database behind the store
func (c *Categories) Info() (db.DatabaseInfo, error) {
	return c.store.GetDBInfo()
}

// --------------------------------------------------------------------------
// Bulk training
// --------------------------------------------------------------------------

// Inject adds the words to every visible category in a single batch.
// It returns the increase of the size per category.
func (c *Categories) Inject(words []string) (map[string]int64, error) {
	names, err := c.All()
	if err != nil {
		return nil, err
	}
	return c.inject(names, words)
}

// Eject removes the words from every visible category.
// Scores never drop below zero, the returned map contains the actual decrease of the size per category.
// The sizes are updated in a second batch after the counters, so a concurrent reader
// can briefly see decremented counters with the old size.
func (c *Categories) Eject(words []string) (map[string]int64, error) {
	names, err := c.All()
	if err != nil {
		return nil, err
	}
	return c.eject(names, words)
}

func (c *Categories) inject(names []string, words []string) (map[string]int64, error) {
	increases := make(map[string]int64, len(names))
	for _, name := range names {
		increases[name] = 0
	}
	if len(names) == 0 || len(words) == 0 {
		return increases, nil
	}

	counts := collect(words)
	increase := int64(len(words))

	batch := store.NewBatch()
	for _, name := range names {
		key := c.keys.Category(name)
		for _, wc := range counts {
			batch.ZIncrBy(key, wc.word, wc.count)
		}
		batch.HIncrBy(c.Key(), name, increase)
	}
	if _, err := c.exec(batch); err != nil {
		return nil, err
	}

	for _, name := range names {
		increases[name] = increase
	}
	trainWordsTotal.Add(len(words) * len(names))
	log.Debugf("injected %d words into %v", len(words), names)

	return increases, c.autoSave()
}

func (c *Categories) eject(names []string, words []string) (map[string]int64, error) {
	decreases := make(map[string]int64, len(names))
	for _, name := range names {
		decreases[name] = 0
	}
	if len(names) == 0 || len(words) == 0 {
		return decreases, nil
	}

	counts := collect(words)
	requested := int64(len(words))

	// decrement and drop everything that fell to zero or below
	batch := store.NewBatch()
	for _, name := range names {
		key := c.keys.Category(name)
		for _, wc := range counts {
			batch.ZIncrBy(key, wc.word, -wc.count)
		}
		batch.ZRemRangeByScore(key, db.MinScore, 0)
	}
	results, err := c.exec(batch)
	if err != nil {
		return nil, err
	}

	// the post-decrement scores show how far a word was pushed below zero,
	// only the mass that really existed is removed from the size
	stride := len(counts) + 1
	sizes := store.NewBatch()
	for i, name := range names {
		decrease := requested
		for _, res := range results[i*stride : i*stride+len(counts)] {
			if res.Int < 0 {
				decrease += res.Int
			}
		}
		if decrease > 0 {
			decreases[name] = decrease
			sizes.HIncrBy(c.Key(), name, -decrease)
		}
	}

	if sizes.Len() == 0 {
		return decreases, nil
	}
	if _, err := c.exec(sizes); err != nil {
		return nil, err
	}

	untrainWordsTotal.Add(len(words) * len(names))
	log.Debugf("ejected %d words from %v", len(words), names)

	return decreases, c.autoSave()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// exec executes a batch and counts it
func (c *Categories) exec(batch *store.Batch) ([]db.Result, error) {
	kind := "write"
	if batch.ReadOnly() {
		kind = "read"
	}
	batchCounter(kind).Inc()
	return c.store.Exec(batch)
}

// autoSave saves the store unless saving is manual
func (c *Categories) autoSave() error {
	if c.manual {
		return nil
	}
	return c.store.Save()
}

func (c *Categories) newCategory(name string, size int64) *Category {
	return &Category{
		categories: c,
		name:       name,
		key:        c.keys.Category(name),
		size:       size,
	}
}

type wordCount struct {
	word  string
	count int64
}

// collect counts the words, the result is ordered by the first occurrence of a word
func collect(words []string) []wordCount {
	index := make(map[string]int, len(words))
	counts := make([]wordCount, 0, len(words))
	for _, w := range words {
		if i, ok := index[w]; ok {
			counts[i].count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, wordCount{word: w, count: 1})
	}
	return counts
}

func anyOk(results []db.Result) bool {
	for _, res := range results {
		if res.Ok {
			return true
		}
	}
	return false
}
