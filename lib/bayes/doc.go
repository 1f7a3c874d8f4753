/*
Package bayes implements a multinomial and complementary Bayes text classifier
whose training data lives in a store.IStore.

# Data Layout

Every namespace owns one hash that maps category names to their size and one
sorted counter collection per category that maps words to their score:

	inferx:categories            red -> 2, green -> 2, blue -> 3
	inferx:categories:red        apple -> 2
	inferx:categories:green      grasses -> 2
	inferx:categories:blue       sea -> 3

The size of a category is the sum of its word scores. Scores are never stored
with a value of zero or below.

# Views

Categories is an immutable view. Filter and Except return new views, which is
used to scope training and classification:

	cats := bayes.NewCategories(s, bayes.Config{})
	cats.Filter("red", "green").Except("green").All() // [red]

# Training

Category.Train increases the counters of a category in one atomic batch.
Category.Untrain decreases them and removes words that reach zero. The size
is only reduced by the amount that was really removed.

In complementary mode Train and Untrain act on every other visible category,
and the classifier picks the category with the lowest score.

# Classification

	c := bayes.NewClassifier(cats)
	name, ok, err := c.Classify([]string{"apple"})

The score of a category is the sum of ln(score/size) over the distinct words,
words without a positive score use the smoothing value (0.1 by default).
*/
package bayes
