package bayes

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
)

var (
	trainWordsTotal   = metrics.NewCounter(`dinfer_train_words_total`)
	untrainWordsTotal = metrics.NewCounter(`dinfer_untrain_words_total`)
	classifyTotal     = metrics.NewCounter(`dinfer_classify_total`)
	classifyDuration  = metrics.NewHistogram(`dinfer_classify_duration_seconds`)
)

// batchCounter returns the counter for executed store batches of the given kind (read, write)
func batchCounter(kind string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dinfer_store_batches_total{kind=%q}`, kind))
}
