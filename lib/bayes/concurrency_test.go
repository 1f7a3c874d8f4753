package bayes

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
)

func TestConcurrentTraining(t *testing.T) {
	const (
		workers    = 16
		iterations = 200
	)
	names := []string{"a", "b"}
	vocabulary := []string{"w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7"}

	for _, mode := range []TrainingMode{Standard, Complementary} {
		t.Run(mode.String(), func(t *testing.T) {
			cats, _ := newTestCategories(t, Config{ManualSave: true, Mode: mode}, names...)
			classifier := NewClassifier(cats)

			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(seed int64) {
					defer wg.Done()
					rnd := rand.New(rand.NewSource(seed))
					for i := 0; i < iterations; i++ {
						doc := make([]string, 1+rnd.Intn(4))
						for j := range doc {
							doc[j] = vocabulary[rnd.Intn(len(vocabulary))]
						}

						c, err := cats.Get(names[rnd.Intn(len(names))])
						if err != nil {
							errs <- err
							return
						}
						switch rnd.Intn(3) {
						case 0:
							err = c.Train(doc)
						case 1:
							err = c.Untrain(doc)
						default:
							_, _, err = classifier.Classify(doc)
						}
						if err != nil {
							errs <- fmt.Errorf("worker %d: %w", seed, err)
							return
						}
					}
				}(int64(w))
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatal(err)
			}

			for _, name := range names {
				c := mustGet(t, cats, name)
				var sum int64
				for word, score := range mustAll(t, c) {
					if score <= 0 {
						t.Errorf("%s: stored score of %q is %d", name, word, score)
					}
					sum += score
				}
				if c.Size() != sum {
					t.Errorf("%s: size = %d, sum of scores = %d", name, c.Size(), sum)
				}
			}
		})
	}
}
