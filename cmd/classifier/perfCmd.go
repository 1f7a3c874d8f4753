package classifier

import (
	"context"
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dInfer/cmd/util"
	"github.com/ValentinKolb/dInfer/lib/bayes"
	"github.com/ValentinKolb/dInfer/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dInfer servers",
		Long:    "Trains and queries a classifier in a separate namespace and reports the latency of every operation. The namespace is removed afterwards.",
		Args:    cobra.NoArgs,
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNamespace      = "__perf"
	perfNumThreads     = 10
	perfIterations     = 1000
	perfCategoryCount  = 4
	perfVocabularySize = 1000
	perfWordsPerDoc    = 20
	perfRate           = 0.0
	perfSkip           = make([]string, 0)

	// perfTests in execution order
	perfTests = []string{"train", "classify", "scores", "untrain", "mixed"}
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. train,scores)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "iterations"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of operations per benchmark"))
	key = "categories"
	perfTestCmd.Flags().Int(key, 4, util.WrapString("Number of categories to train"))
	key = "vocabulary"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("How many different words to use for the tests"))
	key = "doc-size"
	perfTestCmd.Flags().Int(key, 20, util.WrapString("Number of words per trained or classified document"))
	key = "rate"
	perfTestCmd.Flags().Float64(key, 0, util.WrapString("Maximum operations per second over all threads (0 = unlimited)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfIterations = max(viper.GetInt("iterations"), 1)
	perfCategoryCount = max(viper.GetInt("categories"), 1)
	perfVocabularySize = max(viper.GetInt("vocabulary"), 1)
	perfWordsPerDoc = max(viper.GetInt("doc-size"), 1)
	perfRate = max(viper.GetFloat64("rate"), 0)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for dInfer servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Iterations: %d, Categories: %d, Vocabulary: %d, Document size: %d, Rate: %v\n",
		perfNumThreads, perfIterations, perfCategoryCount, perfVocabularySize, perfWordsPerDoc, perfRate)
	fmt.Println()

	// the perf namespace shares the store of the configured classifier
	s, err := util.NewStore()
	if err != nil {
		return err
	}
	cats := bayes.NewCategories(s, bayes.Config{
		Namespace:  perfNamespace,
		ManualSave: true,
		Mode:       categories.Mode(),
	})

	names := make([]string, perfCategoryCount)
	for i := range names {
		names[i] = fmt.Sprintf("category-%d", i)
	}
	if err := cats.Add(names...); err != nil {
		return fmt.Errorf("failed to create categories: %w", err)
	}
	defer func() {
		if err := cats.Remove(names...); err != nil {
			log.Printf("error removing perf categories: %v\n", err)
		}
	}()

	perfClassifier := bayes.NewClassifier(cats, bayes.WithSmoothing(viper.GetFloat64("smoothing")))

	ops := map[string]func(rnd *rand.Rand) error{
		"train": func(rnd *rand.Rand) error {
			c, err := cats.Get(names[rnd.Intn(len(names))])
			if err != nil {
				return err
			}
			return c.Train(randomDoc(rnd))
		},
		"classify": func(rnd *rand.Rand) error {
			_, _, err := perfClassifier.Classify(randomDoc(rnd))
			return err
		},
		"scores": func(rnd *rand.Rand) error {
			_, err := perfClassifier.Classifications(randomDoc(rnd))
			return err
		},
		"untrain": func(rnd *rand.Rand) error {
			c, err := cats.Get(names[rnd.Intn(len(names))])
			if err != nil {
				return err
			}
			return c.Untrain(randomDoc(rnd))
		},
	}
	ops["mixed"] = func(rnd *rand.Rand) error {
		switch rnd.Intn(4) {
		case 0:
			return ops["train"](rnd)
		case 1:
			return ops["untrain"](rnd)
		default:
			return ops["classify"](rnd)
		}
	}

	fmt.Println("starting tests...")

	registry := gometrics.NewRegistry()
	for _, test := range perfTests {
		if shouldSkip(test) {
			printSkipped(test)
			continue
		}
		timer := gometrics.NewTimer()
		if err := registry.Register(test, timer); err != nil {
			return err
		}
		errCount, err := runBenchmark(cmd.Context(), test, timer, ops[test])
		if err != nil {
			return fmt.Errorf("benchmark %s aborted: %w", test, err)
		}
		printResult(test, timer.Snapshot(), errCount)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, registry, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runBenchmark runs perfIterations operations spread over perfNumThreads goroutines
// and returns the number of failed operations. Only a canceled context aborts it.
func runBenchmark(ctx context.Context, test string, timer gometrics.Timer, op func(rnd *rand.Rand) error) (int64, error) {
	limit := rate.Inf
	if perfRate > 0 {
		limit = rate.Limit(perfRate)
	}
	limiter := rate.NewLimiter(limit, perfNumThreads)

	work := make(chan struct{}, perfIterations)
	for i := 0; i < perfIterations; i++ {
		work <- struct{}{}
	}
	close(work)

	errCount := gometrics.NewCounter()
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < perfNumThreads; i++ {
		seed := time.Now().UnixNano() + int64(i)
		g.Go(func() error {
			rnd := rand.New(rand.NewSource(seed))
			for range work {
				if err := limiter.Wait(gCtx); err != nil {
					return err
				}
				start := time.Now()
				err := op(rnd)
				timer.UpdateSince(start)
				if err != nil {
					errCount.Inc(1)
					log.Printf("(%s) - error: %v\n", test, err)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	return errCount.Count(), err
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// randomDoc creates a document of perfWordsPerDoc words from the vocabulary
func randomDoc(rnd *rand.Rand) []string {
	doc := make([]string, perfWordsPerDoc)
	for i := range doc {
		doc[i] = "w" + strconv.Itoa(rnd.Intn(perfVocabularySize))
	}
	return doc
}

func printSkipped(test string) {
	fmt.Printf("%-20sskipped\n", test)
}

// printResult prints the latency distribution of a benchmark in a formatted way
func printResult(test string, t gometrics.Timer, errCount int64) {
	ps := t.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-20smean %s\tp50 %s\tp95 %s\tp99 %s\tmax %s\t%.0f ops/sec\terrors %d\n",
		test,
		time.Duration(t.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(ps[2]),
		time.Duration(t.Max()),
		t.RateMean(),
		errCount,
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, registry gometrics.Registry, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs", "OpsPerSec",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "Categories", "Vocabulary", "DocSize",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results in execution order
	for _, test := range perfTests {
		timer, ok := registry.Get(test).(gometrics.Timer)
		if !ok {
			continue
		}
		t := timer.Snapshot()
		ps := t.Percentiles([]float64{0.5, 0.95, 0.99})

		row := []string{
			test,
			strconv.FormatInt(t.Count(), 10),
			fmt.Sprintf("%.0f", t.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(t.Max(), 10),
			fmt.Sprintf("%.0f", t.RateMean()),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfCategoryCount),
			strconv.Itoa(perfVocabularySize),
			strconv.Itoa(perfWordsPerDoc),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
