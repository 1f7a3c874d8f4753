package serializer

import (
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"sort"
	"testing"
)

// trainBatch is the Exec request of training a category with n distinct words
func trainBatch(n int) []byte {
	b := store.NewBatch()
	for i := 0; i < n; i++ {
		b.ZIncrBy("inferx:categories:red", fmt.Sprintf("word-%d", i), 1)
	}
	b.HIncrBy("inferx:categories", "red", int64(n))
	return db.EncodeCommands(b.Commands())
}

// scoresResponse is the Exec response of looking up n word scores
func scoresResponse(n int) []byte {
	results := make([]db.Result, n)
	for i := range results {
		results[i] = db.Result{Int: int64(i), Ok: i%3 != 0}
	}
	return db.EncodeResults(results)
}

var benchmarkMessages = map[string]common.Message{
	"Save":       *common.NewSaveRequest(),
	"Train5":     *common.NewExecRequest(trainBatch(5)),
	"Train100":   *common.NewExecRequest(trainBatch(100)),
	"Train2000":  *common.NewExecRequest(trainBatch(2000)),
	"Scores100":  *common.NewExecResponse(scoresResponse(100), nil),
	"StoreError": *common.NewExecResponse(nil, store.NewError(store.RetCWrongType, "key holds a hash")),
	"Info":       *common.NewInfoResponse([]byte(`{"keys":4,"hashes":1,"sorted_counters":3}`), nil),
}

// BenchmarkSerializer measures both directions of every serializer and reports
// the encoded size of each message
func BenchmarkSerializer(b *testing.B) {
	names := make([]string, 0, len(benchmarkMessages))
	for name := range benchmarkMessages {
		names = append(names, name)
	}
	sort.Strings(names)

	for impl, factory := range testSerializers {
		s := factory()
		for _, name := range names {
			msg := benchmarkMessages[name]
			data, err := s.Serialize(msg)
			if err != nil {
				b.Fatalf("%s: failed to serialize %s: %v", impl, name, err)
			}

			b.Run(impl+"/Serialize/"+name, func(b *testing.B) {
				b.ReportMetric(float64(len(data)), "bytes")
				for i := 0; i < b.N; i++ {
					if _, err := s.Serialize(msg); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run(impl+"/Deserialize/"+name, func(b *testing.B) {
				var out common.Message
				for i := 0; i < b.N; i++ {
					if err := s.Deserialize(data, &out); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
