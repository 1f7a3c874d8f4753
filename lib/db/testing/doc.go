// Package testing holds the conformance suite every db.KVDB engine runs
// (RunKVDBTests) and benchmarks with batches shaped like training and
// classification calls (RunKVDBBenchmarks).
//
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	dbtesting.RunKVDBTests(t, "maple", factory)
package testing
