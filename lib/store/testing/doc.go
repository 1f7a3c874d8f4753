// Package testing provides a standardised test suite for implementations of the
// store.IStore interface (local, distributed and remote stores).
//
// Example usage:
//
//	storetesting.RunStoreTests(t, "LocalStore", func(t *testing.T) store.IStore {
//		return lstore.NewLocalStore(factory)
//	})
package testing
