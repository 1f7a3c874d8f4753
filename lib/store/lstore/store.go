package lstore

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

var log = logger.GetLogger("store")

type storeImpl struct {
	db       db.KVDB
	index    atomic.Uint64
	snapshot string     // path of the snapshot file ("" = no persistence)
	saveMu   sync.Mutex // serializes Save calls
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// This works by using the maple engine from the db package directly.
// Save is a no-op for this store.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db: factory(),
	}
}

// NewPersistentLocalStore creates a local store that writes a snapshot of the database
// to the given file on every Save. If the file exists, the database is restored from it.
func NewPersistentLocalStore(factory store.DBFactory, snapshot string) (store.IStore, error) {
	s := &storeImpl{
		db:       factory(),
		snapshot: snapshot,
	}

	f, err := os.Open(snapshot)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if !s.db.SupportsFeature(db.FeatureLoad) {
		return nil, store.NewError(store.RetCUnsupportedOperation, "Load operation is not supported")
	}
	if err := s.db.Load(f); err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", snapshot, err)
	}
	s.index.Store(s.db.WriteIdx())

	log.Infof("restored local store from %s (write index %d)", snapshot, s.db.WriteIdx())
	return s, nil
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Exec(batch *store.Batch) ([]db.Result, error) {
	cmds := batch.Commands()
	for _, cmd := range cmds {
		feature, err := cmd.Type.ToDBFeature()
		if err != nil {
			return nil, store.NewError(store.RetCInvalidOperation, err.Error())
		}
		if !s.db.SupportsFeature(feature) {
			return nil, store.NewError(store.RetCUnsupportedOperation, fmt.Sprintf("%s operation is not supported", cmd.Type))
		}
	}

	idx := s.index.Load()
	if !batch.ReadOnly() {
		idx = s.incAndGetIndex()
	}

	results := s.db.Apply(cmds, idx)
	return results, store.CheckResults(cmds, results)
}

func (s *storeImpl) Save() error {
	if s.snapshot == "" {
		return nil
	}
	if !s.db.SupportsFeature(db.FeatureSave) {
		return store.NewError(store.RetCUnsupportedOperation, "Save operation is not supported")
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	// write to a temporary file first, the old snapshot stays valid until the rename
	tmp, err := os.CreateTemp(filepath.Dir(s.snapshot), filepath.Base(s.snapshot)+".tmp-*")
	if err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	defer os.Remove(tmp.Name())

	if err := s.db.Save(tmp); err != nil {
		tmp.Close()
		return store.NewError(store.RetCInternalError, err.Error())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return store.NewError(store.RetCInternalError, err.Error())
	}
	if err := tmp.Close(); err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	if err := os.Rename(tmp.Name(), s.snapshot); err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}

	log.Debugf("saved local store to %s", s.snapshot)
	return nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}
