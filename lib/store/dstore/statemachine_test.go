package dstore

import (
	"bytes"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/db/engines/maple"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
	"testing"
)

func newTestStateMachine() sm.IConcurrentStateMachine {
	factory := NewStateMachineFactory(func() db.KVDB { return maple.NewMapleDB(nil) })
	return factory(1, 1)
}

func TestStateMachineUpdate(t *testing.T) {
	fsm := newTestStateMachine()
	defer fsm.Close()

	batch := store.NewBatch().
		ZIncrBy("inferx:red", "apple", 2).
		HIncrBy("inferx:categories", "red", 2).
		ZIncrBy("inferx:categories", "red", 1) // wrong type

	entries, err := fsm.Update([]sm.Entry{
		{Index: 1, Cmd: db.EncodeCommands(batch.Commands())},
		{Index: 2, Cmd: nil},
		{Index: 3, Cmd: []byte{1, 2, 3}},
		{Index: 4, Cmd: db.EncodeCommands([]db.Command{{Type: db.CommandType(99)}})},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	testCases := []struct {
		name string
		code store.RetCode
	}{
		{"valid batch", store.RetCSuccess},
		{"empty command", store.RetCInvalidOperation},
		{"broken encoding", store.RetCInternalError},
		{"unknown command", store.RetCInvalidOperation},
	}
	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if entries[i].Result.Value != uint64(tc.code) {
				t.Errorf("Expected code %s, got %d (%s)", tc.code, entries[i].Result.Value, entries[i].Result.Data)
			}
		})
	}

	results, err := db.DecodeResults(entries[0].Result.Data)
	if err != nil {
		t.Fatalf("Failed to decode results: %v", err)
	}
	if len(results) != 3 || results[0].Int != 2 || results[1].Int != 2 || results[2].Err != db.ErrMsgWrongType {
		t.Errorf("Unexpected results %+v", results)
	}
}

func TestStateMachineLookup(t *testing.T) {
	fsm := newTestStateMachine()
	defer fsm.Close()

	write := store.NewBatch().ZIncrBy("inferx:red", "apple", 3)
	if _, err := fsm.Update([]sm.Entry{{Index: 1, Cmd: db.EncodeCommands(write.Commands())}}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	res, err := fsm.Lookup(internal.Query{
		Type:     internal.QueryTExec,
		Commands: store.NewBatch().ZScore("inferx:red", "apple").Commands(),
	})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	qr, ok := res.(internal.QueryResult)
	if !ok || len(qr.Results) != 1 || qr.Results[0].Int != 3 {
		t.Errorf("Unexpected lookup result %+v", res)
	}

	// write commands are rejected on the read path
	if _, err := fsm.Lookup(internal.Query{Type: internal.QueryTExec, Commands: write.Commands()}); err == nil {
		t.Errorf("Expected error for write command in query")
	}

	if _, err := fsm.Lookup("invalid"); err == nil {
		t.Errorf("Expected error for invalid query type")
	}

	info, err := fsm.Lookup(internal.Query{Type: internal.QueryTGetDBInfo})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if info.(db.DatabaseInfo).SortedCounters != 1 {
		t.Errorf("Unexpected info %+v", info)
	}
}

func TestStateMachineSnapshot(t *testing.T) {
	fsm := newTestStateMachine()
	defer fsm.Close()

	batch := store.NewBatch().
		HSetNX("inferx:categories", "red", 0).
		ZIncrBy("inferx:red", "apple", 5)
	if _, err := fsm.Update([]sm.Entry{{Index: 7, Cmd: db.EncodeCommands(batch.Commands())}}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var buf bytes.Buffer
	if err := fsm.SaveSnapshot(nil, &buf, nil, nil); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	recovered := newTestStateMachine()
	defer recovered.Close()
	if err := recovered.RecoverFromSnapshot(&buf, nil, nil); err != nil {
		t.Fatalf("RecoverFromSnapshot failed: %v", err)
	}

	res, err := recovered.Lookup(internal.Query{
		Type:     internal.QueryTExec,
		Commands: store.NewBatch().ZScore("inferx:red", "apple").HExists("inferx:categories", "red").Commands(),
	})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	qr := res.(internal.QueryResult)
	if qr.Results[0].Int != 5 || !qr.Results[1].Ok {
		t.Errorf("Unexpected recovered state %+v", qr.Results)
	}
}
