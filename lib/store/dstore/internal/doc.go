// Package internal provides the query structures used between the dstore client
// and the distributed state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
// Write batches do not need a type of their own: they are encoded with db.EncodeCommands,
// proposed to the RAFT cluster and stored in the RAFT log in that format. The state machine
// answers with db.EncodeResults in the Data field of the raft result.
//
// Read-only batches are sent as a Query. Queries are executed locally on the
// state machine and therefore do not require serialization:
//
//   - QueryTExec: executes the read-only commands of a batch and returns a QueryResult
//   - QueryTGetDBInfo: returns the db.DatabaseInfo of the database
package internal
