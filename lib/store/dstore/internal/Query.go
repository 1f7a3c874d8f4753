package internal

import "github.com/ValentinKolb/dInfer/lib/db"

// QueryType selects what a Query reads from the state machine
type QueryType uint8

const (
	QueryTExec      QueryType = iota // read-only batch
	QueryTGetDBInfo                  // db.DatabaseInfo of the replica
)

func (q QueryType) String() string {
	if q > QueryTGetDBInfo {
		return "Unknown"
	}
	return [...]string{"Exec", "GetDBInfo"}[q]
}

// Query is passed to SyncRead and StaleRead as is, it never leaves the process
type Query struct {
	Type     QueryType
	Commands []db.Command // QueryTExec only
}

// QueryResult answers a QueryTExec, QueryTGetDBInfo is answered with a db.DatabaseInfo
type QueryResult struct {
	Results []db.Result
}
