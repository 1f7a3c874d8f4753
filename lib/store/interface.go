package store

import (
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// IStore is the generic interface for interacting with a counter store.
// All operations return a *Error (nil on success) next to their data.
type IStore interface {
	// Exec executes all commands of the batch atomically (no other batch interleaves)
	// and returns one result per command in submission order.
	// If a command failed, the results are returned together with an error for the first failed command.
	Exec(batch *Batch) (results []db.Result, err error)
	// Save creates a persistence point of the store (e.g. a snapshot).
	// Stores without persistence return nil.
	Save() (err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new StoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// CheckResults returns an error for the first failed result (nil if all succeeded)
func CheckResults(cmds []db.Command, results []db.Result) error {
	if len(cmds) != len(results) {
		return NewError(RetCInternalError, fmt.Sprintf("expected %d results, got %d", len(cmds), len(results)))
	}
	for i, res := range results {
		if res.Err == "" {
			continue
		}
		code := RetCInvalidOperation
		if res.Err == db.ErrMsgWrongType {
			code = RetCWrongType
		}
		return NewError(code, fmt.Sprintf("%s: %s", cmds[i], res.Err))
	}
	return nil
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCWrongType                           // 4: Command against a key holding the wrong kind of value.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCWrongType:
		return "WrongType"
	default:
		return "Unknown"
	}
}
