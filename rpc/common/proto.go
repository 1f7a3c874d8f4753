package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Batch holds the encoded commands of an Exec request (db.EncodeCommands)
	// or the encoded results of an Exec response (db.EncodeResults)
	Batch []byte `json:"batch,omitempty"`

	// Response only fields
	Ok   bool   `json:"ok,omitempty"`   // Used for: Exec responses (true if the batch was executed)
	Code uint8  `json:"code,omitempty"` // store.RetCode of a failed request, 0 otherwise
	Err  string `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: Info responses (json encoded db.DatabaseInfo)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewExecRequest creates a new Exec request for an encoded command batch
func NewExecRequest(batch []byte) *Message {
	return &Message{
		MsgType: MsgTExec,
		Batch:   batch,
	}
}

// NewExecResponse creates a new Exec response.
// results may be set together with err if single commands of the batch failed.
func NewExecResponse(results []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTExec,
		Batch:   results,
		Ok:      results != nil,
	}
	setErr(msg, err)
	return msg
}

// NewSaveRequest creates a new Save request
func NewSaveRequest() *Message {
	return &Message{
		MsgType: MsgTSave,
	}
}

// NewSaveResponse creates a new Save response
func NewSaveResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTSave,
	}
	setErr(msg, err)
	return msg
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTInfo,
	}
}

// NewInfoResponse creates a new Info response
func NewInfoResponse(info []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTInfo,
		Meta:    info,
	}
	setErr(msg, err)
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// Error converts the error fields of a response back into an error.
// Store errors keep their code. Nil is returned if the response has no error.
func (m *Message) Error() error {
	if m.Err == "" && m.MsgType != MsgTError {
		return nil
	}
	if m.Code != 0 {
		return store.NewError(store.RetCode(m.Code), m.Err)
	}
	return errors.New(m.Err)
}

// setErr stores err in the message, the code of a *store.Error is kept
func setErr(msg *Message, err error) {
	if err == nil {
		return
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		msg.Code = uint8(storeErr.Code)
		msg.Err = storeErr.Msg
		return
	}
	msg.Err = err.Error()
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTExec:
		return "exec"
	case MsgTSave:
		return "save"
	case MsgTInfo:
		return "info"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "exec":
		*t = MsgTExec
	case "save":
		*t = MsgTSave
	case "info":
		*t = MsgTInfo
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTExec // Execute a command batch
	MsgTSave // Create a persistence point
	MsgTInfo // Get information about the database
)
