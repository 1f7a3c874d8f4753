package serializer

import (
	"bytes"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"reflect"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	batch := db.EncodeCommands(store.NewBatch().
		ZIncrBy("inferx:categories:red", "apple", 2).
		HIncrBy("inferx:categories", "red", 2).
		Commands())

	results := db.EncodeResults([]db.Result{
		{Int: 2},
		{Int: 2},
		{Pairs: []db.Pair{{Member: "apple", Score: 2}}},
	})

	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Exec request
		{
			MsgType: common.MsgTExec,
			Batch:   batch,
		},

		// Exec response
		{
			MsgType: common.MsgTExec,
			Batch:   results,
			Ok:      true,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Store error response
		{
			MsgType: common.MsgTExec,
			Code:    uint8(store.RetCWrongType),
			Err:     "WRONGTYPE Operation against a key holding the wrong kind of value",
		},

		// Message with all fields filled
		{
			MsgType: common.MsgTInfo,
			Batch:   results,
			Ok:      true,
			Code:    uint8(store.RetCInternalError),
			Err:     "partial",
			Meta:    []byte(`{"keys":3}`),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// MsgTUnknown is skipped since json rejects it
			for msgType := common.MsgTSuccess; msgType <= common.MsgTInfo; msgType++ {
				msg := common.Message{MsgType: msgType}

				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBatchPayload checks that the command batch survives the message framing of every serializer
func TestBatchPayload(t *testing.T) {
	cmds := store.NewBatch().
		HSetNX("inferx:categories", "red", 0).
		ZRevRangeByScore("inferx:categories:red", db.MaxScore, 2, 10).
		ZRemRangeByScore("inferx:categories:red", db.MinScore, 0).
		Commands()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(*common.NewExecRequest(db.EncodeCommands(cmds)))
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			var msg common.Message
			if err := serializer.Deserialize(data, &msg); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			decoded, err := db.DecodeCommands(msg.Batch)
			if err != nil {
				t.Fatalf("Failed to decode batch: %v", err)
			}
			if !reflect.DeepEqual(decoded, cmds) {
				t.Errorf("Batch mismatch:\nOriginal: %v\nResult: %v", cmds, decoded)
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty slices but not nil",
			msg: common.Message{
				MsgType: common.MsgTExec,
				Batch:   []byte{},
				Meta:    []byte{},
			},
		},
		{
			name: "Message with Ok only",
			msg: common.Message{
				MsgType: common.MsgTExec,
				Ok:      true,
			},
		},
		{
			name: "Message with code only",
			msg: common.Message{
				MsgType: common.MsgTSave,
				Code:    uint8(store.RetCUnsupportedOperation),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// binary keeps the difference between nil and empty slices
			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("Message doesn't match after round trip:\nOriginal: %+v\nResult: %+v", tc.msg, result)
			}
		})
	}

	t.Run("Reuse", func(t *testing.T) {
		full, _ := serializer.Serialize(common.Message{MsgType: common.MsgTExec, Batch: []byte("abc"), Ok: true, Err: "x"})
		empty, _ := serializer.Serialize(common.Message{MsgType: common.MsgTSave})

		var msg common.Message
		if err := serializer.Deserialize(full, &msg); err != nil {
			t.Fatalf("Failed to deserialize: %v", err)
		}
		if err := serializer.Deserialize(empty, &msg); err != nil {
			t.Fatalf("Failed to deserialize: %v", err)
		}
		if !reflect.DeepEqual(msg, common.Message{MsgType: common.MsgTSave}) {
			t.Errorf("Fields of the previous message survived: %+v", msg)
		}
	})

	t.Run("NoAliasing", func(t *testing.T) {
		data, _ := serializer.Serialize(common.Message{MsgType: common.MsgTExec, Batch: []byte("abc")})
		var msg common.Message
		if err := serializer.Deserialize(data, &msg); err != nil {
			t.Fatalf("Failed to deserialize: %v", err)
		}
		for i := range data {
			data[i] = 0
		}
		if !bytes.Equal(msg.Batch, []byte("abc")) {
			t.Errorf("Batch aliases the input buffer: %q", msg.Batch)
		}
	})
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only message type, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for batch",
			data:        []byte{3, hasBatch, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims batch length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Missing ok byte",
			data:        []byte{3, hasOk},
			expectError: true,
		},
		{
			name:        "Missing code byte",
			data:        []byte{3, hasCode},
			expectError: true,
		},
		{
			name:        "Invalid length for error",
			data:        []byte{2, hasErr, 0, 0, 0, 10}, // Claims error length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Truncated meta length",
			data:        []byte{5, hasMeta, 0, 0},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestDeserializeReusesMessage checks that no field of a previous message survives a Deserialize call
func TestDeserializeReusesMessage(t *testing.T) {
	full := common.Message{
		MsgType: common.MsgTInfo,
		Batch:   []byte{1, 2, 3},
		Ok:      true,
		Code:    uint8(store.RetCWrongType),
		Err:     "old",
		Meta:    []byte(`{}`),
	}
	small := common.Message{MsgType: common.MsgTSave, Ok: true}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(small)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			msg := full
			if err := serializer.Deserialize(data, &msg); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if !reflect.DeepEqual(msg, small) {
				t.Errorf("Reused message = %+v, want %+v", msg, small)
			}
		})
	}
}
