package db

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeCommands(t *testing.T) {
	testCases := []struct {
		name string
		cmds []Command
	}{
		{"empty batch", []Command{}},
		{"single command", []Command{{Type: CmdZIncrBy, Key: "inferx:red", Field: "apple", Delta: 3}}},
		{"range bounds", []Command{{Type: CmdZRevRangeByScore, Key: "inferx:red", Min: MinScore, Max: MaxScore, Count: 10}}},
		{"negative ranks", []Command{{Type: CmdZRevRange, Key: "k", Start: -3, Stop: -1}}},
		{"unicode and empty strings", []Command{
			{Type: CmdHIncrBy, Key: "inferx:categories", Field: "größe", Delta: -5},
			{Type: CmdDel, Key: ""},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := EncodeCommands(tc.cmds)

			expectedSize := 4
			for i := range tc.cmds {
				expectedSize += tc.cmds[i].SizeBytes()
			}
			if len(data) != expectedSize {
				t.Errorf("Expected %d bytes, got %d", expectedSize, len(data))
			}

			decoded, err := DecodeCommands(data)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if !reflect.DeepEqual(decoded, tc.cmds) {
				t.Errorf("Expected %+v, got %+v", tc.cmds, decoded)
			}
		})
	}
}

func TestDecodeCommandsInvalid(t *testing.T) {
	valid := EncodeCommands([]Command{{Type: CmdHGet, Key: "key", Field: "field"}})

	testCases := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"short header", []byte{0, 0}},
		{"count without commands", []byte{0, 0, 0, 5}},
		{"truncated key", valid[:len(valid)-3]},
		{"trailing bytes", append(append([]byte{}, valid...), 1, 2)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeCommands(tc.data); err == nil {
				t.Errorf("Expected error for %v", tc.data)
			}
		})
	}
}

func TestEncodeDecodeResults(t *testing.T) {
	results := []Result{
		{},
		{Int: -42, Ok: true},
		{Ok: true},
		{Members: []string{"red", "green"}},
		{Members: []string{}},
		{Pairs: []Pair{{Member: "apple", Score: 3}, {Member: "pear", Score: -1}}},
		{Err: ErrMsgWrongType},
	}

	decoded, err := DecodeResults(EncodeResults(results))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, results) {
		t.Errorf("Expected %+v, got %+v", results, decoded)
	}

	if _, err := DecodeResults([]byte{0, 0, 0, 9, 1}); err == nil {
		t.Errorf("Expected error for truncated results")
	}
	if _, err := DecodeResults([]byte{0, 0, 0, 1, resHasMembers, 0, 0, 0, 2}); err == nil {
		t.Errorf("Expected error for missing members")
	}
}

func TestCommandTypeProperties(t *testing.T) {
	writes := map[CommandType]bool{
		CmdHGet: false, CmdHSetNX: true, CmdHIncrBy: true, CmdHDel: true, CmdHExists: false,
		CmdHKeys: false, CmdHGetAll: false, CmdZIncrBy: true, CmdZScore: false, CmdZRevRange: false,
		CmdZRevRangeByScore: false, CmdZRemRangeByScore: true, CmdDel: true,
	}
	for ct, isWrite := range writes {
		if ct.IsWrite() != isWrite {
			t.Errorf("%s: expected IsWrite %v", ct, isWrite)
		}
		if _, err := ct.ToDBFeature(); err != nil {
			t.Errorf("%s: unexpected error %v", ct, err)
		}
	}

	if _, err := CommandType(200).ToDBFeature(); err == nil {
		t.Errorf("Expected error for unknown command type")
	}

	if !IsReadOnly([]Command{{Type: CmdHGet}, {Type: CmdZRevRange}}) {
		t.Errorf("Expected read-only batch")
	}
	if IsReadOnly([]Command{{Type: CmdHGet}, {Type: CmdZIncrBy}}) {
		t.Errorf("Expected write batch")
	}
}
