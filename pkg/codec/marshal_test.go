package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstore/client-go/pkg/clienterr"
)

func TestMarshalList_Heterogeneous(t *testing.T) {
	list, err := MarshalList([]any{1, "a", 3.5})
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, KindInteger, list[0].Kind())
	assert.Equal(t, int64(1), list[0].Native())
	assert.Equal(t, KindString, list[1].Kind())
	assert.Equal(t, "a", list[1].Native())
	assert.Equal(t, KindDouble, list[2].Kind())
	assert.Equal(t, 3.5, list[2].Native())
}

func TestMarshalList_Nested(t *testing.T) {
	list, err := MarshalList([]any{
		[]any{1, 2},
		map[string]any{"key": "value"},
		nil,
		true,
		[]byte{0x01, 0x02},
	})
	require.NoError(t, err)
	require.Len(t, list, 5)

	assert.Equal(t, KindList, list[0].Kind())
	assert.Equal(t, []any{int64(1), int64(2)}, list[0].Native())
	assert.Equal(t, KindMap, list[1].Kind())
	assert.Equal(t, map[string]any{"key": "value"}, list[1].Native())
	assert.Equal(t, KindNil, list[2].Kind())
	assert.Equal(t, KindBoolean, list[3].Kind())
	assert.Equal(t, KindBytes, list[4].Kind())
}

func TestMarshalList_TypedSlices(t *testing.T) {
	list, err := MarshalList([]string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "x", list[0].Native())

	list, err = MarshalList([3]int{7, 8, 9})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(9), list[2].Native())
}

func TestMarshalList_RejectsNonSequence(t *testing.T) {
	tests := []struct {
		name string
		args any
	}{
		{name: "nil", args: nil},
		{name: "scalar int", args: 42},
		{name: "scalar float", args: 3.5},
		{name: "bare string", args: "not a list"},
		{name: "byte blob", args: []byte("blob")},
		{name: "map", args: map[string]any{"a": 1}},
		{name: "struct", args: struct{ A int }{A: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := MarshalList(tt.args)
			assert.Nil(t, list)
			assert.True(t, clienterr.IsKind(err, clienterr.KindParameter), "got %v", err)
		})
	}
}

func TestMarshalList_ConversionFailure(t *testing.T) {
	list, err := MarshalList([]any{1, make(chan int), 3})
	assert.Nil(t, list, "no partial list on failure")
	require.True(t, clienterr.IsKind(err, clienterr.KindConversion), "got %v", err)

	var cerr *clienterr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, map[string]any{"index": 1}, cerr.Details)
}

func TestNewValue_Uint64Overflow(t *testing.T) {
	_, err := NewValue(uint64(1) << 63)
	assert.True(t, clienterr.IsKind(err, clienterr.KindConversion), "got %v", err)
}

func TestNewValue_NonStringMapKey(t *testing.T) {
	_, err := NewValue(map[int]any{1: "a"})
	assert.True(t, clienterr.IsKind(err, clienterr.KindConversion), "got %v", err)
}

func TestList_WireEncoding(t *testing.T) {
	list, err := MarshalList([]any{1, "a", 3.5, nil, []byte{0xff}})
	require.NoError(t, err)

	data, err := json.Marshal(list)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 5)

	assert.Equal(t, "integer", decoded[0]["kind"])
	assert.Equal(t, float64(1), decoded[0]["value"])
	assert.Equal(t, "string", decoded[1]["kind"])
	assert.Equal(t, "double", decoded[2]["kind"])
	assert.Equal(t, "nil", decoded[3]["kind"])
	assert.Nil(t, decoded[3]["value"])
	assert.Equal(t, "bytes", decoded[4]["kind"])
	assert.Equal(t, "/w==", decoded[4]["value"], "bytes are base64 on the wire")
}
