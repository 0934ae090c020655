package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Snapshot
		expected string
	}{
		{"empty", Snapshot{}, `{}`},
		{"string", Snapshot{"a": StringValue("hello")}, `{"a":"hello"}`},
		{"empty string", Snapshot{"a": StringValue("")}, `{"a":""}`},
		{"int", Snapshot{"n": IntValue(42)}, `{"n":42}`},
		{"negative int", Snapshot{"n": IntValue(-100)}, `{"n":-100}`},
		{"zero", Snapshot{"n": IntValue(0)}, `{"n":0}`},
		{"max int64", Snapshot{"n": IntValue(9223372036854775807)}, `{"n":9223372036854775807}`},
		{"bool true", Snapshot{"b": BoolValue(true)}, `{"b":true}`},
		{"bool false", Snapshot{"b": BoolValue(false)}, `{"b":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	snap := Snapshot{
		"zebra": IntValue(1),
		"alpha": IntValue(2),
		"beta":  IntValue(3),
	}

	result, err := MarshalCanonical(snap)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+10000 encodes as surrogates D800 DC00 in UTF-16, which sort
	// before U+FF01. UTF-8 byte order would give the opposite.
	snap := Snapshot{
		"！":     IntValue(1),
		"\U00010000": IntValue(2),
	}

	result, err := MarshalCanonical(snap)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"！\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	snap := Snapshot{"v": StringValue(`<tag> & "quote"`)}

	result, err := MarshalCanonical(snap)
	require.NoError(t, err)
	assert.Equal(t, `{"v":"<tag> & \"quote\""}`, string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// e + combining acute accent normalizes to the single code point.
	decomposed := Snapshot{"v": StringValue("café")}
	composed := Snapshot{"v": StringValue("café")}

	d, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	c, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(c), string(d))
}

func TestMarshalCanonicalControlCharacters(t *testing.T) {
	snap := Snapshot{"v": StringValue("line1\nline2\ttab")}

	result, err := MarshalCanonical(snap)
	require.NoError(t, err)
	assert.Equal(t, `{"v":"line1\nline2\ttab"}`, string(result))
}

func TestMarshalCanonicalLineSeparatorsUnescaped(t *testing.T) {
	// RFC 8785 forbids the JavaScript-compat escapes for U+2028/U+2029.
	snap := Snapshot{"v": StringValue("a b c")}

	result, err := MarshalCanonical(snap)
	require.NoError(t, err)
	assert.Equal(t, "{\"v\":\"a b c\"}", string(result))
}

func TestMarshalCanonicalLiteralBackslashU(t *testing.T) {
	// A literal backslash followed by "u2028" must stay escaped text,
	// not become a line separator.
	snap := Snapshot{"v": StringValue("\\u2028")}

	result, err := MarshalCanonical(snap)
	require.NoError(t, err)
	assert.Equal(t, `{"v":"\\u2028"}`, string(result))
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	snap := Fields(
		"business_number", "NDA-2026-0001",
		"seq", int64(7),
		"approved", true,
	)

	first, err := MarshalCanonical(snap)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(snap)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
