package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	snap := Fields(
		"name", "alice",
		"count", 3,
		"big", int64(1<<40),
		"flag", true,
	)

	require.Len(t, snap, 4)
	assert.Equal(t, StringValue("alice"), snap["name"])
	assert.Equal(t, IntValue(3), snap["count"])
	assert.Equal(t, IntValue(1<<40), snap["big"])
	assert.Equal(t, BoolValue(true), snap["flag"])
}

func TestFieldsPanicsOnOddArguments(t *testing.T) {
	assert.Panics(t, func() { Fields("key") })
}

func TestFieldsPanicsOnNonStringKey(t *testing.T) {
	assert.Panics(t, func() { Fields(1, "value") })
}

func TestFieldsPanicsOnFloat(t *testing.T) {
	// Floats break canonical JSON determinism and are rejected outright.
	assert.Panics(t, func() { Fields("x", 1.5) })
}

func TestSortedKeys(t *testing.T) {
	snap := Snapshot{
		"c": IntValue(1),
		"a": IntValue(2),
		"b": IntValue(3),
	}
	assert.Equal(t, []string{"a", "b", "c"}, snap.SortedKeys())
}

func TestClone(t *testing.T) {
	orig := Fields("k", "v")
	cloned := orig.Clone()

	cloned["k"] = StringValue("changed")
	cloned["extra"] = IntValue(1)

	assert.Equal(t, StringValue("v"), orig["k"])
	assert.Len(t, orig, 1)
}

func TestCloneNil(t *testing.T) {
	var snap Snapshot
	assert.Nil(t, snap.Clone())
}

func TestParseCapability(t *testing.T) {
	for _, cap := range AllCapabilities {
		parsed, err := ParseCapability(string(cap))
		require.NoError(t, err)
		assert.Equal(t, cap, parsed)
	}

	_, err := ParseCapability("superuser")
	assert.Error(t, err)
}

func TestLifecycleStateTerminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.True(t, StateValidated.Terminal())
	assert.True(t, StateRejected.Terminal())
}
