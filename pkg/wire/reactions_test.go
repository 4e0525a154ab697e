package wire

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleReactionAddAndRemove(t *testing.T) {
	reactions := ToggleReaction(nil, 1, "👍")
	require.Len(t, reactions, 1)
	assert.Equal(t, "👍", reactions[0].Emoji)
	assert.Equal(t, []uint{1}, reactions[0].Users)

	// Toggling again with the same user and emoji must empty the set and
	// drop the entry entirely, not leave a zero or negative count.
	reactions = ToggleReaction(reactions, 1, "👍")
	assert.Empty(t, reactions)
}

func TestToggleReactionIdempotentPairs(t *testing.T) {
	base := []Reaction{{Emoji: "🎉", Users: []uint{7}}}
	out := ToggleReaction(ToggleReaction(base, 2, "🎉"), 2, "🎉")
	assert.Equal(t, base, out)
}

func TestToggleReactionOrderIndependent(t *testing.T) {
	ab := ToggleReaction(ToggleReaction(nil, 1, "👍"), 2, "👍")
	ba := ToggleReaction(ToggleReaction(nil, 2, "👍"), 1, "👍")

	require.Len(t, ab, 1)
	require.Len(t, ba, 1)
	assert.ElementsMatch(t, ab[0].Users, ba[0].Users)
}

func TestToggleReactionDoesNotMutateInput(t *testing.T) {
	base := []Reaction{{Emoji: "👍", Users: []uint{1, 2}}}
	_ = ToggleReaction(base, 1, "👍")
	_ = ToggleReaction(base, 3, "👍")
	assert.Equal(t, []uint{1, 2}, base[0].Users)
}

func TestToggleReactionSeparateEmojis(t *testing.T) {
	reactions := ToggleReaction(nil, 1, "👍")
	reactions = ToggleReaction(reactions, 1, "🎉")
	require.Len(t, reactions, 2)

	reactions = ToggleReaction(reactions, 1, "👍")
	require.Len(t, reactions, 1)
	assert.Equal(t, "🎉", reactions[0].Emoji)
}

func TestReactionCountDerivedOnMarshal(t *testing.T) {
	raw, err := jsoniter.Marshal(Reaction{Emoji: "👍", Users: []uint{1, 2, 3}})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, jsoniter.Unmarshal(raw, &decoded))
	assert.EqualValues(t, 3, decoded["count"])

	// Round-tripping must not grow a stored count: the struct only keeps
	// the user set.
	var back Reaction
	require.NoError(t, jsoniter.Unmarshal(raw, &back))
	assert.Equal(t, []uint{1, 2, 3}, back.Users)
}
