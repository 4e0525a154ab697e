package wire

import (
	"errors"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFramesDecodeIndependently(t *testing.T) {
	frames := [][]byte{
		[]byte(`{"action":"join_channel","payload":{"channel_id":5}}`),
		[]byte(`{"action":"leave_channel"}`),
	}

	var decoded []Command
	for _, raw := range frames {
		var cmd Command
		require.NoError(t, jsoniter.Unmarshal(raw, &cmd))
		decoded = append(decoded, cmd)
	}

	var first ChannelRequest
	DecodePayload(decoded[0].Payload, &first)
	assert.EqualValues(t, 5, first.ChannelID)

	// The bare frame carries no payload, whatever the frame before it held.
	assert.Equal(t, CommandLeaveChannel, decoded[1].Action)
	assert.Nil(t, decoded[1].Payload)
}

func TestCommandFromError(t *testing.T) {
	cmd := CommandFromError(errors.New("not a member of this channel"))

	assert.Equal(t, "error", cmd.Action)
	assert.Equal(t, "not a member of this channel", cmd.Message)
	assert.Nil(t, cmd.Payload)
}

func TestDecodePayloadCoercesMaps(t *testing.T) {
	var req ChannelRequest
	DecodePayload(map[string]any{"channel_id": 7}, &req)

	assert.EqualValues(t, 7, req.ChannelID)
}
