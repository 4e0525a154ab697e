package rooms

import (
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/nebulachat/messaging/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSocket struct {
	id     string
	userId uint

	mutex  sync.Mutex
	frames [][]byte
}

func (v *fakeSocket) ID() string   { return v.id }
func (v *fakeSocket) UserID() uint { return v.userId }

func (v *fakeSocket) Push(payload []byte) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.frames = append(v.frames, payload)
	return nil
}

func (v *fakeSocket) actions(t *testing.T) []string {
	t.Helper()
	v.mutex.Lock()
	defer v.mutex.Unlock()

	var out []string
	for _, raw := range v.frames {
		var cmd wire.Command
		require.NoError(t, jsoniter.Unmarshal(raw, &cmd))
		out = append(out, cmd.Action)
	}
	return out
}

// wirePubSub links brokers in one test process the way the Redis topic links
// processes: every published frame reaches every subscriber, publisher
// included.
type wirePubSub struct {
	mutex    sync.Mutex
	handlers []func([]byte)
}

func (v *wirePubSub) Publish(payload []byte) error {
	v.mutex.Lock()
	handlers := append([]func([]byte){}, v.handlers...)
	v.mutex.Unlock()
	for _, fn := range handlers {
		fn(payload)
	}
	return nil
}

func (v *wirePubSub) Subscribe(fn func([]byte)) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.handlers = append(v.handlers, fn)
}

func TestBroadcastReachesRoomOnly(t *testing.T) {
	broker := NewBroker(NewLocalPubSub())
	inside := &fakeSocket{id: "s1", userId: 1}
	outside := &fakeSocket{id: "s2", userId: 2}
	broker.Register(inside)
	broker.Register(outside)
	broker.Join(inside.id, ChannelRoom(10))

	broker.Broadcast(ChannelRoom(10), wire.EventMessageCreated, nil)

	assert.Equal(t, []string{wire.EventMessageCreated}, inside.actions(t))
	assert.Empty(t, outside.actions(t))
}

func TestDuplicateJoinDeliversOnce(t *testing.T) {
	broker := NewBroker(NewLocalPubSub())
	socket := &fakeSocket{id: "s1", userId: 1}
	broker.Register(socket)

	broker.Join(socket.id, ChannelRoom(10))
	broker.Join(socket.id, ChannelRoom(10))
	broker.Broadcast(ChannelRoom(10), wire.EventMessageCreated, nil)

	assert.Len(t, socket.actions(t), 1)
}

func TestLeaveUnjoinedRoomIsNoop(t *testing.T) {
	broker := NewBroker(NewLocalPubSub())
	socket := &fakeSocket{id: "s1", userId: 1}
	broker.Register(socket)

	broker.Leave(socket.id, ChannelRoom(10))
	broker.Leave("ghost", ChannelRoom(10))
	broker.Broadcast(ChannelRoom(10), wire.EventMessageCreated, nil)

	assert.Empty(t, socket.actions(t))
}

func TestBroadcastExcludesSender(t *testing.T) {
	broker := NewBroker(NewLocalPubSub())
	sender := &fakeSocket{id: "s1", userId: 1}
	other := &fakeSocket{id: "s2", userId: 2}
	broker.Register(sender)
	broker.Register(other)
	broker.Join(sender.id, ChannelRoom(10))
	broker.Join(other.id, ChannelRoom(10))

	broker.Broadcast(ChannelRoom(10), wire.EventTypingStart, nil, sender.id)

	assert.Empty(t, sender.actions(t))
	assert.Equal(t, []string{wire.EventTypingStart}, other.actions(t))
}

func TestSendToUserHitsEverySocketOfUser(t *testing.T) {
	broker := NewBroker(NewLocalPubSub())
	tabOne := &fakeSocket{id: "s1", userId: 1}
	tabTwo := &fakeSocket{id: "s2", userId: 1}
	other := &fakeSocket{id: "s3", userId: 2}
	broker.Register(tabOne)
	broker.Register(tabTwo)
	broker.Register(other)

	broker.SendToUser(1, wire.EventMessageUpdated, nil)

	assert.Len(t, tabOne.actions(t), 1)
	assert.Len(t, tabTwo.actions(t), 1)
	assert.Empty(t, other.actions(t))
}

func TestSendToOfflineUserIsSilentNoop(t *testing.T) {
	broker := NewBroker(NewLocalPubSub())
	socket := &fakeSocket{id: "s1", userId: 1}
	broker.Register(socket)

	broker.SendToUser(99, wire.EventMessageUpdated, nil)
	assert.Empty(t, socket.actions(t))

	// Nothing was queued either: a late registration receives nothing.
	late := &fakeSocket{id: "s2", userId: 99}
	broker.Register(late)
	assert.Empty(t, late.actions(t))
}

func TestUnregisterLeavesRooms(t *testing.T) {
	broker := NewBroker(NewLocalPubSub())
	socket := &fakeSocket{id: "s1", userId: 1}
	broker.Register(socket)
	broker.Join(socket.id, ChannelRoom(10))

	broker.Unregister(socket.id)
	broker.Broadcast(ChannelRoom(10), wire.EventMessageCreated, nil)

	assert.Empty(t, socket.actions(t))
}

func TestCrossProcessRelayWithoutEcho(t *testing.T) {
	bus := &wirePubSub{}
	east := NewBroker(bus)
	west := NewBroker(bus)

	eastSocket := &fakeSocket{id: "s1", userId: 1}
	westSocket := &fakeSocket{id: "s2", userId: 2}
	east.Register(eastSocket)
	west.Register(westSocket)
	east.Join(eastSocket.id, ChannelRoom(10))
	west.Join(westSocket.id, ChannelRoom(10))

	east.Broadcast(ChannelRoom(10), wire.EventMessageCreated, nil)

	// Each socket hears the event exactly once: the origin broker must drop
	// its own frame when it comes back over the shared topic.
	assert.Len(t, eastSocket.actions(t), 1)
	assert.Len(t, westSocket.actions(t), 1)
}

func TestCrossProcessSendToUser(t *testing.T) {
	bus := &wirePubSub{}
	east := NewBroker(bus)
	west := NewBroker(bus)

	remote := &fakeSocket{id: "s1", userId: 7}
	west.Register(remote)

	east.SendToUser(7, wire.EventMessageUpdated, nil)
	assert.Len(t, remote.actions(t), 1)
}
