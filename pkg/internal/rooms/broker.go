// Package rooms groups live sockets into channel-scoped rooms and fans
// events out to them, locally and across sibling processes. Delivery is
// fire-and-forget: the mutation path never waits for or retries a push, the
// mutation response itself is the fallback consistency path.
package rooms

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/nebulachat/messaging/pkg/wire"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Socket is one live client connection as the broker sees it.
type Socket interface {
	ID() string
	UserID() uint
	Push(payload []byte) error
}

func ChannelRoom(channelId uint) string {
	return fmt.Sprintf("channel:%d", channelId)
}

func UserRoom(userId uint) string {
	return fmt.Sprintf("user:%d", userId)
}

type Broker struct {
	mutex   sync.RWMutex
	sockets map[string]Socket
	users   map[uint]map[string]struct{}
	rooms   map[string]map[string]struct{}
	joined  map[string]map[string]struct{}

	origin string
	bus    PubSub
}

func NewBroker(bus PubSub) *Broker {
	broker := &Broker{
		sockets: make(map[string]Socket),
		users:   make(map[uint]map[string]struct{}),
		rooms:   make(map[string]map[string]struct{}),
		joined:  make(map[string]map[string]struct{}),
		origin:  uuid.NewString(),
		bus:     bus,
	}
	bus.Subscribe(broker.handleRemote)
	return broker
}

func (v *Broker) Register(socket Socket) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.sockets[socket.ID()] = socket
	if _, ok := v.users[socket.UserID()]; !ok {
		v.users[socket.UserID()] = make(map[string]struct{})
	}
	v.users[socket.UserID()][socket.ID()] = struct{}{}
}

func (v *Broker) Unregister(socketId string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	socket, ok := v.sockets[socketId]
	if !ok {
		return
	}
	delete(v.sockets, socketId)
	if sockets, ok := v.users[socket.UserID()]; ok {
		delete(sockets, socketId)
		if len(sockets) == 0 {
			delete(v.users, socket.UserID())
		}
	}
	for roomId := range v.joined[socketId] {
		v.leaveLocked(socketId, roomId)
	}
	delete(v.joined, socketId)
}

// Join adds a socket to a room. Joining a room the socket is already in is a
// no-op, as retried client logic may issue duplicate joins.
func (v *Broker) Join(socketId string, roomId string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if _, ok := v.sockets[socketId]; !ok {
		return
	}
	if _, ok := v.rooms[roomId]; !ok {
		v.rooms[roomId] = make(map[string]struct{})
	}
	v.rooms[roomId][socketId] = struct{}{}
	if _, ok := v.joined[socketId]; !ok {
		v.joined[socketId] = make(map[string]struct{})
	}
	v.joined[socketId][roomId] = struct{}{}
}

// Leave removes a socket from a room; leaving a room it is not in is a no-op.
func (v *Broker) Leave(socketId string, roomId string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.leaveLocked(socketId, roomId)
	if rooms, ok := v.joined[socketId]; ok {
		delete(rooms, roomId)
	}
}

func (v *Broker) leaveLocked(socketId string, roomId string) {
	if sockets, ok := v.rooms[roomId]; ok {
		delete(sockets, socketId)
		if len(sockets) == 0 {
			delete(v.rooms, roomId)
		}
	}
}

// Broadcast fans an event out to every socket in a room, here and on sibling
// processes, optionally excluding sockets (normally the sender's own).
func (v *Broker) Broadcast(roomId string, event string, payload any, exclude ...string) {
	body := wire.Command{Action: event, Payload: payload}.Marshal()
	v.deliverRoom(roomId, body, exclude)
	v.relay(frame{Origin: v.origin, Room: roomId, Exclude: exclude, Body: body})
}

// BroadcastAll pushes an event to every connected socket of every process.
func (v *Broker) BroadcastAll(event string, payload any) {
	body := wire.Command{Action: event, Payload: payload}.Marshal()
	v.deliverAll(body)
	v.relay(frame{Origin: v.origin, All: true, Body: body})
}

// SendToUser delivers directly to all of one user's sockets. A user with no
// live socket anywhere makes this a silent no-op; nothing is queued.
func (v *Broker) SendToUser(userId uint, event string, payload any) {
	body := wire.Command{Action: event, Payload: payload}.Marshal()
	v.deliverUser(userId, body)
	v.relay(frame{Origin: v.origin, UserID: userId, Body: body})
}

func (v *Broker) relay(f frame) {
	raw, _ := jsoniter.Marshal(f)
	if err := v.bus.Publish(raw); err != nil {
		log.Warn().Err(err).Msg("Unable to relay event to sibling processes...")
	}
}

func (v *Broker) handleRemote(payload []byte) {
	var f frame
	if err := jsoniter.Unmarshal(payload, &f); err != nil {
		log.Warn().Err(err).Msg("Unable to unmarshal relayed frame...")
		return
	}
	// Frames we published come back on the same topic; delivering them
	// again would duplicate events for local sockets.
	if f.Origin == v.origin {
		return
	}

	switch {
	case f.All:
		v.deliverAll(f.Body)
	case len(f.Room) > 0:
		v.deliverRoom(f.Room, f.Body, f.Exclude)
	case f.UserID > 0:
		v.deliverUser(f.UserID, f.Body)
	}
}

func (v *Broker) deliverRoom(roomId string, body []byte, exclude []string) {
	v.mutex.RLock()
	var targets []Socket
	for socketId := range v.rooms[roomId] {
		if lo.Contains(exclude, socketId) {
			continue
		}
		if socket, ok := v.sockets[socketId]; ok {
			targets = append(targets, socket)
		}
	}
	v.mutex.RUnlock()

	v.push(targets, body)
}

func (v *Broker) deliverUser(userId uint, body []byte) {
	v.mutex.RLock()
	var targets []Socket
	for socketId := range v.users[userId] {
		if socket, ok := v.sockets[socketId]; ok {
			targets = append(targets, socket)
		}
	}
	v.mutex.RUnlock()

	v.push(targets, body)
}

func (v *Broker) deliverAll(body []byte) {
	v.mutex.RLock()
	targets := lo.Values(v.sockets)
	v.mutex.RUnlock()

	v.push(targets, body)
}

// push writes outside the registry lock, on a snapshot of the targets. Write
// failures are logged and never retried or surfaced: a dropped push is
// repaired by the client's next fetch, not by the broadcaster.
func (v *Broker) push(targets []Socket, body []byte) {
	for _, socket := range targets {
		if err := socket.Push(body); err != nil {
			log.Warn().Err(err).Str("socket", socket.ID()).Msg("Unable to push event to socket...")
		}
	}
}
