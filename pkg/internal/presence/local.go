package presence

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
)

type localDirectory struct {
	mutex     sync.Mutex
	entries   map[uint]map[string]Record
	processId string
	ttl       time.Duration
}

// NewLocal keeps the directory in process memory, with the same lazy TTL
// semantics as the Redis implementation. Suitable for single-process
// deployments and tests only.
func NewLocal(processId string, ttl time.Duration) Directory {
	return &localDirectory{
		entries:   make(map[uint]map[string]Record),
		processId: processId,
		ttl:       ttl,
	}
}

func (v *localDirectory) Put(_ context.Context, userId uint, socketId string) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if _, ok := v.entries[userId]; !ok {
		v.entries[userId] = make(map[string]Record)
	}
	v.entries[userId][socketId] = Record{
		UserID:    userId,
		SocketID:  socketId,
		ProcessID: v.processId,
		LastSeen:  time.Now(),
	}
	return nil
}

func (v *localDirectory) Remove(_ context.Context, userId uint, socketId string) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if sockets, ok := v.entries[userId]; ok {
		delete(sockets, socketId)
		if len(sockets) == 0 {
			delete(v.entries, userId)
		}
	}
	return nil
}

func (v *localDirectory) Get(_ context.Context, userId uint) ([]Record, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.expireLocked(userId)
	var records []Record
	for _, record := range v.entries[userId] {
		records = append(records, record)
	}
	return records, nil
}

func (v *localDirectory) ListOnline(_ context.Context) ([]uint, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	var users []uint
	for userId := range v.entries {
		v.expireLocked(userId)
		if len(v.entries[userId]) > 0 {
			users = append(users, userId)
		}
	}
	return lo.Uniq(users), nil
}

func (v *localDirectory) Touch(_ context.Context, userId uint, socketId string) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if sockets, ok := v.entries[userId]; ok {
		if record, ok := sockets[socketId]; ok {
			record.LastSeen = time.Now()
			sockets[socketId] = record
		}
	}
	return nil
}

func (v *localDirectory) Sweep(_ context.Context) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	for userId := range v.entries {
		v.expireLocked(userId)
	}
	return nil
}

func (v *localDirectory) ClearProcess(_ context.Context) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.entries = make(map[uint]map[string]Record)
	return nil
}

func (v *localDirectory) expireLocked(userId uint) {
	deadline := time.Now().Add(-v.ttl)
	for socketId, record := range v.entries[userId] {
		if record.LastSeen.Before(deadline) {
			delete(v.entries[userId], socketId)
		}
	}
	if len(v.entries[userId]) == 0 {
		delete(v.entries, userId)
	}
}
