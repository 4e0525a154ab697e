package rooms

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// frame is what one broker publishes for its siblings on other processes.
// Receivers deliver only to their own sockets and never re-publish.
type frame struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room,omitempty"`
	UserID  uint            `json:"user_id,omitempty"`
	All     bool            `json:"all,omitempty"`
	Exclude []string        `json:"exclude,omitempty"`
	Body    json.RawMessage `json:"body"`
}

// PubSub relays broadcast frames between server processes.
type PubSub interface {
	Publish(payload []byte) error
	Subscribe(fn func(payload []byte))
}

type localPubSub struct{}

// NewLocalPubSub is the single-process relay: nothing to publish to, nothing
// to receive.
func NewLocalPubSub() PubSub {
	return localPubSub{}
}

func (localPubSub) Publish([]byte) error { return nil }

func (localPubSub) Subscribe(func([]byte)) {}

type redisPubSub struct {
	cli   *redis.Client
	topic string
}

func NewRedisPubSub(cli *redis.Client, topic string) PubSub {
	return &redisPubSub{cli: cli, topic: topic}
}

func (v *redisPubSub) Publish(payload []byte) error {
	return v.cli.Publish(context.Background(), v.topic, payload).Err()
}

func (v *redisPubSub) Subscribe(fn func(payload []byte)) {
	sub := v.cli.Subscribe(context.Background(), v.topic)
	go func() {
		for message := range sub.Channel() {
			fn([]byte(message.Payload))
		}
		log.Warn().Str("topic", v.topic).Msg("Room relay subscription closed.")
	}()
}
