package presence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const indexKey = "presence:index"

type redisDirectory struct {
	cli       *redis.Client
	processId string
	ttl       time.Duration
}

// NewRedis builds a Directory over Redis. Each socket gets its own record
// key with a TTL plus a membership in a lastSeen-scored index; the
// server:<processId> set allows bulk clearing when a whole process goes away.
func NewRedis(cli *redis.Client, processId string, ttl time.Duration) Directory {
	return &redisDirectory{cli: cli, processId: processId, ttl: ttl}
}

func recordKey(userId uint, socketId string) string {
	return fmt.Sprintf("presence:%d:%s", userId, socketId)
}

func indexMember(userId uint, socketId string) string {
	return fmt.Sprintf("%d:%s", userId, socketId)
}

func parseMember(member string) (uint, string, bool) {
	parts := strings.SplitN(member, ":", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return uint(id), parts[1], true
}

func (v *redisDirectory) serverKey() string {
	return fmt.Sprintf("server:%s", v.processId)
}

func (v *redisDirectory) Put(ctx context.Context, userId uint, socketId string) error {
	record := Record{
		UserID:    userId,
		SocketID:  socketId,
		ProcessID: v.processId,
		LastSeen:  time.Now(),
	}
	raw, _ := jsoniter.Marshal(record)

	_, err := v.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(userId, socketId), raw, v.ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(record.LastSeen.UnixNano()),
			Member: indexMember(userId, socketId),
		})
		pipe.SAdd(ctx, v.serverKey(), indexMember(userId, socketId))
		pipe.Expire(ctx, v.serverKey(), v.ttl*2)
		return nil
	})
	return err
}

func (v *redisDirectory) Remove(ctx context.Context, userId uint, socketId string) error {
	_, err := v.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, recordKey(userId, socketId))
		pipe.ZRem(ctx, indexKey, indexMember(userId, socketId))
		pipe.SRem(ctx, v.serverKey(), indexMember(userId, socketId))
		return nil
	})
	return err
}

func (v *redisDirectory) Get(ctx context.Context, userId uint) ([]Record, error) {
	members, err := v.aliveMembers(ctx)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, member := range members {
		uid, sid, ok := parseMember(member)
		if !ok || uid != userId {
			continue
		}
		raw, err := v.cli.Get(ctx, recordKey(uid, sid)).Bytes()
		if err != nil {
			// The record's own TTL lapsed before the index caught up.
			continue
		}
		var record Record
		if err := jsoniter.Unmarshal(raw, &record); err == nil {
			records = append(records, record)
		}
	}

	return records, nil
}

func (v *redisDirectory) ListOnline(ctx context.Context) ([]uint, error) {
	members, err := v.aliveMembers(ctx)
	if err != nil {
		return nil, err
	}

	users := lo.FilterMap(members, func(member string, _ int) (uint, bool) {
		uid, _, ok := parseMember(member)
		return uid, ok
	})

	return lo.Uniq(users), nil
}

func (v *redisDirectory) Touch(ctx context.Context, userId uint, socketId string) error {
	_, err := v.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Expire(ctx, recordKey(userId, socketId), v.ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(time.Now().UnixNano()),
			Member: indexMember(userId, socketId),
		})
		pipe.Expire(ctx, v.serverKey(), v.ttl*2)
		return nil
	})
	return err
}

func (v *redisDirectory) Sweep(ctx context.Context) error {
	deadline := time.Now().Add(-v.ttl)
	stale, err := v.cli.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", deadline.UnixNano()),
	}).Result()
	if err != nil {
		return fmt.Errorf("zrange: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	_, err = v.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, member := range stale {
			if uid, sid, ok := parseMember(member); ok {
				pipe.Del(ctx, recordKey(uid, sid))
			}
			pipe.ZRem(ctx, indexKey, member)
		}
		return nil
	})
	return err
}

func (v *redisDirectory) ClearProcess(ctx context.Context) error {
	members, err := v.cli.SMembers(ctx, v.serverKey()).Result()
	if err != nil {
		return err
	}

	_, err = v.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, member := range members {
			if uid, sid, ok := parseMember(member); ok {
				pipe.Del(ctx, recordKey(uid, sid))
			}
			pipe.ZRem(ctx, indexKey, member)
		}
		pipe.Del(ctx, v.serverKey())
		return nil
	})
	return err
}

func (v *redisDirectory) aliveMembers(ctx context.Context) ([]string, error) {
	deadline := time.Now().Add(-v.ttl)
	members, err := v.cli.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", deadline.UnixNano()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange: %w", err)
	}
	return members, nil
}
