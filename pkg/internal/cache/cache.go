package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// C is nil when no cache.addr is configured; callers fall back to their
// in-process implementations in that case.
var C *redis.Client

func NewStore() error {
	addr := viper.GetString("cache.addr")
	if len(addr) == 0 {
		return nil
	}

	C = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("cache.password"),
		DB:       viper.GetInt("cache.db"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := C.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}
