package data

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const streamRelays = "formgate.relays"

// PublishRelay pushes a relay event onto the redis stream consumed by
// downstream tooling. A nil client disables publishing.
func PublishRelay(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamRelays,
		Values: payload,
	}).Result()
	return err
}
