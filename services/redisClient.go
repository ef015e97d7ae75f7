package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for host and checks it answers.
func ConnectRedis(ctx context.Context, host string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: host,
		DB:   0,
	})
	if err := PingRedis(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func PingRedis(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}
