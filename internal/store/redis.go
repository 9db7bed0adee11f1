package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements JobStore on a Redis instance using INCR for id
// allocation, plain SET/GET for metadata and LPUSH/BRPOP for the queues.
type redisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(addr, password string, logger *slog.Logger) (JobStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Info("connected to job store", "addr", addr)
	return &redisStore{client: client, logger: logger}, nil
}

func (s *redisStore) NextJobID(ctx context.Context) (int64, error) {
	id, err := s.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate job id: %w", err)
	}
	return id, nil
}

func (s *redisStore) SetField(ctx context.Context, jobID int64, field, value string) error {
	key := JobKey(strconv.FormatInt(jobID, 10), field)
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) GetField(ctx context.Context, jobID, field string) (string, error) {
	val, err := s.client.Get(ctx, JobKey(jobID, field)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", JobKey(jobID, field), err)
	}
	return val, nil
}

func (s *redisStore) PushGenerate(ctx context.Context, jobID int64) error {
	if err := s.client.LPush(ctx, generateQueue, strconv.FormatInt(jobID, 10)).Err(); err != nil {
		return fmt.Errorf("failed to push job %d onto %s: %w", jobID, generateQueue, err)
	}
	return nil
}

func (s *redisStore) PopResult(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := s.client.BRPop(ctx, timeout, resultsQueue).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to pop from %s: %w", resultsQueue, err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return "", fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	return res[1], nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
