package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration // Default TTL for cache entries
}

// RedisCache is a best-effort read cache in front of the submission store.
// Failures degrade to store reads; they are logged, never propagated.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *utils.Logger
}

func CreateRedisCache(config RedisConfig) (*RedisCache, error) {
	addr := config.Host + ":" + strconv.Itoa(config.Port)
	if config.Port == 0 {
		addr = config.Host + ":6379" // Default Redis port
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	ttl := config.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: utils.NewLogger("cache"),
	}, nil
}

func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func submissionKey(id string) string {
	return "submission:" + id
}

func (c *RedisCache) GetSubmission(ctx context.Context, id string) (*models.PaymentSubmission, bool) {
	data, err := c.client.Get(ctx, submissionKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn(ctx, "cache read failed", map[string]interface{}{"key": submissionKey(id), "error": err.Error()})
		}
		return nil, false
	}

	var submission models.PaymentSubmission
	if err := json.Unmarshal(data, &submission); err != nil {
		c.logger.Warn(ctx, "cache entry corrupt", map[string]interface{}{"key": submissionKey(id), "error": err.Error()})
		return nil, false
	}
	return &submission, true
}

func (c *RedisCache) SetSubmission(ctx context.Context, submission *models.PaymentSubmission) {
	data, err := json.Marshal(submission)
	if err != nil {
		c.logger.Warn(ctx, "cache encode failed", map[string]interface{}{"submission_id": submission.ID, "error": err.Error()})
		return
	}
	if err := c.client.Set(ctx, submissionKey(submission.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "cache write failed", map[string]interface{}{"submission_id": submission.ID, "error": err.Error()})
	}
}

func (c *RedisCache) InvalidateSubmission(ctx context.Context, id string) {
	if err := c.client.Del(ctx, submissionKey(id)).Err(); err != nil {
		c.logger.Warn(ctx, "cache invalidate failed", map[string]interface{}{"submission_id": id, "error": err.Error()})
	}
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, key).Result()
	return result > 0, err
}
