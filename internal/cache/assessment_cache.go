package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"jobassess/internal/assessment"

	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

const DefaultTTL = 5 * time.Minute

type AssessmentCache interface {
	Get(ctx context.Context, key string) (*assessment.Assessment, error)
	Set(ctx context.Context, key string, a *assessment.Assessment) error
	Delete(ctx context.Context, keys ...string) error
}

type assessmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAssessmentCache(client *redis.Client, ttl time.Duration) AssessmentCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &assessmentCache{
		client: client,
		ttl:    ttl,
	}
}

func IDKey(id assessment.ID) string { return "assessment:id:" + string(id) }

func JobKey(jobID string) string { return "assessment:job:" + jobID }

func (c *assessmentCache) Get(ctx context.Context, key string) (*assessment.Assessment, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	var a assessment.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *assessmentCache) Set(ctx context.Context, key string, a *assessment.Assessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *assessmentCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
