package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wineprocure/procurement-api/config"
	"github.com/wineprocure/procurement-api/models"
)

const (
	openRFQsKey        = "rfqs:open"
	producerRFQsPrefix = "rfqs:producer:"
	listingTTL         = 5 * time.Minute

	// noGeneration tells SetRFQs not to cache, because the generation read failed
	noGeneration int64 = -1
)

var errStaleListing = errors.New("listing invalidated while it was loaded")

func producerRFQsKey(email string) string {
	return producerRFQsPrefix + email
}

func generationKey(key string) string {
	return key + ":gen"
}

// ListingCache caches the RFQ listings shown on the producer and supplier
// pages. Implementations must treat every failure as a cache miss.
//
// On a miss GetRFQs returns the listing's generation. The caller loads the
// listing and hands that generation back to SetRFQs, which drops the write
// if an Invalidate ran in between.
type ListingCache interface {
	GetRFQs(ctx context.Context, key string) ([]models.RFQ, int64, bool)
	SetRFQs(ctx context.Context, key string, generation int64, rfqs []models.RFQ)
	Invalidate(ctx context.Context, keys ...string)
}

// NoopListingCache never caches anything
type NoopListingCache struct{}

func (NoopListingCache) GetRFQs(ctx context.Context, key string) ([]models.RFQ, int64, bool) {
	return nil, noGeneration, false
}

func (NoopListingCache) SetRFQs(ctx context.Context, key string, generation int64, rfqs []models.RFQ) {}

func (NoopListingCache) Invalidate(ctx context.Context, keys ...string) {}

// RedisListingCache stores listings as JSON in Redis. Each listing key has
// a "<key>:gen" counter that Invalidate bumps.
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisListingCache wraps an existing Redis client
func NewRedisListingCache(client *redis.Client) *RedisListingCache {
	return &RedisListingCache{
		client: client,
		ttl:    listingTTL,
	}
}

// GetRFQs returns the cached listing for key, or its generation on a miss
func (c *RedisListingCache) GetRFQs(ctx context.Context, key string) ([]models.RFQ, int64, bool) {
	generation, err := c.client.Get(ctx, generationKey(key)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("Redis error (continuing with DB): %v", err)
		return nil, noGeneration, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		return nil, generation, false
	default:
		log.Printf("Redis error (continuing with DB): %v", err)
		return nil, noGeneration, false
	}

	var rfqs []models.RFQ
	if err := json.Unmarshal(data, &rfqs); err != nil {
		log.Printf("Failed to unmarshal cached listing %s (continuing with DB): %v", key, err)
		return nil, generation, false
	}
	return rfqs, generation, true
}

// SetRFQs caches a listing under key unless it was invalidated after
// generation was read
func (c *RedisListingCache) SetRFQs(ctx context.Context, key string, generation int64, rfqs []models.RFQ) {
	if generation == noGeneration {
		return
	}

	data, err := json.Marshal(rfqs)
	if err != nil {
		log.Printf("Failed to marshal listing %s: %v", key, err)
		return
	}

	genKey := generationKey(key)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleListing
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleListing), errors.Is(err, redis.TxFailedErr):
		log.Printf("Listing %s changed while loading, not caching it", key)
	default:
		log.Printf("Failed to cache listing %s: %v", key, err)
	}
}

// Invalidate drops the given listings and bumps their generations
func (c *RedisListingCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
		}
		return nil
	})
	if err != nil {
		log.Printf("Failed to invalidate listings %v: %v", keys, err)
	}
}

// ConnectRedis opens and pings a Redis client
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisURL,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// NewListingCache uses Redis when REDIS_URL is configured
func NewListingCache(cfg *config.Config) (ListingCache, error) {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, RFQ listings will not be cached")
		return NoopListingCache{}, nil
	}

	rdb, err := ConnectRedis(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisListingCache(rdb), nil
}
