package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"huanghe-analytics-api/internal/model"

	"github.com/redis/go-redis/v9"
)

// Buffer configuration
const (
	MaxBatchSize       = 50
	FlushTimeout       = 60 * time.Second
	StaleDataThreshold = 1 * time.Hour
	CleanupInterval    = 5 * time.Minute
)

// FlushFunc is called to persist buffered snapshots to the database.
type FlushFunc func(ctx context.Context, items []*model.BufferedSnapshot) error

var deleteIfUnchangedScript = redis.NewScript(`
	if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
		redis.call("HDEL", KEYS[1], ARGV[1])
		redis.call("SREM", KEYS[2], ARGV[1])
		return 1
	else
		return 0
	end
`)

// RedisSnapshotBuffer uses Redis for write-behind buffering of crawler
// snapshot uploads, so a burst of crawl pages never blocks on the database.
type RedisSnapshotBuffer struct {
	client        *redis.Client
	flushFunc     FlushFunc
	flushTicker   *time.Ticker
	cleanupTicker *time.Ticker
	stopFlush     chan struct{}
	stopOnce      sync.Once
	keyPrefix     string
}

// RedisBufferConfig holds configuration for the Redis buffer.
type RedisBufferConfig struct {
	Addr          string
	Password      string
	DB            int
	FlushInterval time.Duration
	KeyPrefix     string
}

// NewRedisSnapshotBuffer creates a Redis-backed snapshot buffer.
func NewRedisSnapshotBuffer(cfg RedisBufferConfig, flushFunc FlushFunc) (*RedisSnapshotBuffer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "huanghe:snapshot"
	}

	b := &RedisSnapshotBuffer{
		client:        client,
		flushFunc:     flushFunc,
		flushTicker:   time.NewTicker(cfg.FlushInterval),
		cleanupTicker: time.NewTicker(CleanupInterval),
		stopFlush:     make(chan struct{}),
		keyPrefix:     keyPrefix,
	}

	go b.backgroundFlush()
	go b.backgroundCleanup()

	log.Printf("[RedisSnapshotBuffer] Started - DB:%d, prefix:%s, flush:%v, batch:%d",
		cfg.DB, keyPrefix, cfg.FlushInterval, MaxBatchSize)
	return b, nil
}

func (b *RedisSnapshotBuffer) bufferKey() string {
	return b.keyPrefix + ":buffer"
}

func (b *RedisSnapshotBuffer) pendingKey() string {
	return b.keyPrefix + ":pending"
}

// field identifies one capture: a project can upload many captures, one per
// crawl timestamp, and re-uploading the same capture overwrites the pending one.
func field(projectID, capturedAt int64) string {
	return fmt.Sprintf("%d:%d", projectID, capturedAt)
}

// Add buffers a snapshot upload in Redis.
func (b *RedisSnapshotBuffer) Add(ctx context.Context, projectID, capturedAt int64, rawJSON []byte) error {
	data := &model.BufferedSnapshot{
		ProjectID:  projectID,
		CapturedAt: capturedAt,
		RawJSON:    rawJSON,
		UpdatedAt:  time.Now(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	f := field(projectID, capturedAt)
	pipe := b.client.Pipeline()
	pipe.HSet(ctx, b.bufferKey(), f, jsonData)
	pipe.SAdd(ctx, b.pendingKey(), f)
	_, err = pipe.Exec(ctx)
	return err
}

// Count returns the number of pending snapshots.
func (b *RedisSnapshotBuffer) Count(ctx context.Context) (int64, error) {
	return b.client.SCard(ctx, b.pendingKey()).Result()
}

// FlushBatch writes up to MaxBatchSize snapshots to the database.
func (b *RedisSnapshotBuffer) FlushBatch(ctx context.Context) (int, error) {
	fields, err := b.client.SRandMemberN(ctx, b.pendingKey(), MaxBatchSize).Result()
	if err != nil {
		return 0, err
	}

	if len(fields) == 0 {
		return 0, nil
	}

	totalPending, _ := b.Count(ctx)
	log.Printf("[RedisSnapshotBuffer] Flushing %d/%d snapshots", len(fields), totalPending)

	items := make([]*model.BufferedSnapshot, 0, len(fields))
	originalData := make(map[string]string)

	for _, f := range fields {
		data, err := b.client.HGet(ctx, b.bufferKey(), f).Bytes()
		if err == redis.Nil {
			b.client.SRem(ctx, b.pendingKey(), f)
			continue
		}
		if err != nil {
			log.Printf("[RedisSnapshotBuffer] Error getting %s: %v", f, err)
			continue
		}

		originalData[f] = string(data)

		var snap model.BufferedSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Printf("[RedisSnapshotBuffer] Error unmarshaling %s: %v", f, err)
			b.client.HDel(ctx, b.bufferKey(), f)
			b.client.SRem(ctx, b.pendingKey(), f)
			continue
		}
		items = append(items, &snap)
	}

	if len(items) == 0 {
		return 0, nil
	}

	if err := b.flushFunc(ctx, items); err != nil {
		log.Printf("[RedisSnapshotBuffer] Flush error: %v", err)
		return 0, err
	}

	pipe := b.client.Pipeline()
	for f, rawJSON := range originalData {
		deleteIfUnchangedScript.Run(ctx, pipe, []string{b.bufferKey(), b.pendingKey()}, f, rawJSON)
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		log.Printf("[RedisSnapshotBuffer] Error clearing Redis: %v", err)
	}

	log.Printf("[RedisSnapshotBuffer] Successfully flushed %d snapshots", len(items))
	return len(items), nil
}

// Flush writes all buffered snapshots to the database.
func (b *RedisSnapshotBuffer) Flush(ctx context.Context) error {
	_, err := b.FlushBatch(ctx)
	return err
}

// CleanupStale removes buffered snapshots older than StaleDataThreshold.
func (b *RedisSnapshotBuffer) CleanupStale(ctx context.Context) (int, error) {
	fields, err := b.client.SMembers(ctx, b.pendingKey()).Result()
	if err != nil {
		return 0, err
	}

	if len(fields) == 0 {
		return 0, nil
	}

	staleThreshold := time.Now().Add(-StaleDataThreshold)
	staleCount := 0
	pipe := b.client.Pipeline()

	for _, f := range fields {
		data, err := b.client.HGet(ctx, b.bufferKey(), f).Bytes()
		if err == redis.Nil {
			pipe.SRem(ctx, b.pendingKey(), f)
			continue
		}
		if err != nil {
			continue
		}

		var snap model.BufferedSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			pipe.HDel(ctx, b.bufferKey(), f)
			pipe.SRem(ctx, b.pendingKey(), f)
			staleCount++
			continue
		}

		if snap.UpdatedAt.Before(staleThreshold) {
			pipe.HDel(ctx, b.bufferKey(), f)
			pipe.SRem(ctx, b.pendingKey(), f)
			staleCount++
		}
	}

	if staleCount > 0 {
		_, err = pipe.Exec(ctx)
		if err != nil {
			log.Printf("[RedisSnapshotBuffer] Cleanup exec error: %v", err)
			return 0, err
		}
		log.Printf("[RedisSnapshotBuffer] Cleaned up %d stale snapshots", staleCount)
	}

	return staleCount, nil
}

func (b *RedisSnapshotBuffer) backgroundFlush() {
	for {
		select {
		case <-b.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
			if _, err := b.FlushBatch(ctx); err != nil {
				log.Printf("[RedisSnapshotBuffer] Background flush error: %v", err)
			}
			cancel()
		case <-b.stopFlush:
			log.Printf("[RedisSnapshotBuffer] Shutdown: flushing remaining snapshots...")
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			for {
				flushed, err := b.FlushBatch(ctx)
				if err != nil {
					log.Printf("[RedisSnapshotBuffer] Shutdown flush error: %v", err)
					break
				}
				if flushed == 0 {
					break
				}
			}
			cancel()
			log.Printf("[RedisSnapshotBuffer] Shutdown flush complete")
			return
		}
	}
}

func (b *RedisSnapshotBuffer) backgroundCleanup() {
	for {
		select {
		case <-b.cleanupTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			b.CleanupStale(ctx)
			cancel()
		case <-b.stopFlush:
			return
		}
	}
}

// Close stops the buffer and performs a final flush.
func (b *RedisSnapshotBuffer) Close() error {
	b.stopOnce.Do(func() {
		b.flushTicker.Stop()
		b.cleanupTicker.Stop()
		close(b.stopFlush)
	})
	return b.client.Close()
}
