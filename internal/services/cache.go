package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/internal/optimizer"
)

type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{
		client: client,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key not found")
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// Cache key generators
func SnapshotCacheKey() string {
	return "snapshot:current"
}

func DifficultyCacheKey(first, length int) string {
	return fmt.Sprintf("difficulty:%d:%d", first, length)
}

// SquadCacheKey keys a solve on its window and every rule knob that can
// change the answer.
func SquadCacheKey(first, length int, rules optimizer.Rules) string {
	return fmt.Sprintf("squad:%d:%d:%d:%d:%g", first, length, rules.BudgetCap, rules.MaxPerTeam, rules.BudgetSlack)
}

// ChipsCacheKey keys recommendations on the window and the held chip set,
// so a request holding fewer chips never answers for one holding more.
func ChipsCacheKey(first, length int, available []fpl.Chip) string {
	names := make([]string, len(available))
	for i, chip := range available {
		names[i] = chip.String()
	}
	sort.Strings(names)
	return fmt.Sprintf("chips:%d:%d:%s", first, length, strings.Join(names, ","))
}

// Cache with retry logic
func (s *CacheService) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = s.Set(ctx, key, value, expiration); err == nil {
			return nil
		}
		logrus.Warnf("Cache set failed (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(time.Millisecond * 100 * time.Duration(i+1))
	}
	return err
}

// InvalidatePlanning drops every derived planning key after a snapshot
// refresh.
func (s *CacheService) InvalidatePlanning(ctx context.Context) error {
	keys := []string{SnapshotCacheKey()}
	for _, pattern := range []string{"difficulty:*", "squad:*", "chips:*"} {
		iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan %s keys: %w", pattern, err)
		}
	}
	return s.Delete(ctx, keys...)
}
