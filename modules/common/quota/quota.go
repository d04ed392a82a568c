package quota

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrExceeded - 윈도우 내 이미지 한도 초과
var ErrExceeded = errors.New("image quota exceeded")

const keyPrefix = "scene:quota:"

// Usage - 소비 후 사용량
type Usage struct {
	Used  int64
	Limit int64
}

// Limiter - API 키별 이미지 생성 한도 (Redis INCRBY + EXPIRE)
// nil Limiter, nil Redis, max <= 0 이면 제한 없음
type Limiter struct {
	redis  *redis.Client
	max    int64
	window time.Duration
}

func NewLimiter(rdb *redis.Client, max int, window time.Duration) *Limiter {
	if rdb == nil || max <= 0 {
		if max > 0 {
			log.Println("⚠️  [Quota] Redis unavailable - quota disabled")
		}
		return nil
	}
	log.Printf("✅ [Quota] Limiter enabled: %d images / %v", max, window)
	return &Limiter{redis: rdb, max: int64(max), window: window}
}

// Enabled - 한도 적용 여부
func (l *Limiter) Enabled() bool {
	return l != nil && l.redis != nil && l.max > 0
}

// Consume - n장만큼 사용량 증가. 초과 시 ErrExceeded.
// Redis 에러는 경고만 남기고 통과시킨다.
func (l *Limiter) Consume(ctx context.Context, apiKey string, n int) (*Usage, error) {
	if !l.Enabled() || n <= 0 {
		return nil, nil
	}

	key := Key(apiKey)

	used, err := l.redis.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		log.Printf("⚠️  [Quota] Redis error, allowing request: %v", err)
		return nil, nil
	}
	// 윈도우 첫 소비에서만 만료 설정 (고정 윈도우)
	if used == int64(n) {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			log.Printf("⚠️  [Quota] Failed to set window expiry: %v", err)
		}
	}

	usage := &Usage{Used: used, Limit: l.max}
	if usage.Used > l.max {
		// 거절된 요청은 사용량에서 되돌린다
		if err := l.redis.DecrBy(ctx, key, int64(n)).Err(); err != nil {
			log.Printf("⚠️  [Quota] Failed to roll back usage: %v", err)
		}
		usage.Used -= int64(n)
		return usage, fmt.Errorf("%w: %d/%d images used, %d requested", ErrExceeded, usage.Used, usage.Limit, n)
	}

	log.Printf("📊 [Quota] %s… usage %d/%d", key[len(keyPrefix):len(keyPrefix)+6], usage.Used, usage.Limit)
	return usage, nil
}

// Refund - 생성에 실패한 요청의 사용량을 되돌린다.
// 윈도우가 그 사이 만료돼 0 이하가 되면 키를 지워 만료 없는 음수 카운터가 남지 않게 한다.
func (l *Limiter) Refund(ctx context.Context, apiKey string, n int) {
	if !l.Enabled() || n <= 0 {
		return
	}

	key := Key(apiKey)
	left, err := l.redis.DecrBy(ctx, key, int64(n)).Result()
	if err != nil {
		log.Printf("⚠️  [Quota] Failed to refund %d images: %v", n, err)
		return
	}
	if left <= 0 {
		if err := l.redis.Del(ctx, key).Err(); err != nil {
			log.Printf("⚠️  [Quota] Failed to clear usage: %v", err)
		}
	}
	log.Printf("↩️  [Quota] Refunded %d images", n)
}

// Key - API 키 원문을 저장하지 않도록 해시로 키 생성
func Key(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return keyPrefix + hex.EncodeToString(sum[:])[:16]
}
