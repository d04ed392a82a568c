package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// retryDelay - 429 재시도 간격 (테스트에서 줄임)
var retryDelay = 2 * time.Second

// GenerateContentWithRetry - 429 에러 시 같은 클라이언트로 재시도하는 헬퍼 함수
// maxAttempts: 총 시도 횟수 (1이면 재시도 없음)
// 429가 아닌 에러는 바로 반환
func GenerateContentWithRetry(
	ctx context.Context,
	client Client,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	maxAttempts int,
) (*genai.GenerateContentResponse, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("   🔄 [Gemini Retry] Attempt %d/%d for %s", attempt, maxAttempts, model)
		}

		result, err := client.GenerateContent(ctx, model, contents, config)
		if err == nil {
			if attempt > 1 {
				log.Printf("✅ [Gemini Retry] Success on attempt %d/%d", attempt, maxAttempts)
			}
			return result, nil
		}
		lastErr = err

		// 429가 아닌 다른 에러면 바로 반환 (재시도 안 함)
		if !is429Error(err) || attempt == maxAttempts {
			break
		}

		log.Printf("⚠️  [Gemini Retry] %s hit rate limit (429) on attempt %d/%d, waiting %v",
			model, attempt, maxAttempts, retryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	if maxAttempts > 1 && is429Error(lastErr) {
		return nil, fmt.Errorf("rate limited after %d attempts: %w", maxAttempts, lastErr)
	}
	return nil, lastErr
}

// is429Error - 429 Rate Limit 에러인지 확인
func is429Error(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "resource_exhausted")
}
