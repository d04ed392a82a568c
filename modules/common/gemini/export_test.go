package gemini

import (
	"testing"
	"time"
)

func SetRetryDelayForTest(t *testing.T, d time.Duration) {
	prev := retryDelay
	retryDelay = d
	t.Cleanup(func() { retryDelay = prev })
}
