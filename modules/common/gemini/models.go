package gemini

import (
	"context"
	"log"
	"strings"

	"github.com/samber/lo"
)

// ModelPair - 탐지된 이미지/텍스트 모델
// Fallback은 목록 조회 실패 또는 선호 모델 부재로 기본값을 쓴 경우 true
type ModelPair struct {
	ImageModel string
	TextModel  string
	Fallback   bool
}

// DetectModels - 선호 목록 중 키로 사용 가능한 첫 모델을 고른다.
// 목록 조회가 실패하면 각 선호 목록의 첫 항목으로 대체한다.
func DetectModels(ctx context.Context, client Client, imagePrefs, textPrefs []string) ModelPair {
	fallback := ModelPair{
		ImageModel: firstOrEmpty(imagePrefs),
		TextModel:  firstOrEmpty(textPrefs),
		Fallback:   true,
	}

	names, err := client.ListModels(ctx)
	if err != nil {
		log.Printf("⚠️  [Gemini] Model discovery failed, using defaults %s / %s: %v",
			fallback.ImageModel, fallback.TextModel, err)
		return fallback
	}

	// "models/gemini-2.0-flash" -> "gemini-2.0-flash"
	available := lo.Map(names, func(name string, _ int) string {
		return name[strings.LastIndex(name, "/")+1:]
	})

	image, imageFound := lo.Find(imagePrefs, func(m string) bool { return lo.Contains(available, m) })
	text, textFound := lo.Find(textPrefs, func(m string) bool { return lo.Contains(available, m) })

	pair := ModelPair{
		ImageModel: lo.Ternary(imageFound, image, fallback.ImageModel),
		TextModel:  lo.Ternary(textFound, text, fallback.TextModel),
		Fallback:   !imageFound || !textFound,
	}

	log.Printf("🔍 [Gemini] Discovered %d models -> image: %s, text: %s (fallback: %v)",
		len(available), pair.ImageModel, pair.TextModel, pair.Fallback)
	return pair
}

func firstOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
