package scene

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"scene-studio-server/modules/common/fallback"
)

const (
	// keepUnchanged - edit 지시에 항상 덧붙는 보존 문구
	keepUnchanged = "Keep everything else in the image exactly unchanged - same composition, same subjects."
	styleGuard    = "No watermarks, no text overlays, no logos. High quality output."
	checkerBG     = "Render on a transparent/checkerboard background (like Photoshop) - no solid color bg."

	connectProbePrompt = "Reply with just the word OK."
)

// BuildLayerPrompt - 레이어 종류별 고정 템플릿으로 지시문 생성
// 알 수 없는 종류(custom 포함)는 mainPrompt를 그대로 반환
func BuildLayerPrompt(kind LayerKind, main string, parts Decomposition) string {
	base := fmt.Sprintf("Scene: %s\nMood: %s\n", main, fallback.Or(parts.Mood, "neutral"))

	switch kind {
	case LayerObject:
		return base +
			"Generate ONLY the isolated main subject/object.\n" +
			"Object: " + fallback.Or(parts.Object, "infer from scene") + "\n" +
			"Lighting: " + fallback.Or(parts.Light, "neutral studio") + "\n" +
			checkerBG + "\n" + styleGuard

	case LayerLight:
		return base +
			"Generate ONLY a lighting/glow/atmosphere effects layer.\n" +
			"Lighting: " + fallback.Or(parts.Light, "cinematic volumetric light, soft bloom") + "\n" +
			"Minimal geometry - light effects only.\n" +
			checkerBG + "\n" + styleGuard

	case LayerBackground:
		return base +
			"Generate ONLY the background environment. No main subject in it.\n" +
			"Background: " + fallback.Or(parts.Background, "infer fitting background from scene") + "\n" +
			"Lighting: " + fallback.Or(parts.Light, "match the mood") + "\n" +
			styleGuard

	case LayerCombo:
		// combo는 Mood 기본값 없이 그대로 사용
		return "Render the full scene as one unified image:\n" +
			"Scene: " + main + "\n" +
			"Main object: " + fallback.Or(parts.Object, "infer") + "\n" +
			"Background: " + fallback.Or(parts.Background, "infer") + "\n" +
			"Lighting: " + fallback.Or(parts.Light, "infer") + "\n" +
			"Mood: " + parts.Mood + "\n" +
			styleGuard
	}

	return main
}

// BuildEditPrompt - 편집 지시 + 보존 문구
func BuildEditPrompt(instruction string) string {
	return instruction + "\n" + keepUnchanged
}

// BuildMergePrompt - Image 1 = 전경, Image 2 = 배경 순서로 합성 지시
func BuildMergePrompt(fgName, bgName, hint string) string {
	extra := ""
	if strings.TrimSpace(hint) != "" {
		extra = "\nExtra blending note: " + hint
	}
	return "Composite these two layers into one cohesive image:\n" +
		"  - Image 1 = FOREGROUND (top layer): " + fgName + "\n" +
		"  - Image 2 = BACKGROUND (bottom layer): " + bgName + "\n\n" +
		"Place foreground elements naturally in front of the background. " +
		"Match lighting, blend edges seamlessly. One unified final image. " +
		"No new objects added. No watermarks." + extra
}

// BuildImprovePrompt - 프롬프트 개선 요청
func BuildImprovePrompt(text, target string) string {
	return fmt.Sprintf("Improve this image editing/generation prompt for target '%s'. "+
		"Keep the intent, make it more specific and visually descriptive. "+
		"Output ONLY the improved prompt text, nothing else.\n\nPROMPT: %s", target, text)
}

// BuildDecomposePrompt - 4개 키 JSON 분해 요청
func BuildDecomposePrompt(prompt string) string {
	return "Decompose this scene prompt into JSON with keys: object, background, light, mood. " +
		"Short concrete values. No markdown, no code fences.\n\nPROMPT: " + prompt
}

var fenceOpen = regexp.MustCompile("```[a-z]*")

// ParseDecomposition - 모델 출력에서 분해 결과 파싱
// 코드 펜스는 제거하고, 파싱 실패 시 네 필드 모두 빈 문자열
func ParseDecomposition(text string) (Decomposition, bool) {
	cleaned := fenceOpen.ReplaceAllString(text, "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil || fields == nil {
		return Decomposition{}, false
	}

	return Decomposition{
		Object:     fallback.Text(fields["object"]),
		Background: fallback.Text(fields["background"]),
		Light:      fallback.Text(fields["light"]),
		Mood:       fallback.Text(fields["mood"]),
	}, true
}
