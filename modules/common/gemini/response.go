package gemini

import (
	"strings"

	"google.golang.org/genai"
)

// ResponseText - 첫 candidate의 텍스트 파트를 이어붙인 결과 (thought 파트 제외)
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
		return sb.String()
	}
	return ""
}

// FirstInlineData - 모든 candidate/part를 순서대로 훑어 첫 inline 데이터를 반환
func FirstInlineData(resp *genai.GenerateContentResponse) ([]byte, bool) {
	if resp == nil {
		return nil, false
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			// InlineData 확인 (이미지는 InlineData로 반환됨)
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, true
			}
		}
	}
	return nil, false
}
