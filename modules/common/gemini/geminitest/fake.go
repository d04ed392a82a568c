// Package geminitest provides an in-memory gemini.Client for tests.
package geminitest

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"scene-studio-server/modules/common/gemini"
)

// Call - GenerateContent 호출 기록
type Call struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// Texts - 호출 내용의 텍스트 파트 목록
func (c Call) Texts() []string {
	var out []string
	for _, content := range c.Contents {
		for _, part := range content.Parts {
			if part.Text != "" {
				out = append(out, part.Text)
			}
		}
	}
	return out
}

// Blobs - 호출 내용의 inline 데이터 파트 목록
func (c Call) Blobs() []*genai.Blob {
	var out []*genai.Blob
	for _, content := range c.Contents {
		for _, part := range content.Parts {
			if part.InlineData != nil {
				out = append(out, part.InlineData)
			}
		}
	}
	return out
}

// Client - 호출을 기록하고 Generate 함수로 응답하는 fake
type Client struct {
	mu    sync.Mutex
	calls []Call

	Generate func(call int, c Call) (*genai.GenerateContentResponse, error)
	Models   []string
	ListErr  error
}

var _ gemini.Client = (*Client)(nil)

func (f *Client) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := Call{Model: model, Contents: contents, Config: config}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	n := len(f.calls) - 1
	gen := f.Generate
	f.mu.Unlock()
	if gen == nil {
		return nil, fmt.Errorf("geminitest.Client.Generate not configured")
	}
	return gen(n, c)
}

func (f *Client) ListModels(ctx context.Context) ([]string, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Models, nil
}

// Calls - 기록된 호출 복사본
func (f *Client) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Factory - 항상 이 fake를 돌려주는 gemini.Factory (빈 키는 거부)
func (f *Client) Factory() gemini.Factory {
	return func(ctx context.Context, apiKey string) (gemini.Client, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("API key is required")
		}
		return f, nil
	}
}

// TextResponse - 텍스트 한 파트짜리 응답
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

// ImageResponse - (선택적) 텍스트 + 이미지 파트 응답
func ImageResponse(text string, data []byte, mimeType string) *genai.GenerateContentResponse {
	var parts []*genai.Part
	if text != "" {
		parts = append(parts, &genai.Part{Text: text})
	}
	parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}})
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: parts},
		}},
	}
}
