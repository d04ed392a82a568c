package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Client - 원격 생성 서비스 호출 인터페이스
// genai.Client를 감싸며, 테스트에서는 fake로 대체한다.
type Client interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Factory - 호출자의 API 키로 Client 생성
type Factory func(ctx context.Context, apiKey string) (Client, error)

const listPageSize = 100

type genaiClient struct {
	client *genai.Client
}

// NewFactory - Gemini API 백엔드용 Factory (baseURL은 선택)
func NewFactory(baseURL string) Factory {
	return func(ctx context.Context, apiKey string) (Client, error) {
		// 빈 키면 genai가 서버 환경변수(GOOGLE_API_KEY)를 집어가므로 막는다
		if strings.TrimSpace(apiKey) == "" {
			return nil, fmt.Errorf("API key is required")
		}

		cc := &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
		}

		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("failed to create Genai client: %w", err)
		}
		return &genaiClient{client: client}, nil
	}
}

func (c *genaiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// ListModels - 키로 접근 가능한 모델 이름 전체 (페이지 순회)
func (c *genaiClient) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: listPageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var names []string
	for {
		for _, m := range page.Items {
			if m != nil && m.Name != "" {
				names = append(names, m.Name)
			}
		}
		if page.NextPageToken == "" {
			break
		}
		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
	}
	return names, nil
}
