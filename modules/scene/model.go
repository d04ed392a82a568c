package scene

import "strings"

// LayerKind - 레이어 종류 (프롬프트 템플릿 선택용)
type LayerKind string

const (
	LayerObject     LayerKind = "object"
	LayerBackground LayerKind = "background"
	LayerLight      LayerKind = "light"
	LayerCombo      LayerKind = "combo"
	LayerCustom     LayerKind = "custom"
)

// SceneLayers - generate-all 생성 순서
var SceneLayers = []LayerKind{LayerObject, LayerBackground, LayerLight, LayerCombo}

// ConnectRequest - POST /api/connect
type ConnectRequest struct {
	APIKey string `json:"apiKey"`
}

// ConnectResponse - Fallback은 모델 탐지 대신 기본 모델을 쓴 경우 true
type ConnectResponse struct {
	ImageModel string `json:"imageModel"`
	TextModel  string `json:"textModel"`
	Fallback   bool   `json:"fallback"`
}

// GenerateLayerRequest - POST /api/generate-layer
type GenerateLayerRequest struct {
	APIKey           string    `json:"apiKey"`
	ImageModel       string    `json:"imageModel"`
	TextModel        string    `json:"textModel"`
	LayerType        LayerKind `json:"layerType"` // object | background | light | combo | custom
	MainPrompt       string    `json:"mainPrompt"`
	ObjectPrompt     string    `json:"objectPrompt"`
	BackgroundPrompt string    `json:"backgroundPrompt"`
	LightPrompt      string    `json:"lightPrompt"`
	MoodPrompt       string    `json:"moodPrompt"`
	CustomPrompt     string    `json:"customPrompt"`
}

// GenerateAllRequest - POST /api/generate-all
type GenerateAllRequest struct {
	APIKey           string `json:"apiKey"`
	ImageModel       string `json:"imageModel"`
	TextModel        string `json:"textModel"`
	MainPrompt       string `json:"mainPrompt"`
	ObjectPrompt     string `json:"objectPrompt"`
	BackgroundPrompt string `json:"backgroundPrompt"`
	LightPrompt      string `json:"lightPrompt"`
	MoodPrompt       string `json:"moodPrompt"`
}

// EditRequest - POST /api/edit
type EditRequest struct {
	APIKey      string `json:"apiKey"`
	ImageModel  string `json:"imageModel"`
	Image       string `json:"image"` // base64 (data URI 허용)
	Instruction string `json:"instruction"`
}

// MergeRequest - POST /api/merge
type MergeRequest struct {
	APIKey     string `json:"apiKey"`
	ImageModel string `json:"imageModel"`
	FgImage    string `json:"fgImage"` // 전경 base64
	BgImage    string `json:"bgImage"` // 배경 base64
	FgName     string `json:"fgName"`
	BgName     string `json:"bgName"`
	Hint       string `json:"hint"`
}

// ImproveRequest - POST /api/improve
type ImproveRequest struct {
	APIKey    string `json:"apiKey"`
	TextModel string `json:"textModel"`
	Text      string `json:"text"`
	Target    string `json:"target"`
}

// DecomposeRequest - POST /api/decompose
type DecomposeRequest struct {
	APIKey     string `json:"apiKey"`
	TextModel  string `json:"textModel"`
	MainPrompt string `json:"mainPrompt"`
}

// ImageResponse - 단일 이미지 응답 (data:image/png;base64,...)
type ImageResponse struct {
	Image string `json:"image"`
}

// TextResponse - 텍스트 응답
type TextResponse struct {
	Text string `json:"text"`
}

// Decomposition - 장면 분해 결과
type Decomposition struct {
	Object     string `json:"object"`
	Background string `json:"background"`
	Light      string `json:"light"`
	Mood       string `json:"mood"`
}

// Layers - generate-all 결과 이미지
type Layers struct {
	Object     string `json:"object"`
	Background string `json:"background"`
	Light      string `json:"light"`
	Combo      string `json:"combo"`
}

func (l *Layers) set(kind LayerKind, image string) {
	switch kind {
	case LayerObject:
		l.Object = image
	case LayerBackground:
		l.Background = image
	case LayerLight:
		l.Light = image
	case LayerCombo:
		l.Combo = image
	}
}

// GenerateAllResponse - POST /api/generate-all 응답
type GenerateAllResponse struct {
	Layers     Layers        `json:"layers"`
	Decomposed Decomposition `json:"decomposed"`
}

// 요청 검증 - 필수 필드 존재 여부만 확인

func (r *ConnectRequest) Validate() error {
	return requireFields("apiKey", r.APIKey)
}

func (r *GenerateLayerRequest) Validate() error {
	return requireFields(
		"apiKey", r.APIKey,
		"imageModel", r.ImageModel,
		"textModel", r.TextModel,
		"layerType", string(r.LayerType),
	)
}

func (r *GenerateAllRequest) Validate() error {
	return requireFields(
		"apiKey", r.APIKey,
		"imageModel", r.ImageModel,
		"textModel", r.TextModel,
		"mainPrompt", r.MainPrompt,
	)
}

func (r *EditRequest) Validate() error {
	return requireFields(
		"apiKey", r.APIKey,
		"imageModel", r.ImageModel,
		"image", r.Image,
		"instruction", r.Instruction,
	)
}

func (r *MergeRequest) Validate() error {
	return requireFields(
		"apiKey", r.APIKey,
		"imageModel", r.ImageModel,
		"fgImage", r.FgImage,
		"bgImage", r.BgImage,
		"fgName", r.FgName,
		"bgName", r.BgName,
	)
}

func (r *ImproveRequest) Validate() error {
	return requireFields(
		"apiKey", r.APIKey,
		"textModel", r.TextModel,
		"text", r.Text,
		"target", r.Target,
	)
}

func (r *DecomposeRequest) Validate() error {
	return requireFields(
		"apiKey", r.APIKey,
		"textModel", r.TextModel,
		"mainPrompt", r.MainPrompt,
	)
}

// requireFields - name, value 쌍 목록에서 빈 값을 모아 InvalidRequest 에러로 반환
func requireFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return newError(KindInvalidRequest, "Missing required fields: %s", strings.Join(missing, ", "))
}
