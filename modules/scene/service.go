package scene

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"scene-studio-server/modules/common/config"
	"scene-studio-server/modules/common/gemini"
	"scene-studio-server/modules/common/quota"
	"scene-studio-server/modules/common/reqid"
	"scene-studio-server/modules/common/utils"
)

const (
	// excerptLimit - 이미지 없음 에러에 포함할 응답 텍스트 최대 길이
	excerptLimit = 300

	improveTemperature   = 0.35
	decomposeTemperature = 0.2
	probeMaxTokens       = 5
)

type Service struct {
	newClient   gemini.Factory
	imagePrefs  []string
	textPrefs   []string
	maxAttempts int
	parallel    bool
	quota       *quota.Limiter
}

func NewService(cfg *config.Config, factory gemini.Factory, limiter *quota.Limiter) *Service {
	log.Printf("✅ [Scene] Service initialized (parallel layers: %v, quota: %v)",
		cfg.GenerateAllParallel, limiter.Enabled())
	return &Service{
		newClient:   factory,
		imagePrefs:  cfg.ImageModels,
		textPrefs:   cfg.TextModels,
		maxAttempts: cfg.GeminiMaxAttempts,
		parallel:    cfg.GenerateAllParallel,
		quota:       limiter,
	}
}

// Connect - 키 검증 + 사용 가능한 모델 탐지
func (s *Service) Connect(ctx context.Context, req *ConnectRequest) (*ConnectResponse, error) {
	client, err := s.newClient(ctx, req.APIKey)
	if err != nil {
		return nil, &Error{Kind: KindAuthentication, Err: err}
	}

	pair := gemini.DetectModels(ctx, client, s.imagePrefs, s.textPrefs)

	// 짧은 텍스트 호출로 키 확인
	_, err = gemini.GenerateContentWithRetry(ctx, client, pair.TextModel,
		genai.Text(connectProbePrompt),
		&genai.GenerateContentConfig{MaxOutputTokens: probeMaxTokens},
		s.maxAttempts)
	if err != nil {
		log.Printf("❌ [Scene] %s Key verification failed on %s: %v", reqid.FromContext(ctx), pair.TextModel, err)
		return nil, &Error{Kind: KindAuthentication, Err: err}
	}

	log.Printf("✅ [Scene] %s Connected - image: %s, text: %s (fallback: %v)",
		reqid.FromContext(ctx), pair.ImageModel, pair.TextModel, pair.Fallback)
	return &ConnectResponse{
		ImageModel: pair.ImageModel,
		TextModel:  pair.TextModel,
		Fallback:   pair.Fallback,
	}, nil
}

// GenerateLayer - 단일 레이어 이미지 생성
func (s *Service) GenerateLayer(ctx context.Context, req *GenerateLayerRequest) (resp *ImageResponse, err error) {
	client, err := s.prepare(ctx, req.APIKey, 1)
	if err != nil {
		return nil, err
	}
	defer s.refundOnFailure(ctx, req.APIKey, 1, &err)

	var prompt string
	switch req.LayerType {
	case LayerCustom:
		prompt = req.CustomPrompt
	case LayerObject, LayerBackground, LayerLight, LayerCombo:
		prompt = BuildLayerPrompt(req.LayerType, req.MainPrompt, Decomposition{
			Object:     req.ObjectPrompt,
			Background: req.BackgroundPrompt,
			Light:      req.LightPrompt,
			Mood:       req.MoodPrompt,
		})
	default:
		log.Printf("⚠️  [Scene] %s Unknown layer type %q, using main prompt", reqid.FromContext(ctx), req.LayerType)
		prompt = BuildLayerPrompt(req.LayerType, req.MainPrompt, Decomposition{})
	}

	log.Printf("🎨 [Scene] %s Generating %s layer with %s: %s",
		reqid.FromContext(ctx), req.LayerType, req.ImageModel, truncateString(prompt, 50))

	image, err := s.generateImage(ctx, client, req.ImageModel, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	return &ImageResponse{Image: image}, nil
}

// GenerateAll - 분해(필요 시) 후 4개 레이어 생성. 한 레이어라도 실패하면 전체 실패.
func (s *Service) GenerateAll(ctx context.Context, req *GenerateAllRequest) (resp *GenerateAllResponse, err error) {
	client, err := s.prepare(ctx, req.APIKey, len(SceneLayers))
	if err != nil {
		return nil, err
	}
	defer s.refundOnFailure(ctx, req.APIKey, len(SceneLayers), &err)

	var parts Decomposition
	if req.ObjectPrompt == "" && req.BackgroundPrompt == "" {
		log.Printf("🧩 [Scene] %s Sub-prompts empty, decomposing main prompt", reqid.FromContext(ctx))
		parts, err = s.decompose(ctx, client, req.TextModel, req.MainPrompt)
		if err != nil {
			return nil, err
		}
	} else {
		parts = Decomposition{
			Object:     req.ObjectPrompt,
			Background: req.BackgroundPrompt,
			Light:      req.LightPrompt,
			Mood:       req.MoodPrompt,
		}
	}

	images := make([]string, len(SceneLayers))
	render := func(ctx context.Context, i int) error {
		kind := SceneLayers[i]
		prompt := BuildLayerPrompt(kind, req.MainPrompt, parts)
		log.Printf("🎨 [Scene] %s Generating %s layer (%d/%d)", reqid.FromContext(ctx), kind, i+1, len(SceneLayers))
		image, err := s.generateImage(ctx, client, req.ImageModel, genai.Text(prompt))
		if err != nil {
			log.Printf("❌ [Scene] %s %s layer failed: %v", reqid.FromContext(ctx), kind, err)
			return err
		}
		images[i] = image
		return nil
	}

	if s.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i := range SceneLayers {
			i := i
			g.Go(func() error { return render(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range SceneLayers {
			if err := render(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	resp = &GenerateAllResponse{Decomposed: parts}
	for i, kind := range SceneLayers {
		resp.Layers.set(kind, images[i])
	}

	log.Printf("✅ [Scene] %s Generated %d layers", reqid.FromContext(ctx), len(SceneLayers))
	return resp, nil
}

// Edit - 원본 이미지 + 지시문으로 편집
func (s *Service) Edit(ctx context.Context, req *EditRequest) (resp *ImageResponse, err error) {
	client, err := s.prepare(ctx, req.APIKey, 1)
	if err != nil {
		return nil, err
	}
	defer s.refundOnFailure(ctx, req.APIKey, 1, &err)

	source, err := imagePart(req.Image, "image")
	if err != nil {
		return nil, err
	}

	log.Printf("✏️  [Scene] %s Editing image (%d bytes) with %s: %s",
		reqid.FromContext(ctx), len(source.InlineData.Data), req.ImageModel, truncateString(req.Instruction, 50))

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		source,
		genai.NewPartFromText(BuildEditPrompt(req.Instruction)),
	}, genai.RoleUser)}

	image, err := s.generateImage(ctx, client, req.ImageModel, contents)
	if err != nil {
		return nil, err
	}
	return &ImageResponse{Image: image}, nil
}

// Merge - 전경/배경 이미지를 하나로 합성
func (s *Service) Merge(ctx context.Context, req *MergeRequest) (resp *ImageResponse, err error) {
	client, err := s.prepare(ctx, req.APIKey, 1)
	if err != nil {
		return nil, err
	}
	defer s.refundOnFailure(ctx, req.APIKey, 1, &err)

	fg, err := imagePart(req.FgImage, "fgImage")
	if err != nil {
		return nil, err
	}
	bg, err := imagePart(req.BgImage, "bgImage")
	if err != nil {
		return nil, err
	}

	log.Printf("🧬 [Scene] %s Merging %q over %q with %s",
		reqid.FromContext(ctx), req.FgName, req.BgName, req.ImageModel)

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		fg,
		bg,
		genai.NewPartFromText(BuildMergePrompt(req.FgName, req.BgName, req.Hint)),
	}, genai.RoleUser)}

	image, err := s.generateImage(ctx, client, req.ImageModel, contents)
	if err != nil {
		return nil, err
	}
	return &ImageResponse{Image: image}, nil
}

// Improve - 텍스트 모델로 프롬프트 개선 (trim 외 후처리 없음)
func (s *Service) Improve(ctx context.Context, req *ImproveRequest) (*TextResponse, error) {
	client, err := s.prepare(ctx, req.APIKey, 0)
	if err != nil {
		return nil, err
	}

	resp, err := gemini.GenerateContentWithRetry(ctx, client, req.TextModel,
		genai.Text(BuildImprovePrompt(req.Text, req.Target)),
		&genai.GenerateContentConfig{Temperature: floatPtr(improveTemperature)},
		s.maxAttempts)
	if err != nil {
		return nil, classify(err, KindGeneration)
	}

	return &TextResponse{Text: strings.TrimSpace(gemini.ResponseText(resp))}, nil
}

// Decompose - 장면 설명을 object/background/light/mood로 분해
func (s *Service) Decompose(ctx context.Context, req *DecomposeRequest) (*Decomposition, error) {
	client, err := s.prepare(ctx, req.APIKey, 0)
	if err != nil {
		return nil, err
	}

	parts, err := s.decompose(ctx, client, req.TextModel, req.MainPrompt)
	if err != nil {
		return nil, err
	}
	return &parts, nil
}

// prepare - 클라이언트 생성 + 이미지 한도 차감
func (s *Service) prepare(ctx context.Context, apiKey string, images int) (gemini.Client, error) {
	client, err := s.newClient(ctx, apiKey)
	if err != nil {
		return nil, classify(err, KindGeneration)
	}
	if _, err := s.quota.Consume(ctx, apiKey, images); err != nil {
		log.Printf("⛔ [Scene] %s %v", reqid.FromContext(ctx), err)
		return nil, classify(err, KindQuotaExceeded)
	}
	return client, nil
}

// refundOnFailure - 생성이 실패하면 prepare에서 차감한 한도를 돌려준다
func (s *Service) refundOnFailure(ctx context.Context, apiKey string, images int, err *error) {
	if *err == nil {
		return
	}
	s.quota.Refund(context.WithoutCancel(ctx), apiKey, images)
}

func (s *Service) decompose(ctx context.Context, client gemini.Client, model, prompt string) (Decomposition, error) {
	resp, err := gemini.GenerateContentWithRetry(ctx, client, model,
		genai.Text(BuildDecomposePrompt(prompt)),
		&genai.GenerateContentConfig{Temperature: floatPtr(decomposeTemperature)},
		s.maxAttempts)
	if err != nil {
		return Decomposition{}, classify(err, KindGeneration)
	}

	parts, ok := ParseDecomposition(gemini.ResponseText(resp))
	if !ok {
		log.Printf("⚠️  [Scene] %s Decomposition not parseable, using empty attributes", reqid.FromContext(ctx))
	}
	return parts, nil
}

// generateImage - 이미지 모델 호출 후 첫 이미지 파트를 PNG data URI로 변환
func (s *Service) generateImage(ctx context.Context, client gemini.Client, model string, contents []*genai.Content) (string, error) {
	resp, err := gemini.GenerateContentWithRetry(ctx, client, model, contents,
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
		s.maxAttempts)
	if err != nil {
		return "", classify(err, KindGeneration)
	}

	data, ok := gemini.FirstInlineData(resp)
	if !ok {
		excerpt := gemini.ResponseText(resp)
		if runes := []rune(excerpt); len(runes) > excerptLimit {
			excerpt = string(runes[:excerptLimit])
		}
		return "", newError(KindGeneration, "No image in response from [%s]. Got: %s", model, excerpt)
	}

	pngData, err := utils.ToPNG(data)
	if err != nil {
		return "", newError(KindGeneration, "invalid image in response from [%s]: %w", model, err)
	}

	log.Printf("✅ [Scene] %s Received image from %s: %d bytes", reqid.FromContext(ctx), model, len(pngData))
	return utils.EncodePNGDataURI(pngData), nil
}

// imagePart - base64 입력 이미지를 inline 파트로 변환
func imagePart(b64, field string) (*genai.Part, error) {
	data, err := utils.DecodeBase64Image(b64)
	if err != nil {
		return nil, newError(KindGeneration, "%s: %w", field, err)
	}
	return genai.NewPartFromBytes(data, utils.DetectImageMIME(data)), nil
}

// Helper functions
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

func floatPtr(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
