package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // GIF 디코더 등록
	_ "image/jpeg" // JPEG 디코더 등록
	"image/png"
	"log"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
)

// PNGDataURIPrefix - 응답 이미지에 붙는 data URI 접두사
const PNGDataURIPrefix = "data:image/png;base64,"

// DecodeBase64Image - base64 이미지 문자열을 바이너리로 변환
// "data:image/xxx;base64," 같은 접두사는 첫 콤마까지 제거
func DecodeBase64Image(s string) ([]byte, error) {
	if idx := strings.Index(s, ","); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, fmt.Errorf("empty base64 image")
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// 패딩 없는 입력도 허용
		raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("failed to decode base64 image: %w", err)
		}
		data = raw
	}
	return data, nil
}

// EncodePNGDataURI - PNG 바이너리를 data URI로 변환
func EncodePNGDataURI(pngData []byte) string {
	return PNGDataURIPrefix + base64.StdEncoding.EncodeToString(pngData)
}

// DetectImageMIME - 입력 이미지 MIME 타입 (이미지가 아니면 image/png)
func DetectImageMIME(data []byte) string {
	mtype := mimetype.Detect(data)
	if strings.HasPrefix(mtype.String(), "image/") {
		return mtype.String()
	}
	return "image/png"
}

// ToPNG - 모델 응답 이미지를 알파 채널 포함 PNG로 재인코딩 (무손실)
// 바이너리 디코딩이 실패하면 base64 텍스트로 간주하고 한 번 더 시도
func ToPNG(data []byte) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		if raw, b64Err := DecodeBase64Image(string(data)); b64Err == nil {
			img, err = decodeImage(raw)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	canvas, ok := img.(*image.NRGBA)
	if !ok {
		canvas = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, alphaImage{canvas}); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	log.Printf("🔄 Image normalized to PNG: %dx%d, %d bytes → %d bytes",
		bounds.Dx(), bounds.Dy(), len(data), buf.Len())
	return buf.Bytes(), nil
}

// alphaImage - 불투명 이미지도 RGBA(color type 6)로 인코딩되도록 Opaque를 false로 고정
type alphaImage struct {
	*image.NRGBA
}

func (alphaImage) Opaque() bool { return false }

// decodeImage - WebP는 go-webp, 나머지는 image 패키지 등록 디코더 사용
func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	if mimetype.Detect(data).Is("image/webp") {
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
