package scene

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"google.golang.org/genai"

	"scene-studio-server/modules/common/gemini/geminitest"
)

func newTestRouter(fake *geminitest.Client) *mux.Router {
	r := mux.NewRouter()
	NewHandler(newTestService(fake, false)).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body not json: %q", rec.Body.String())
	}
	return body["detail"]
}

func TestHandler_MergeEndToEnd(t *testing.T) {
	fg := testPNG(t, color.NRGBA{R: 255, A: 255})
	bg := testPNG(t, color.NRGBA{B: 255, A: 255})
	merged := testPNG(t, color.NRGBA{R: 128, B: 128, A: 255})
	fake := &geminitest.Client{
		Generate: func(call int, c geminitest.Call) (*genai.GenerateContentResponse, error) {
			return geminitest.ImageResponse("Here is the merged image.", merged, "image/png"), nil
		},
	}
	router := newTestRouter(fake)

	rec := doJSON(t, router, http.MethodPost, "/api/merge", map[string]string{
		"apiKey":     testKey,
		"imageModel": testImageModel,
		"fgImage":    base64.StdEncoding.EncodeToString(fg),
		"bgImage":    base64.StdEncoding.EncodeToString(bg),
		"fgName":     "cat",
		"bgName":     "sunset beach",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	var resp ImageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	img := decodeDataURI(t, resp.Image)
	if got := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA); got != (color.NRGBA{R: 128, B: 128, A: 255}) {
		t.Fatalf("pixel=%v", got)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls=%d", len(calls))
	}
	blobs := calls[0].Blobs()
	if len(blobs) != 2 || !bytes.Equal(blobs[0].Data, fg) || !bytes.Equal(blobs[1].Data, bg) {
		t.Fatalf("merge inputs out of order")
	}
	text := calls[0].Texts()[0]
	if !strings.Contains(text, "FOREGROUND (top layer): cat") || !strings.Contains(text, "BACKGROUND (bottom layer): sunset beach") {
		t.Fatalf("instruction=%q", text)
	}
}

func TestHandler_MissingFields(t *testing.T) {
	fake := &geminitest.Client{}
	router := newTestRouter(fake)

	rec := doJSON(t, router, http.MethodPost, "/api/edit", map[string]string{
		"apiKey": testKey,
		"image":  "abc",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if d := detailOf(t, rec); d != "Missing required fields: imageModel, instruction" {
		t.Fatalf("detail=%q", d)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("remote should not be called")
	}
}

func TestHandler_InvalidJSON(t *testing.T) {
	router := newTestRouter(&geminitest.Client{})

	rec := doJSON(t, router, http.MethodPost, "/api/decompose", `{"apiKey": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if d := detailOf(t, rec); !strings.HasPrefix(d, "Invalid request format") {
		t.Fatalf("detail=%q", d)
	}
}

func TestHandler_Options(t *testing.T) {
	router := newTestRouter(&geminitest.Client{})

	for _, path := range []string{"/api/connect", "/api/generate-layer", "/api/generate-all", "/api/edit", "/api/merge", "/api/improve", "/api/decompose"} {
		rec := doJSON(t, router, http.MethodOptions, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(&geminitest.Client{})

	rec := doJSON(t, router, http.MethodGet, "/api/connect", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_ConnectFailureIs400(t *testing.T) {
	fake := &geminitest.Client{
		ListErr: errors.New("Error 400, API key not valid"),
		Generate: func(call int, c geminitest.Call) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("Error 400, API key not valid")
		},
	}
	router := newTestRouter(fake)

	rec := doJSON(t, router, http.MethodPost, "/api/connect", map[string]string{"apiKey": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if d := detailOf(t, rec); !strings.Contains(d, "API key not valid") {
		t.Fatalf("detail=%q", d)
	}
}

func TestHandler_ConnectSuccess(t *testing.T) {
	fake := &geminitest.Client{
		Models: []string{"models/gemini-2.5-flash-image", "models/gemini-2.0-flash"},
		Generate: func(call int, c geminitest.Call) (*genai.GenerateContentResponse, error) {
			return geminitest.TextResponse("OK"), nil
		},
	}
	router := newTestRouter(fake)

	rec := doJSON(t, router, http.MethodPost, "/api/connect", map[string]string{"apiKey": testKey})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp ConnectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := ConnectResponse{ImageModel: "gemini-2.5-flash-image", TextModel: "gemini-2.0-flash"}
	if resp != want {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestHandler_GenerationFailureIs500(t *testing.T) {
	fake := &geminitest.Client{
		Generate: func(call int, c geminitest.Call) (*genai.GenerateContentResponse, error) {
			return geminitest.TextResponse("I can't draw that."), nil
		},
	}
	router := newTestRouter(fake)

	rec := doJSON(t, router, http.MethodPost, "/api/generate-layer", map[string]string{
		"apiKey": testKey, "imageModel": testImageModel, "textModel": testTextModel,
		"layerType": "object", "mainPrompt": "a fox",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if d := detailOf(t, rec); d != "No image in response from ["+testImageModel+"]. Got: I can't draw that." {
		t.Fatalf("detail=%q", d)
	}
}

func TestHandler_Improve(t *testing.T) {
	fake := &geminitest.Client{
		Generate: func(call int, c geminitest.Call) (*genai.GenerateContentResponse, error) {
			return geminitest.TextResponse("  better prompt \n"), nil
		},
	}
	router := newTestRouter(fake)

	rec := doJSON(t, router, http.MethodPost, "/api/improve", map[string]string{
		"apiKey": testKey, "textModel": testTextModel, "text": "prompt", "target": "light",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp TextResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Text != "better prompt" {
		t.Fatalf("text=%q", resp.Text)
	}
}
