package scene

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"scene-studio-server/modules/common/reqid"
)

// maxBodyBytes - 요청 본문 상한 (base64 이미지 2장 기준)
const maxBodyBytes = 64 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - 라우터에 Scene 엔드포인트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/connect", h.Connect).Methods("POST", "OPTIONS")
	api.HandleFunc("/generate-layer", h.GenerateLayer).Methods("POST", "OPTIONS")
	api.HandleFunc("/generate-all", h.GenerateAll).Methods("POST", "OPTIONS")
	api.HandleFunc("/edit", h.Edit).Methods("POST", "OPTIONS")
	api.HandleFunc("/merge", h.Merge).Methods("POST", "OPTIONS")
	api.HandleFunc("/improve", h.Improve).Methods("POST", "OPTIONS")
	api.HandleFunc("/decompose", h.Decompose).Methods("POST", "OPTIONS")
	log.Println("✅ Scene routes registered: /api/{connect,generate-layer,generate-all,edit,merge,improve,decompose}")
}

// Connect - POST /api/connect
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	serve(w, r, &req, h.service.Connect)
}

// GenerateLayer - POST /api/generate-layer
func (h *Handler) GenerateLayer(w http.ResponseWriter, r *http.Request) {
	var req GenerateLayerRequest
	serve(w, r, &req, h.service.GenerateLayer)
}

// GenerateAll - POST /api/generate-all
func (h *Handler) GenerateAll(w http.ResponseWriter, r *http.Request) {
	var req GenerateAllRequest
	serve(w, r, &req, h.service.GenerateAll)
}

// Edit - POST /api/edit
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	serve(w, r, &req, h.service.Edit)
}

// Merge - POST /api/merge
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	serve(w, r, &req, h.service.Merge)
}

// Improve - POST /api/improve
func (h *Handler) Improve(w http.ResponseWriter, r *http.Request) {
	var req ImproveRequest
	serve(w, r, &req, h.service.Improve)
}

// Decompose - POST /api/decompose
func (h *Handler) Decompose(w http.ResponseWriter, r *http.Request) {
	var req DecomposeRequest
	serve(w, r, &req, h.service.Decompose)
}

type validator interface {
	Validate() error
}

// serve - 요청 파싱 → 검증 → 서비스 호출 → JSON 응답 (모든 엔드포인트 공통)
func serve[Req validator, Resp any](w http.ResponseWriter, r *http.Request, req Req, call func(context.Context, Req) (*Resp, error)) {
	w.Header().Set("Content-Type", "application/json")

	// OPTIONS 요청 처리 (CORS preflight)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req); err != nil {
		log.Printf("❌ [Scene] %s Failed to parse request %s: %v", reqid.FromContext(r.Context()), r.URL.Path, err)
		writeError(w, r, newError(KindInvalidRequest, "Invalid request format: %v", err))
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := call(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("⚠️  [Scene] %s Failed to write response: %v", reqid.FromContext(r.Context()), err)
	}
}

// writeError - {"detail": "..."} 형태의 에러 응답
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	log.Printf("❌ [Scene] %s %s → %d: %v", reqid.FromContext(r.Context()), r.URL.Path, status, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"detail": err.Error(),
	})
}
