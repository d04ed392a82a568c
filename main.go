package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/do"

	"scene-studio-server/modules/common/config"
	"scene-studio-server/modules/common/reqid"
	"scene-studio-server/modules/inject"
	"scene-studio-server/modules/scene"
	"scene-studio-server/modules/web"
)

// 서버 메트릭
type ServerMetrics struct {
	TotalRequests  int            `json:"totalRequests"`
	ActiveRequests int            `json:"activeRequests"`
	Errors         int            `json:"errors"`
	ByPath         map[string]int `json:"byPath"`
	StartTime      time.Time      `json:"startTime"`
	mutex          sync.RWMutex
}

func newServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		ByPath:    make(map[string]int),
		StartTime: time.Now(),
	}
}

const unmatchedPath = "(unmatched)"

// statusRecorder - 응답 상태 코드 기록
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// track - 요청 수/에러 수 집계 + 요청 로그
func (m *ServerMetrics) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.mutex.Lock()
		m.TotalRequests++
		m.ActiveRequests++
		m.mutex.Unlock()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// 매칭되지 않은 경로는 한 항목으로 묶는다
		path := r.URL.Path
		if rec.status == http.StatusNotFound {
			path = unmatchedPath
		}

		m.mutex.Lock()
		m.ActiveRequests--
		m.ByPath[path]++
		if rec.status >= 400 {
			m.Errors++
		}
		m.mutex.Unlock()

		if r.Method != http.MethodOptions {
			log.Printf("📨 %s %s %s → %d (%v)", reqid.FromContext(r.Context()), r.Method, r.URL.Path,
				rec.status, time.Since(start).Round(time.Millisecond))
		}
	})
}

// 메트릭 조회 엔드포인트
func (m *ServerMetrics) handle(w http.ResponseWriter, r *http.Request) {
	m.mutex.RLock()
	byPath := make(map[string]int, len(m.ByPath))
	for path, count := range m.ByPath {
		byPath[path] = count
	}
	response := map[string]interface{}{
		"totalRequests":  m.TotalRequests,
		"activeRequests": m.ActiveRequests,
		"errors":         m.Errors,
		"byPath":         byPath,
		"startTime":      m.StartTime,
		"uptime":         time.Since(m.StartTime).String(),
	}
	m.mutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+reqid.Header)
		w.Header().Set("Access-Control-Expose-Headers", reqid.Header)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "scene-studio",
	})
}

// newRouter - 전체 라우트 구성. 미들웨어는 라우터 바깥을 감싸 404/405 응답에도 적용된다.
func newRouter(injector *do.Injector, metrics *ServerMetrics) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/metrics", metrics.handle).Methods("GET")

	do.MustInvoke[*scene.Handler](injector).RegisterRoutes(r)
	do.MustInvoke[*web.Handler](injector).RegisterRoutes(r)

	return reqid.Middleware(metrics.track(enableCORS(r)))
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	injector := inject.Setup(cfg)
	defer inject.Close(injector)

	// 라우터 설정
	r := newRouter(injector, newServerMetrics())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("🚀 Scene Studio Server starting on port %s", cfg.Port)
	log.Printf("🖼️  Studio: http://localhost:%s/", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📊 Metrics: http://localhost:%s/metrics", cfg.Port)

	// 서버 시작
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("❌ Server failed to start: %v", err)
			return
		}
	case <-ctx.Done():
		log.Println("🛑 Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Graceful shutdown failed: %v", err)
	}
	log.Println("👋 Server stopped")
}
