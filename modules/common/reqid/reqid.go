package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header - 요청 ID 헤더
const Header = "X-Request-ID"

type contextKey struct{}

// Middleware - 요청마다 ID를 부여 (클라이언트가 보낸 값이 있으면 재사용)
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}

func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext - 요청 ID (없으면 "-")
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok && id != "" {
		return id
	}
	return "-"
}
