package inject

import (
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/do"

	"scene-studio-server/modules/common/config"
	"scene-studio-server/modules/common/gemini"
	"scene-studio-server/modules/common/quota"
	"scene-studio-server/modules/common/redis"
	"scene-studio-server/modules/scene"
	"scene-studio-server/modules/web"
)

// Setup - 서비스 그래프 등록 (모든 서비스는 처음 Invoke될 때 생성)
func Setup(cfg *config.Config) *do.Injector {
	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Printf("🧩 [Inject] %s", fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue[*config.Config](injector, cfg)
	do.Provide[*goredis.Client](injector, func(i *do.Injector) (*goredis.Client, error) {
		return redis.Connect(do.MustInvoke[*config.Config](i)), nil
	})
	do.Provide[*quota.Limiter](injector, func(i *do.Injector) (*quota.Limiter, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return quota.NewLimiter(
			do.MustInvoke[*goredis.Client](i),
			cfg.QuotaMaxImages,
			time.Duration(cfg.QuotaWindowHours)*time.Hour,
		), nil
	})
	do.Provide[gemini.Factory](injector, func(i *do.Injector) (gemini.Factory, error) {
		return gemini.NewFactory(do.MustInvoke[*config.Config](i).GeminiBaseURL), nil
	})
	do.Provide[*scene.Service](injector, func(i *do.Injector) (*scene.Service, error) {
		return scene.NewService(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[gemini.Factory](i),
			do.MustInvoke[*quota.Limiter](i),
		), nil
	})
	do.Provide[*scene.Handler](injector, func(i *do.Injector) (*scene.Handler, error) {
		return scene.NewHandler(do.MustInvoke[*scene.Service](i)), nil
	})
	do.Provide[*web.Handler](injector, func(i *do.Injector) (*web.Handler, error) {
		return web.NewHandler(do.MustInvoke[*config.Config](i).StaticDir), nil
	})

	return injector
}

// Close - Redis 연결 정리 후 컨테이너 종료
func Close(injector *do.Injector) {
	if rdb, err := do.Invoke[*goredis.Client](injector); err == nil && rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("⚠️  Redis close failed: %v", err)
		}
	}
	if err := injector.Shutdown(); err != nil {
		log.Printf("⚠️  [Inject] Shutdown: %v", err)
	}
}
