// Package api 是推荐服务的 HTTP 接入层（chi 路由）。
//
// 路由：
//
//	POST /api/recommendations          生成推荐包并保存为会话的上次推荐
//	GET  /api/recommendations/last     会话的上次推荐包
//	GET  /api/games/classic            经典游戏
//	GET  /api/games/more?type=&limit=  更多游戏（rating / newest / matches / popular）
//	GET  /api/games/{id}/image         单个游戏封面
//	POST /api/games/images             批量游戏封面
//	GET  /healthz                      就绪检查
//	GET  /metrics                      Prometheus 指标
//
// 会话由 X-Session-ID 头标识，缺失或非法时分配新的 uuid 并在响应头中回写。
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/logging"
	"github.com/rushteam/gameark/recommend"
)

// Config 是 HTTP 接入层配置。
type Config struct {
	// RequestTimeout 是单个请求的处理超时，0 表示不限制
	RequestTimeout time.Duration `koanf:"request_timeout" yaml:"request_timeout" validate:"gte=0"`
	// MaxBodyBytes 是请求体上限
	MaxBodyBytes int64 `koanf:"max_body_bytes" yaml:"max_body_bytes" validate:"gte=1024"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	// RateLimitRequests 为 0 时关闭按 IP 限流
	RateLimitRequests int           `koanf:"rate_limit_requests" yaml:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" yaml:"rate_limit_window" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout:    20 * time.Second,
		MaxBodyBytes:      1 << 20,
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
	}
}

// ImageLookup 是封面查询能力，由 imagery.Client 实现。
type ImageLookup interface {
	ImageURL(ctx context.Context, id int64) (string, error)
	ImageURLs(ctx context.Context, ids []int64) map[int64]string
	MaxBatch() int
}

// Server 持有 handler 依赖。
type Server struct {
	cfg      Config
	engine   *recommend.Engine
	images   ImageLookup
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewServer 创建 Server；images 为空时封面接口返回 404。
func NewServer(cfg Config, engine *recommend.Engine, images ImageLookup) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	return &Server{
		cfg:      cfg,
		engine:   engine,
		images:   images,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logging.With("api"),
	}
}

// Router 构建 chi 路由。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(s.recoverer)
	r.Use(instrument)
	if len(s.cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", HeaderSessionID, HeaderRequestID},
			ExposedHeaders: []string{HeaderSessionID, HeaderRequestID},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimitRequests > 0 && s.cfg.RateLimitWindow > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow))
		}
		if s.cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Use(session)

		r.Post("/recommendations", s.createRecommendations)
		r.Get("/recommendations/last", s.lastRecommendations)
		r.Get("/games/classic", s.classicGames)
		r.Get("/games/more", s.moreGames)
		r.Get("/games/{id}/image", s.gameImage)
		r.Post("/games/images", s.gameImages)
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Ready() {
		respondError(w, r, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnavailable, "catalog not loaded"))
		return
	}
	cf := s.engine.CF()
	respondJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"games":     s.engine.Catalog().Len(),
		"cf_loaded": cf != nil && cf.IsLoaded(),
	})
}
