// Package logging 提供基于 zerolog 的全局日志。
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.With("recommend").Info().Int("n", n).Msg("recommend done")
//
// 日志链必须以 .Msg() 或 .Send() 结束，否则不会输出。
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config 是日志配置。
type Config struct {
	Level  string    `koanf:"level" yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string    `koanf:"format" yaml:"format" validate:"oneof=json console"`
	Caller bool      `koanf:"caller" yaml:"caller"`
	Output io.Writer `koanf:"-" yaml:"-"` // 默认 os.Stderr
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(DefaultConfig())
}

// Init 重新配置全局 logger，可重复调用。
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}
	l := zerolog.New(output).With().Timestamp().Logger()
	if cfg.Caller {
		l = l.With().Caller().Logger()
	}
	log = l
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger 返回全局 logger。
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger 替换全局 logger（测试用）。
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// With 返回带 component 字段的子 logger。
func With(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.With().Str("component", component).Logger()
}

type ctxKey struct{}

// NewRequestID 生成请求 ID。
func NewRequestID() string { return uuid.NewString() }

// ContextWithRequestID 把请求 ID 放入 context。
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFromContext 取出请求 ID，不存在时返回空串。
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Ctx 返回带 request_id 字段（如有）的全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if id := RequestIDFromContext(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}
