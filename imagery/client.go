// Package imagery 通过 BGG XML API 查询游戏封面图地址。
//
// 查询带指数退避重试（202 表示 BGG 仍在生成结果，同样重试）、熔断、正负结果缓存。
// 只在 API 层调用，推荐打分不依赖它。
package imagery

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/logging"
	"github.com/rushteam/gameark/metrics"
)

// Config 是封面查询配置。
type Config struct {
	BaseURL      string        `koanf:"base_url" yaml:"base_url" validate:"required,url"`
	UserAgent    string        `koanf:"user_agent" yaml:"user_agent"`
	Timeout      time.Duration `koanf:"timeout" yaml:"timeout" validate:"gte=0"`
	Retries      int           `koanf:"retries" yaml:"retries" validate:"gte=1,lte=10"`
	RetryWait    time.Duration `koanf:"retry_wait" yaml:"retry_wait" validate:"gte=0"`
	CacheSize    int           `koanf:"cache_size" yaml:"cache_size" validate:"gte=1"`
	CacheTTL     time.Duration `koanf:"cache_ttl" yaml:"cache_ttl" validate:"gte=0"`
	NegativeTTL  time.Duration `koanf:"negative_ttl" yaml:"negative_ttl" validate:"gte=0"`
	MaxBatch     int           `koanf:"max_batch" yaml:"max_batch" validate:"gte=1,lte=100"`
	Concurrency  int           `koanf:"concurrency" yaml:"concurrency" validate:"gte=1"`
	AllowedHosts []string      `koanf:"allowed_hosts" yaml:"allowed_hosts" validate:"min=1"`

	BreakerFailures uint32        `koanf:"breaker_failures" yaml:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" yaml:"breaker_timeout" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://boardgamegeek.com/xmlapi2",
		UserAgent:       "gameark/1.0",
		Timeout:         10 * time.Second,
		Retries:         3,
		RetryWait:       time.Second,
		CacheSize:       4096,
		CacheTTL:        24 * time.Hour,
		NegativeTTL:     30 * time.Minute,
		MaxBatch:        20,
		Concurrency:     3,
		AllowedHosts:    []string{"geekdo-images.com", "boardgamegeek.com"},
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

var (
	// errNoImage 表示 BGG 正常返回但没有可用的图片地址，不重试，不计入熔断失败
	errNoImage = errors.New("imagery: no valid image")
	// errAccepted 表示 BGG 返回 202，结果尚未就绪
	errAccepted = errors.New("imagery: request accepted, result not ready")
)

// Client 是 BGG 封面查询客户端，可并发使用。
type Client struct {
	cfg      Config
	http     *http.Client
	cache    *expirable.LRU[int64, string]
	negative *expirable.LRU[int64, struct{}]
	breaker  *gobreaker.CircuitBreaker[string]
	logger   zerolog.Logger
}

// Option 配置 Client。
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(cfg Config, opts ...Option) *Client {
	d := DefaultConfig()
	if cfg.Retries <= 0 {
		cfg.Retries = d.Retries
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = d.CacheSize
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = d.MaxBatch
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = d.Concurrency
	}
	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = d.AllowedHosts
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = d.BreakerFailures
	}

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		cache:    expirable.NewLRU[int64, string](cfg.CacheSize, nil, cfg.CacheTTL),
		negative: expirable.NewLRU[int64, struct{}](cfg.CacheSize, nil, cfg.NegativeTTL),
		logger:   logging.With("imagery"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "bgg",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNoImage)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return c
}

// MaxBatch 返回批量查询的上限。
func (c *Client) MaxBatch() int { return c.cfg.MaxBatch }

// ImageURL 返回游戏封面地址。没有可用图片时返回 NOT_FOUND；BGG 不可用时返回 UNAVAILABLE。
func (c *Client) ImageURL(ctx context.Context, id int64) (string, error) {
	if u, ok := c.cache.Get(id); ok {
		metrics.ImageLookups.WithLabelValues("hit").Inc()
		return u, nil
	}
	if _, ok := c.negative.Get(id); ok {
		metrics.ImageLookups.WithLabelValues("negative").Inc()
		return "", notFound(id)
	}

	u, err := c.breaker.Execute(func() (string, error) { return c.fetch(ctx, id) })
	switch {
	case err == nil:
		c.cache.Add(id, u)
		metrics.ImageLookups.WithLabelValues("miss").Inc()
		return u, nil
	case errors.Is(err, errNoImage):
		c.negative.Add(id, struct{}{})
		metrics.ImageLookups.WithLabelValues("invalid").Inc()
		return "", notFound(id)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ImageLookups.WithLabelValues("error").Inc()
		return "", core.WrapDomainError(core.ModuleImagery, core.ErrorCodeUnavailable, "imagery: bgg circuit open", err)
	case ctx.Err() != nil:
		return "", ctx.Err()
	default:
		// 重试耗尽也做负缓存，避免同一个 id 反复打到 BGG
		c.negative.Add(id, struct{}{})
		metrics.ImageLookups.WithLabelValues("error").Inc()
		c.logger.Warn().Err(err).Int64("game_id", id).Msg("image lookup failed")
		return "", core.WrapDomainError(core.ModuleImagery, core.ErrorCodeUnavailable, "imagery: lookup failed", err)
	}
}

// ImageURLs 批量查询，最多 MaxBatch 个 id（多余的忽略），并发度为 Concurrency。
// 只返回查到图片的 id。
func (c *Client) ImageURLs(ctx context.Context, ids []int64) map[int64]string {
	if len(ids) > c.cfg.MaxBatch {
		ids = ids[:c.cfg.MaxBatch]
	}
	urls := make([]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if u, err := c.ImageURL(gctx, id); err == nil {
				urls[i] = u
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int64]string, len(ids))
	for i, id := range ids {
		if urls[i] != "" {
			out[id] = urls[i]
		}
	}
	return out
}

func notFound(id int64) error {
	return core.NewDomainError(core.ModuleImagery, core.ErrorCodeNotFound, fmt.Sprintf("imagery: no image for game %d", id))
}

// fetch 带重试地请求一次 thing 接口。
func (c *Client) fetch(ctx context.Context, id int64) (string, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.RetryWait
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.cfg.Retries-1)), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (string, error) {
		attempt++
		u, err := c.fetchOnce(ctx, id)
		if err != nil && !errors.Is(err, errNoImage) {
			c.logger.Debug().Err(err).Int64("game_id", id).Int("attempt", attempt).Msg("image lookup attempt failed")
		}
		return u, err
	}, b)
}

func (c *Client) fetchOnce(ctx context.Context, id int64) (string, error) {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	q.Set("type", "boardgame")
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/thing?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted:
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", errAccepted
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("imagery: bgg status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", backoff.Permanent(fmt.Errorf("%w: bgg status %d", errNoImage, resp.StatusCode))
	}

	image, err := parseThing(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if !ValidImageURL(image, c.cfg.AllowedHosts) {
		return "", backoff.Permanent(errNoImage)
	}
	return image, nil
}

type thingResponse struct {
	Items []struct {
		ID    int64  `xml:"id,attr"`
		Image string `xml:"image"`
	} `xml:"item"`
}

// parseThing 取第一个 item 的 image 文本。
func parseThing(r io.Reader) (string, error) {
	var resp thingResponse
	if err := xml.NewDecoder(r).Decode(&resp); err != nil {
		return "", fmt.Errorf("imagery: decode xml: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Items[0].Image), nil
}

// ValidImageURL 要求 http(s) 地址且主机属于允许的域名（含子域名）。
func ValidImageURL(raw string, allowedHosts []string) bool {
	if !strings.HasPrefix(raw, "http") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range allowedHosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
