// Package config 加载分层配置：内置默认值 -> YAML 配置文件 -> GAMEARK_ 环境变量。
//
// 环境变量映射：GAMEARK_SERVER__ADDR -> server.addr，GAMEARK_CF__MIN_USER_RATINGS -> cf.min_user_ratings。
// 双下划线分隔层级，单下划线保留在 key 内。
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/rushteam/gameark/api"
	"github.com/rushteam/gameark/imagery"
	"github.com/rushteam/gameark/logging"
	"github.com/rushteam/gameark/recall"
	"github.com/rushteam/gameark/recommend"
	"github.com/rushteam/gameark/store"
)

// EnvPrefix 是环境变量前缀。
const EnvPrefix = "GAMEARK_"

// ConfigPathEnvVar 可以覆盖配置文件路径。
const ConfigPathEnvVar = "GAMEARK_CONFIG"

// DefaultConfigPaths 是未指定路径时依次查找的配置文件。
var DefaultConfigPaths = []string{
	"gameark.yaml",
	"gameark.yml",
	"/etc/gameark/config.yaml",
}

// Config 是进程的全部配置。
type Config struct {
	Server    ServerConfig     `koanf:"server" yaml:"server"`
	API       api.Config       `koanf:"api" yaml:"api"`
	Data      DataConfig       `koanf:"data" yaml:"data"`
	CF        recall.CFConfig  `koanf:"cf" yaml:"cf"`
	Recommend recommend.Config `koanf:"recommend" yaml:"recommend"`
	Store     store.Config     `koanf:"store" yaml:"store"`
	Images    imagery.Config   `koanf:"images" yaml:"images"`
	Log       logging.Config   `koanf:"log" yaml:"log"`
}

// ServerConfig 是 HTTP 服务配置。
type ServerConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
}

// DataConfig 是数据文件配置。
type DataConfig struct {
	CatalogPath string   `koanf:"catalog_path" yaml:"catalog_path" validate:"required"`
	RatingsPath string   `koanf:"ratings_path" yaml:"ratings_path"` // 为空时不启用协同过滤
	Encodings   []string `koanf:"encodings" yaml:"encodings" validate:"min=1,dive,required"`
	Comma       string   `koanf:"comma" yaml:"comma" validate:"max=1"`
	Watch       bool     `koanf:"watch" yaml:"watch"`
}

// Default 返回内置默认配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		API: api.DefaultConfig(),
		Data: DataConfig{
			CatalogPath: "data/games.csv",
			RatingsPath: "data/user_ratings.csv",
			Encodings:   []string{"utf-8", "windows-1252", "iso-8859-1"},
			Comma:       ",",
		},
		CF:        recall.DefaultCFConfig(),
		Recommend: recommend.DefaultConfig(),
		Store:     store.Config{Backend: "memory"},
		Images:    imagery.DefaultConfig(),
		Log:       logging.DefaultConfig(),
	}
}

// 这些路径的环境变量按分隔符拆成列表
var sliceConfigPaths = map[string]string{
	"data.encodings":           ",",
	"recommend.classic_ids":    ",",
	"recommend.tiers":          ";", // CEL 表达式内可能出现逗号
	"images.allowed_hosts":     ",",
	"api.cors_allowed_origins": ",",
}

// Load 依次加载默认值、配置文件（path 为空时查找默认路径，找不到则跳过）与环境变量，
// 然后校验。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform: GAMEARK_RECOMMEND__MAIN_SIZE -> recommend.main_size。
// GAMEARK_CONFIG 是文件路径，不进入配置树。
func envTransform(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func processSliceFields(k *koanf.Koanf) error {
	for path, sep := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, sep)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("config: set %s: %w", path, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 做结构体校验与跨字段校验。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CommaRune 返回 CSV 分隔符。
func (d DataConfig) CommaRune() rune {
	if d.Comma == "" {
		return ','
	}
	return []rune(d.Comma)[0]
}

// Dump 以 YAML 输出生效配置，密码类字段打码。
func Dump(w io.Writer, c *Config) error {
	masked := *c
	if masked.Store.Password != "" {
		masked.Store.Password = "******"
	}
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return err
	}
	return enc.Close()
}
