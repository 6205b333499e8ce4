// Package cache provides query cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/kart-io/bookrag/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// RedisOptions contains Redis connection configuration for the cache.
type RedisOptions struct {
	// Addr is the Redis server address (host:port).
	Addr string `json:"addr" mapstructure:"addr"`

	// Password for authentication.
	Password string `json:"password" mapstructure:"password"`

	// Database is the Redis database number.
	Database int `json:"database" mapstructure:"database"`
}

// Options contains query cache configuration.
type Options struct {
	// Enabled 是否启用查询缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL 缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis Redis 连接配置。
	Redis *RedisOptions `json:"redis" mapstructure:"redis"`
}

// NewOptions creates new Options with defaults. The cache is disabled
// until explicitly enabled.
func NewOptions() *Options {
	return &Options{
		Enabled:   false,
		TTL:       1 * time.Hour,
		KeyPrefix: "bookrag:query:",
		Redis: &RedisOptions{
			Addr: "localhost:6379",
		},
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"cache.enabled", o.Enabled, "Enable the query result cache.")
	fs.DurationVar(&o.TTL, options.Join(prefixes...)+"cache.ttl", o.TTL, "Cache entry time to live.")
	fs.StringVar(&o.KeyPrefix, options.Join(prefixes...)+"cache.key-prefix", o.KeyPrefix, "Cache key prefix.")
	fs.StringVar(&o.Redis.Addr, options.Join(prefixes...)+"cache.redis.addr", o.Redis.Addr, "Redis server address (host:port).")
	fs.StringVar(&o.Redis.Password, options.Join(prefixes...)+"cache.redis.password", o.Redis.Password, "Redis password.")
	fs.IntVar(&o.Redis.Database, options.Join(prefixes...)+"cache.redis.database", o.Redis.Database, "Redis database number.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive"))
	}
	if o.Redis == nil || o.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("cache redis addr is required when cache is enabled"))
	}
	return errs
}

// Complete completes the options with defaults.
func (o *Options) Complete() error {
	if o.Redis == nil {
		o.Redis = &RedisOptions{Addr: "localhost:6379"}
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = "bookrag:query:"
	}
	return nil
}
