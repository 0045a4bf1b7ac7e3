package cache

import (
	"crypto/tls"
	"time"
)

type Config struct {
	URL      string `json:"url,omitempty"      yaml:"url,omitempty"      mapstructure:"url"`
	Addr     string `json:"addr,omitempty"     yaml:"addr,omitempty"     mapstructure:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `json:"db,omitempty"       yaml:"db,omitempty"       mapstructure:"db"`
	PoolSize int    `json:"pool_size,omitempty" yaml:"pool_size,omitempty" mapstructure:"pool_size"`
	// TLS Configuration
	TLSEnabled bool        `json:"tls_enabled,omitempty" yaml:"tls_enabled,omitempty" mapstructure:"tls_enabled"`
	TLSConfig  *tls.Config `json:"-"                     yaml:"-"                     mapstructure:"-"`
	// Timeout Configuration
	DialTimeout  time.Duration `json:"dial_timeout,omitempty"  yaml:"dial_timeout,omitempty"  mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout,omitempty"  yaml:"read_timeout,omitempty"  mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty" mapstructure:"write_timeout"`
	PingTimeout  time.Duration `json:"ping_timeout,omitempty"  yaml:"ping_timeout,omitempty"  mapstructure:"ping_timeout"`
}
