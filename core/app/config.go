package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/remote"
	"github.com/codewandler/coerce-go/core/transport"
)

const envPrefix = "COERCE_"

type (
	ActorConfig struct {
		MailboxSize        int `yaml:"mailbox_size"`
		MaxConcurrentTasks int `yaml:"max_concurrent_tasks"`
	}

	RemoteConfig struct {
		// Codec is "json" (default) or "msgpack".
		Codec         string        `yaml:"codec"`
		NameCacheSize int           `yaml:"name_cache_size"`
		NameCacheTTL  time.Duration `yaml:"name_cache_ttl"`
	}

	Config struct {
		NodeID string       `yaml:"node_id"`
		Actor  ActorConfig  `yaml:"actor"`
		Remote RemoteConfig `yaml:"remote"`

		Context       context.Context      `yaml:"-"`
		Log           *slog.Logger         `yaml:"-"`
		Transport     transport.Transport  `yaml:"-"`
		ActorMetrics  actor.ActorMetrics   `yaml:"-"`
		RemoteMetrics remote.RemoteMetrics `yaml:"-"`
	}
)

// LoadConfig reads a YAML file and applies COERCE_* environment overrides.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML and applies COERCE_* environment overrides.
func ParseConfig(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(envPrefix + "NODE_ID"); v != "" {
		c.NodeID = v
	}
	if v := os.Getenv(envPrefix + "CODEC"); v != "" {
		c.Remote.Codec = v
	}
	ints := map[string]*int{
		"MAILBOX_SIZE":         &c.Actor.MailboxSize,
		"MAX_CONCURRENT_TASKS": &c.Actor.MaxConcurrentTasks,
		"NAME_CACHE_SIZE":      &c.Remote.NameCacheSize,
	}
	for k, dst := range ints {
		v := os.Getenv(envPrefix + k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, k, err)
		}
		*dst = n
	}
	if v := os.Getenv(envPrefix + "NAME_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sNAME_CACHE_TTL: %w", envPrefix, err)
		}
		c.Remote.NameCacheTTL = d
	}
	return nil
}
