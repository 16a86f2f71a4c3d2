package global

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the process-wide configuration, loaded once at boot.
type AppConfig struct {
	Server struct {
		Port      int           `yaml:"port"`
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"server"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Mongo struct {
		URI         string `yaml:"uri"`
		Database    string `yaml:"database"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		MaxPoolSize int    `yaml:"max_pool_size"`
	} `yaml:"mongo"`

	Nats struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Presence struct {
		TTL time.Duration `yaml:"ttl"` // default 60s
	} `yaml:"presence"`

	Gateway struct {
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		SendQueueSize     int           `yaml:"send_queue_size"`
	} `yaml:"gateway"`

	LogLevel string `yaml:"log_level"`
	NodeID   int64  `yaml:"node_id"`
}

var Conf AppConfig

// Load reads the yaml config file and applies defaults. Env overrides are
// limited to the secrets (LINKUP_JWT_SECRET, LINKUP_MONGO_PASSWORD,
// LINKUP_REDIS_PASSWORD).
func Load(path string) error {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(raw, &Conf); err != nil {
			return err
		}
	}
	if v := os.Getenv("LINKUP_JWT_SECRET"); v != "" {
		Conf.Server.JWTSecret = v
	}
	if v := os.Getenv("LINKUP_MONGO_PASSWORD"); v != "" {
		Conf.Mongo.Password = v
	}
	if v := os.Getenv("LINKUP_REDIS_PASSWORD"); v != "" {
		Conf.Redis.Password = v
	}
	Conf.applyDefaults()
	return nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.TokenTTL <= 0 {
		c.Server.TokenTTL = 2 * time.Hour
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "linkup"
	}
	if c.Mongo.MaxPoolSize <= 0 {
		c.Mongo.MaxPoolSize = 20
	}
	if c.Nats.URL == "" {
		c.Nats.URL = "nats://127.0.0.1:4222"
	}
	if c.Presence.TTL <= 0 {
		c.Presence.TTL = 60 * time.Second
	}
	if c.Gateway.HeartbeatInterval <= 0 {
		c.Gateway.HeartbeatInterval = 30 * time.Second
	}
	if c.Gateway.WriteTimeout <= 0 {
		c.Gateway.WriteTimeout = 5 * time.Second
	}
	if c.Gateway.SendQueueSize <= 0 {
		c.Gateway.SendQueueSize = 256
	}
	if c.NodeID <= 0 {
		c.NodeID = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "debug"
	}
}

func JwtSecret() []byte { return []byte(Conf.Server.JWTSecret) }
