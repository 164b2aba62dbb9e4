package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string   `yaml:"log-level" env-default:"info"`
	HTTPPort string   `yaml:"http-port" env-default:"9090"`
	Redis    Redis    `yaml:"redis"`
	Store    Store    `yaml:"store"`
	Rooms    []string `yaml:"rooms" env-default:"9001,9002,9003"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

type Store struct {
	// OpTimeout bounds every single store operation; on expiry the call is
	// treated as a non-fatal failure and retried implicitly on the next tick.
	OpTimeout time.Duration `yaml:"op-timeout" env-default:"3s"`
	// RoomTTL reclaims rooms abandoned without an explicit leave. Zero
	// disables expiry.
	RoomTTL time.Duration `yaml:"room-ttl" env-default:"24h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
