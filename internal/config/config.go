package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/totegamma/tentd/internal/domain"
)

const (
	defaultListen         = ":8000"
	defaultRequestTimeout = 5 * time.Second
	defaultFanoutWorkers  = 8
)

type Config struct {
	NodeInfo   NodeInfo   `yaml:"nodeInfo"`
	Server     Server     `yaml:"server"`
	Federation Federation `yaml:"federation"`
}

type NodeInfo struct {
	// BaseURL is the externally visible origin used to build identity and
	// profile URLs. When empty it is derived from each request.
	BaseURL string `yaml:"baseURL"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"` // console, json
}

type Federation struct {
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	FanoutWorkers   int           `yaml:"fanoutWorkers"`
	FollowCanonical bool          `yaml:"followCanonical"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	config.applyDefaults()
	return config, nil
}

// Default is the configuration used when no file is given.
func Default() Config {
	var config Config
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.Federation.RequestTimeout <= 0 {
		c.Federation.RequestTimeout = defaultRequestTimeout
	}
	if c.Federation.FanoutWorkers <= 0 {
		c.Federation.FanoutWorkers = defaultFanoutWorkers
	}
}

// Domain projects the settings the usecases need.
func (c Config) Domain() domain.Config {
	return domain.Config{
		BaseURL:         c.NodeInfo.BaseURL,
		RequestTimeout:  c.Federation.RequestTimeout,
		FanoutWorkers:   c.Federation.FanoutWorkers,
		FollowCanonical: c.Federation.FollowCanonical,
	}
}
