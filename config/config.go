package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Feed       FeedConfig       `yaml:"feed"`
	Engines    EnginesConfig    `yaml:"engines"`
	Processor  ProcessorConfig  `yaml:"processor"`
	Publisher  PublisherConfig  `yaml:"publisher"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ChannelsConfig struct {
	TradeBuffer   int `yaml:"trade_buffer"`
	BookBuffer    int `yaml:"book_buffer"`
	BarBuffer     int `yaml:"bar_buffer"`
	MetricsBuffer int `yaml:"metrics_buffer"`
}

type FeedConfig struct {
	Enabled bool `yaml:"enabled"`
	// URL of the upstream market-data websocket.
	URL     string   `yaml:"url"`
	Symbols []string `yaml:"symbols"`
	// HandshakeTimeoutMs bounds the websocket dial.
	HandshakeTimeoutMs int `yaml:"handshake_timeout_ms"`
	// ReadLimitBytes caps a single inbound frame; 0 keeps the default.
	ReadLimitBytes int64       `yaml:"read_limit_bytes"`
	Retry          RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
	// ReconnectsPerMinute rate-limits dial attempts across backoff cycles.
	ReconnectsPerMinute int `yaml:"reconnects_per_minute"`
}

type EnginesConfig struct {
	Liquidity LiquidityConfig `yaml:"liquidity"`
	Heatmap   HeatmapConfig   `yaml:"heatmap"`
}

type LiquidityConfig struct {
	DepthLevels int `yaml:"depth_levels"`
}

type HeatmapConfig struct {
	BucketMs int64   `yaml:"bucket_ms"`
	TickSize float64 `yaml:"tick_size"`
}

type ProcessorConfig struct {
	MaxWorkers int `yaml:"max_workers"`
}

type PublisherConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Brokers        []string `yaml:"brokers"`
	Topic          string   `yaml:"topic"`
	BatchTimeoutMs int      `yaml:"batch_timeout_ms"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// ChannelReportIntervalMs is the cadence of channel occupancy gauges.
	ChannelReportIntervalMs int `yaml:"channel_report_interval_ms"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// LoadConfig reads, defaults, env-overrides and validates a yaml config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{Name: "marketpulse", Version: "dev"},
		Channels: ChannelsConfig{
			TradeBuffer:   4096,
			BookBuffer:    1024,
			BarBuffer:     256,
			MetricsBuffer: 4096,
		},
		Feed: FeedConfig{
			Enabled:            true,
			HandshakeTimeoutMs: 5000,
			Retry: RetryConfig{
				BaseDelayMs:         250,
				MaxDelayMs:          15000,
				ReconnectsPerMinute: 30,
			},
		},
		Engines: EnginesConfig{
			Liquidity: LiquidityConfig{DepthLevels: 10},
			Heatmap:   HeatmapConfig{BucketMs: 1000, TickSize: 0.01},
		},
		Processor: ProcessorConfig{MaxWorkers: 4},
		Publisher: PublisherConfig{
			Kafka: KafkaConfig{Topic: "marketpulse.metrics", BatchTimeoutMs: 100},
		},
		Metrics: MetricsConfig{
			Addr:                    ":2112",
			ChannelReportIntervalMs: 1000,
		},
		CloudWatch: CloudWatchConfig{Namespace: "MarketPulse"},
		Logging:    LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("FEED_URL"); v != "" {
		config.Feed.URL = strings.TrimSpace(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers := strings.Split(v, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		config.Publisher.Kafka.Brokers = brokers
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		config.Publisher.Kafka.Topic = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.CloudWatch.Region = strings.TrimSpace(v)
	}
}

// Validate rejects configurations that could not run at all. Engine
// parameters fall back to their defaults instead of failing.
func (c *Config) Validate() error {
	if c.Feed.Enabled && c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required when the feed is enabled")
	}
	if c.Publisher.Kafka.Enabled && len(c.Publisher.Kafka.Brokers) == 0 {
		return fmt.Errorf("publisher.kafka.brokers is required when kafka is enabled")
	}
	if c.Processor.MaxWorkers < 1 {
		c.Processor.MaxWorkers = 1
	}
	if c.Engines.Liquidity.DepthLevels <= 0 {
		c.Engines.Liquidity.DepthLevels = 10
	}
	if c.Engines.Heatmap.BucketMs <= 0 {
		c.Engines.Heatmap.BucketMs = 1000
	}
	if c.Engines.Heatmap.TickSize <= 0 {
		c.Engines.Heatmap.TickSize = 0.01
	}
	return nil
}
