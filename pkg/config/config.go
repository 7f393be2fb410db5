package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Server      ServerConfig     `yaml:"server"`
	Logging     LoggingConfig    `yaml:"logging"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Scan        ScanConfig       `yaml:"scan"`
	Costs       CostsConfig      `yaml:"costs"`
	Quality     QualityConfig    `yaml:"quality"`
	Backtest    BacktestConfig   `yaml:"backtest"`
	MarketData  MarketDataConfig `yaml:"market_data"`
	Redis       RedisConfig      `yaml:"redis"`
	SQLite      SQLiteConfig     `yaml:"sqlite"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS            bool          `yaml:"cors" default:"true"`
	RateLimit       struct {
		Capacity     float64 `yaml:"capacity" default:"10"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5"`
	} `yaml:"rate_limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type ScanConfig struct {
	Workers     int           `yaml:"workers" default:"8"`
	Symbols     []string      `yaml:"symbols"`
	CacheTTL    time.Duration `yaml:"cache_ttl" default:"2m"`
	CandleRange string        `yaml:"candle_range" default:"6mo"`
	MinPeriods  int           `yaml:"min_periods" default:"30"`
}

type CostsConfig struct {
	IntradayBps float64 `yaml:"intraday_bps" default:"18"`
	SwingBps    float64 `yaml:"swing_bps" default:"30"`
}

type QualityConfig struct {
	MinNetRR         float64 `yaml:"min_net_rr" default:"1.0"`
	ThresholdMin     int     `yaml:"threshold_min" default:"34"`
	ThresholdMax     int     `yaml:"threshold_max" default:"56"`
	DefaultThreshold int     `yaml:"default_threshold" default:"40"`
}

type BacktestConfig struct {
	CostBps      float64  `yaml:"cost_bps" default:"30"`
	Workers      int      `yaml:"workers" default:"4"`
	Intervals    []string `yaml:"intervals"`
	SessionStart string   `yaml:"session_start" default:"09:15"`
	SessionEnd   string   `yaml:"session_end" default:"15:30"`
}

type MarketDataConfig struct {
	ChartURL       string        `yaml:"chart_url" default:"https://query1.finance.yahoo.com/v8/finance/chart"`
	QuoteURL       string        `yaml:"quote_url" default:"https://query1.finance.yahoo.com/v7/finance/quote"`
	SummaryURL     string        `yaml:"summary_url" default:"https://query2.finance.yahoo.com/v10/finance/quoteSummary"`
	ExchangeSuffix string        `yaml:"exchange_suffix" default:".NS"`
	Timeout        time.Duration `yaml:"timeout" default:"15s"`
	UserAgent      string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; nsescan/1.0)"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"nsescan"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" default:"data/nsescan.db"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"nsescan"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	SnapshotTopic string   `yaml:"snapshot_topic" default:"nsescan.snapshots"`
	BacktestTopic string   `yaml:"backtest_topic" default:"nsescan.backtests"`
	RequiredAcks  int      `yaml:"required_acks" default:"-1"`
	Compression   string   `yaml:"compression" default:"gzip"`
	Producer      struct {
		MaxAttempts      int           `yaml:"max_attempts" default:"3"`
		Linger           time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes       int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize        int           `yaml:"batch_size" default:"100"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		AutoCreateTopics bool          `yaml:"auto_create_topics"`
	} `yaml:"producer"`
}

// DefaultUniverse is scanned when scan.symbols is empty.
var DefaultUniverse = []string{
	"RELIANCE", "TCS", "HDFCBANK", "ICICIBANK", "INFY", "BHARTIARTL", "SBIN", "ITC",
	"LT", "HINDUNILVR", "KOTAKBANK", "AXISBANK", "BAJFINANCE", "MARUTI", "SUNPHARMA",
	"TITAN", "ULTRACEMCO", "ASIANPAINT", "NTPC", "POWERGRID", "TATAMOTORS", "TATASTEEL",
	"WIPRO", "HCLTECH", "TECHM", "ADANIPORTS", "ONGC", "COALINDIA", "JSWSTEEL", "M&M",
}

// Default returns a configuration populated from struct-tag defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.fillLists()
	return &c, nil
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.fillLists()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are used.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
	} else {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.LookupEnv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("NSESCAN_ENV", &c.Environment)
	integer("NSESCAN_PORT", &c.Server.Port)
	str("NSESCAN_LOG_LEVEL", &c.Logging.Level)
	list("NSESCAN_SYMBOLS", &c.Scan.Symbols)
	integer("NSESCAN_SCAN_WORKERS", &c.Scan.Workers)
	boolean("NSESCAN_REDIS_ENABLED", &c.Redis.Enabled)
	str("NSESCAN_REDIS_HOST", &c.Redis.Host)
	str("NSESCAN_REDIS_PASSWORD", &c.Redis.Password)
	str("NSESCAN_SQLITE_PATH", &c.SQLite.Path)
	boolean("NSESCAN_CLICKHOUSE_ENABLED", &c.ClickHouse.Enabled)
	str("NSESCAN_CLICKHOUSE_HOST", &c.ClickHouse.Host)
	str("NSESCAN_CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	boolean("NSESCAN_KAFKA_ENABLED", &c.Kafka.Enabled)
	list("NSESCAN_KAFKA_BROKERS", &c.Kafka.Brokers)
}

func (c *Config) fillLists() {
	if len(c.Scan.Symbols) == 0 {
		c.Scan.Symbols = append([]string(nil), DefaultUniverse...)
	}
	if len(c.Backtest.Intervals) == 0 {
		c.Backtest.Intervals = []string{"1m", "2m", "5m"}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1")
	}
	if c.Backtest.Workers < 1 {
		return fmt.Errorf("backtest.workers must be at least 1")
	}
	if c.Quality.ThresholdMin > c.Quality.ThresholdMax {
		return fmt.Errorf("quality.threshold_min %d exceeds threshold_max %d", c.Quality.ThresholdMin, c.Quality.ThresholdMax)
	}
	if c.Costs.IntradayBps < 0 || c.Costs.SwingBps < 0 || c.Backtest.CostBps < 0 {
		return fmt.Errorf("cost bps cannot be negative")
	}
	if _, err := time.Parse("15:04", c.Backtest.SessionStart); err != nil {
		return fmt.Errorf("backtest.session_start: %w", err)
	}
	if _, err := time.Parse("15:04", c.Backtest.SessionEnd); err != nil {
		return fmt.Errorf("backtest.session_end: %w", err)
	}
	if c.SQLite.Path == "" {
		return fmt.Errorf("sqlite.path is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
