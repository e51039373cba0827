package config

import (
	"fmt"
	"strings"
)

type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Dataset  DatasetConfig           `mapstructure:"dataset"`
	Database DatabaseConfig          `mapstructure:"database"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Reports  ReportsConfig           `mapstructure:"reports"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // milliseconds
}

// Dataset sources.
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// DatasetConfig points at the reference reading-behavior corpus.
type DatasetConfig struct {
	Source    string `mapstructure:"source"`
	Path      string `mapstructure:"path"`
	Table     string `mapstructure:"table"`
	Delimiter string `mapstructure:"delimiter"`
	Preload   bool   `mapstructure:"preload"`
}

// DelimiterRune returns the configured CSV delimiter, or 0 to sniff it.
func (d DatasetConfig) DelimiterRune() rune {
	switch d.Delimiter {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	default:
		return []rune(d.Delimiter)[0]
	}
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTL     int  `mapstructure:"ttl"` // milliseconds
}

type ReportsConfig struct {
	Elasticsearch struct {
		Enabled bool   `mapstructure:"enabled"`
		Index   string `mapstructure:"index"`
	} `mapstructure:"elasticsearch"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
		Region   string `mapstructure:"region"`
	} `mapstructure:"sns"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

func (c *Config) IsPostgresSource() bool {
	return strings.EqualFold(c.Dataset.Source, SourcePostgres)
}
