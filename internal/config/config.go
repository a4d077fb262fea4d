package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// Vector index drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverQdrant = "qdrant"
)

// Catalog drivers.
const (
	CatalogSQLite  = "sqlite"
	CatalogSQLite3 = "sqlite3"
)

// Config holds the stylesearch configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Search      SearchConfig      `yaml:"search"`
	Reindex     ReindexConfig     `yaml:"reindex"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig selects the SQLite driver and database file.
type CatalogConfig struct {
	Driver string `yaml:"driver"` // sqlite (modernc, default) or sqlite3 (mattn, cgo)
	Path   string `yaml:"path"`
}

// VectorIndexConfig holds vector index backend settings.
type VectorIndexConfig struct {
	Driver           string       `yaml:"driver"` // valkey, redis, qdrant (default: valkey)
	Addrs            []string     `yaml:"addrs"`
	Password         string       `yaml:"password"`
	ReadinessTimeout int          `yaml:"readiness_timeout_sec"`
	KeyPrefix        string       `yaml:"key_prefix"`
	HNSWM            int          `yaml:"hnsw_m"`
	HNSWEFConstruct  int          `yaml:"hnsw_ef_construction"`
	Qdrant           QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds Qdrant gRPC settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SearchConfig holds query engine and indexing settings.
type SearchConfig struct {
	ScoreThreshold *float64       `yaml:"score_threshold"` // nil means 0.75; 0 accepts every hit
	DefaultTopK    int            `yaml:"default_top_k"`
	MaxTopK        int            `yaml:"max_top_k"`
	EntityKind     string         `yaml:"entity_kind"`
	Composer       ComposerConfig `yaml:"composer"`
}

// ComposerConfig lists the style fields rendered into the embedded text, in order.
type ComposerConfig struct {
	Fields []string `yaml:"fields"`
}

// ReindexConfig holds bulk reindex settings.
type ReindexConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // empty disables export
	SampleRate   float64 `yaml:"sample_rate"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates a YAML config file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = CatalogSQLite
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/stylesearch.db"
	}
	c.applyVectorIndexDefaults()
	c.applyEmbeddingDefaults()
	c.applySearchDefaults()
	if c.Reindex.Concurrency <= 0 {
		c.Reindex.Concurrency = 1
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 1.0
	}
}

func (c *Config) applyVectorIndexDefaults() {
	v := &c.VectorIndex
	if v.Driver == "" {
		v.Driver = DriverValkey
	}
	if v.ReadinessTimeout <= 0 {
		v.ReadinessTimeout = 10
	}
	if v.KeyPrefix == "" {
		v.KeyPrefix = "stylesearch:"
	}
	if v.HNSWM <= 0 {
		v.HNSWM = 16
	}
	if v.HNSWEFConstruct <= 0 {
		v.HNSWEFConstruct = 200
	}
	if v.Qdrant.Port <= 0 {
		v.Qdrant.Port = 6334
	}
	if v.Qdrant.Collection == "" {
		v.Qdrant.Collection = "styles"
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.Model == "" {
		e.Model = "text-embedding-3-small"
	}
	if e.Dimensions <= 0 {
		e.Dimensions = 1536
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 30
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.ScoreThreshold == nil {
		t := 0.75
		s.ScoreThreshold = &t
	}
	if s.DefaultTopK <= 0 {
		s.DefaultTopK = 10
	}
	if s.MaxTopK <= 0 {
		s.MaxTopK = 100
	}
	if s.EntityKind == "" {
		s.EntityKind = "style"
	}
	if len(s.Composer.Fields) == 0 {
		for _, f := range style.DefaultFields {
			s.Composer.Fields = append(s.Composer.Fields, string(f))
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Catalog.Driver {
	case CatalogSQLite, CatalogSQLite3:
	default:
		return fmt.Errorf("catalog.driver must be %q or %q, got %q", CatalogSQLite, CatalogSQLite3, c.Catalog.Driver)
	}
	if err := c.validateVectorIndex(); err != nil {
		return err
	}
	if t := c.Search.ScoreThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("search.score_threshold must be in [0, 1], got %g", *t)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds search.max_top_k (%d)",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if _, err := style.ParseFields(c.Search.Composer.Fields); err != nil {
		return fmt.Errorf("search.composer.fields: %w", err)
	}
	if strings.ContainsAny(c.Search.EntityKind, "_: ") {
		return fmt.Errorf("search.entity_kind must not contain '_', ':' or spaces, got %q", c.Search.EntityKind)
	}
	if c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be in (0, 1], got %g", c.Tracing.SampleRate)
	}
	return nil
}

func (c *Config) validateVectorIndex() error {
	switch c.VectorIndex.Driver {
	case DriverValkey, DriverRedis:
		if len(c.VectorIndex.Addrs) == 0 {
			return fmt.Errorf("vector_index.addrs is required for driver %q", c.VectorIndex.Driver)
		}
	case DriverQdrant:
		if c.VectorIndex.Qdrant.Host == "" {
			return fmt.Errorf("vector_index.qdrant.host is required for driver %q", DriverQdrant)
		}
	default:
		return fmt.Errorf("vector_index.driver must be valkey, redis or qdrant, got %q", c.VectorIndex.Driver)
	}
	return nil
}

// ConfigPathEnv overrides config file discovery when set.
const ConfigPathEnv = "STYLESEARCH_CONFIG"

// findConfigPath locates the config file: $STYLESEARCH_CONFIG, then ./config/<env>.yaml,
// then config/<env>.yaml next to the module root.
func findConfigPath(env string) string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	filename := env + ".yaml"

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
