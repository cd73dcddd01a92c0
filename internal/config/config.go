package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Warehouse
	WarehouseDriver              string `json:"warehouse_driver"` // "bigquery" | "postgres"
	GCPProjectID                 string `json:"gcp_project_id"`
	GoogleApplicationCredentials string `json:"google_application_credentials"`
	BigQueryLocation             string `json:"bigquery_location"`
	PostgresDSN                  string `json:"postgres_dsn"`

	// AI / LLM
	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"` // override for custom proxy
	Model            string `json:"model"`

	// Object storage
	AWSRegion     string `json:"aws_region"`
	ReportsBucket string `json:"reports_bucket"`

	// Elasticsearch report index
	ElasticsearchEnabled     bool   `json:"elasticsearch_enabled"`
	ElasticsearchHost        string `json:"elasticsearch_host"`
	ElasticsearchPort        int    `json:"elasticsearch_port"`
	ElasticsearchScheme      string `json:"elasticsearch_scheme"`
	ElasticsearchUser        string `json:"elasticsearch_user"`
	ElasticsearchPassword    string `json:"elasticsearch_password"`
	ElasticsearchVerifyCerts bool   `json:"elasticsearch_verify_certs"`
	ElasticsearchMaxRetries  int    `json:"elasticsearch_max_retries"`
	ReportIndexName          string `json:"report_index_name"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                     DefaultHost,
		Port:                     DefaultPort,
		Environment:              DefaultEnvironment,
		APIPrefix:                DefaultAPIPrefix,
		LogLevel:                 DefaultLogLevel,
		APIKeyHeader:             "X-API-Key",
		EnableAuth:               true,
		RateLimitPerMinute:       DefaultRateLimitPerMinute,
		WarehouseDriver:          DefaultWarehouseDriver,
		BigQueryLocation:         DefaultBigQueryLocation,
		Model:                    DefaultModel,
		AWSRegion:                DefaultAWSRegion,
		ElasticsearchPort:        DefaultElasticsearchPort,
		ElasticsearchScheme:      DefaultElasticsearchScheme,
		ElasticsearchVerifyCerts: true,
		ElasticsearchMaxRetries:  DefaultElasticsearchMaxRetries,
		ReportIndexName:          DefaultReportIndexName,
	}

	// Load from JSON config file if specified
	if path := getEnv("PHYSIOAI_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("PHYSIOAI_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("PHYSIOAI_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("PHYSIOAI_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("PHYSIOAI_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("PHYSIOAI_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("WAREHOUSE_DRIVER", ""); v != "" {
		cfg.WarehouseDriver = v
	}
	if v := getEnv("GCP_PROJECT_ID", ""); v != "" {
		cfg.GCPProjectID = v
	}
	if v := getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""); v != "" {
		cfg.GoogleApplicationCredentials = v
	}
	if v := getEnv("BIGQUERY_LOCATION", ""); v != "" {
		cfg.BigQueryLocation = v
	}
	if v := getEnv("POSTGRES_DSN", ""); v != "" {
		cfg.PostgresDSN = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("PHYSIO_MODEL", ""); v != "" {
		cfg.Model = v
	}
	if v := getEnv("AWS_REGION", ""); v != "" {
		cfg.AWSRegion = v
	}
	if v := getEnv("REPORTS_BUCKET", ""); v != "" {
		cfg.ReportsBucket = v
	}
	if v := getEnv("ELASTICSEARCH_ENABLED", ""); v != "" {
		cfg.ElasticsearchEnabled = v == "true" || v == "1"
	}
	if v := getEnv("ELASTICSEARCH_HOST", ""); v != "" {
		cfg.ElasticsearchHost = v
	}
	if v := getEnv("ELASTICSEARCH_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ElasticsearchPort = p
		}
	}
	if v := getEnv("ELASTICSEARCH_SCHEME", ""); v != "" {
		cfg.ElasticsearchScheme = v
	}
	if v := getEnv("ELASTICSEARCH_USER", ""); v != "" {
		cfg.ElasticsearchUser = v
	}
	if v := getEnv("ELASTICSEARCH_PASSWORD", ""); v != "" {
		cfg.ElasticsearchPassword = v
	}
	if v := getEnv("REPORT_INDEX_NAME", ""); v != "" {
		cfg.ReportIndexName = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
