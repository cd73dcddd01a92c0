package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultWarehouseDriver  = "bigquery"
	DefaultBigQueryLocation = "US"
	DefaultQueryTimeout     = 60 * time.Second

	DefaultModel = "claude-sonnet-4-6"

	DefaultAWSRegion = "us-east-1"

	DefaultElasticsearchPort       = 9200
	DefaultElasticsearchScheme     = "http"
	DefaultElasticsearchMaxRetries = 3
	DefaultReportIndexName         = "physio-reports"
)
