package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "sidechain",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 15 * time.Second,
				MaxHeaderBytes:  1 << 20, // 1MB
			},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Memory: MemoryConfig{
			DefaultLimit:     20,
			OversampleFactor: 3,
			MMRLambda:        0.7,
			RecencyHalfLife:  14 * 24 * time.Hour,
			MaxInteractions:  1000,
			Weights: WeightsConfig{
				Importance:   0.10,
				TagRelevance: 0.25,
				Lexical:      0.30,
				Recency:      0.10,
				Centrality:   0.10,
				Thompson:     0.15,
			},
		},
		Storage: StorageConfig{
			Type: "memory",
			Badger: BadgerConfig{
				Path:              "./data/badger",
				SyncWrites:        true,
				ValueLogFileSize:  1073741824, // 1GB
				NumVersionsToKeep: 1,
			},
			Redis: RedisConfig{
				Address:   "localhost:6379",
				Password:  "",
				DB:        0,
				KeyPrefix: "sidechain:setting:",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlp",
			Endpoint:   "localhost:4317",
			Timeout:    10 * time.Second,
			Sampler:    "ratio",
			SampleRate: 0.1,
		},
	}
}
