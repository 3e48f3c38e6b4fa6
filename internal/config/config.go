// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/usestring/docschema/internal/logging"
	"github.com/usestring/docschema/pkg/decode"
	"github.com/usestring/docschema/pkg/encode"
	"github.com/usestring/docschema/pkg/schema"
)

// Registry and ingestion defaults
const (
	DefaultMaxCollectionsValue = 64
	DefaultIngestWorkersValue  = 4
)

// Config holds all configuration for the CLI and the MCP server.
type Config struct {
	SampleSize       int    // SAMPLE_SIZE, default 10
	TraverseArrays   bool   // TRAVERSE_ARRAYS, default false
	MaxDepth         int    // MAX_DEPTH, default 100
	MaxDocumentBytes int    // MAX_DOCUMENT_BYTES, default 16 MiB
	MaxCollections   int    // MAX_COLLECTIONS, default 64
	IngestWorkers    int    // INGEST_WORKERS, default 4
	DefaultFormat    string // DEFAULT_FORMAT, default "extjson"

	// Compaction of rendered sample values
	CompactMaxArrayItems int // COMPACT_MAX_ARRAY_ITEMS
	CompactMaxStringLen  int // COMPACT_MAX_STRING_LEN

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		SampleSize:       getEnvInt("SAMPLE_SIZE", schema.DefaultSampleSize),
		TraverseArrays:   getEnvBool("TRAVERSE_ARRAYS", false),
		MaxDepth:         getEnvInt("MAX_DEPTH", decode.DefaultMaxDepth),
		MaxDocumentBytes: getEnvInt("MAX_DOCUMENT_BYTES", decode.DefaultMaxDocumentBytes),
		MaxCollections:   getEnvInt("MAX_COLLECTIONS", DefaultMaxCollectionsValue),
		IngestWorkers:    getEnvInt("INGEST_WORKERS", DefaultIngestWorkersValue),
		DefaultFormat:    getEnvString("DEFAULT_FORMAT", string(decode.FormatExtJSON)),

		CompactMaxArrayItems: getEnvInt("COMPACT_MAX_ARRAY_ITEMS", encode.DefaultMaxArrayItems),
		CompactMaxStringLen:  getEnvInt("COMPACT_MAX_STRING_LEN", encode.DefaultMaxStringLen),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// ModelOptions returns the schema.Model options implied by the configuration.
func (c *Config) ModelOptions() []schema.Option {
	return []schema.Option{
		schema.WithSampleSize(c.SampleSize),
		schema.WithArrayTraversal(c.TraverseArrays),
	}
}

// DecodeOptions returns the decoder options implied by the configuration.
func (c *Config) DecodeOptions() []decode.Option {
	return []decode.Option{
		decode.WithMaxDepth(c.MaxDepth),
		decode.WithMaxDocumentBytes(c.MaxDocumentBytes),
	}
}

// CompactOptions returns the sample compaction settings.
func (c *Config) CompactOptions() *encode.CompactOptions {
	return &encode.CompactOptions{
		MaxArrayItems: c.CompactMaxArrayItems,
		MaxStringLen:  c.CompactMaxStringLen,
	}
}

// LoggingConfig returns the logging settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		FilePath:   c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
		Compress:   c.LogCompress,
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
