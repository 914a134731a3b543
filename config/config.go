package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidConfig = errors.New("invalid gallery configuration")
)

const (
	SourceHTTP   = "http"
	SourceAzblob = "azblob"

	GroupingMonth  = "month"
	GroupingSource = "source"

	EnvBaseURL  = "GALLERY_BASE_URL"
	EnvAPIKey   = "GALLERY_API_KEY"
	EnvPageSize = "GALLERY_PAGE_SIZE"
)

// Config is the configuration of one gallery session
type Config struct {
	// Source selects where assets and thumbnails come from: http or azblob
	Source string       `yaml:"source"`
	API    APIConfig    `yaml:"api"`
	Blob   BlobConfig   `yaml:"blob"`
	Layout LayoutConfig `yaml:"layout"`
	Queue  QueueConfig  `yaml:"queue"`
	Thumbs ThumbsConfig `yaml:"thumbs"`
}

type APIConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	TimeoutS int    `yaml:"timeout_s"`
}

type BlobConfig struct {
	Container string `yaml:"container"`
	// MetadataCBOR selects the CBOR metadata records when writing edits back
	MetadataCBOR bool `yaml:"metadata_cbor"`
}

type LayoutConfig struct {
	TargetRowHeight float64 `yaml:"target_row_height"`
	HeadingHeight   float64 `yaml:"heading_height"`
	BufferRows      int     `yaml:"buffer_rows"` // rows prefetched either side of the viewport
	Grouping        string  `yaml:"grouping"`    // month, source
}

type QueueConfig struct {
	MaxInFlight int `yaml:"max_in_flight"`
}

type ThumbsConfig struct {
	UsePages      bool `yaml:"use_pages"` // packed pages rather than one request per thumbnail
	PageSize      int  `yaml:"page_size"`
	RetainPages   int  `yaml:"retain_pages"`
	EagerEviction bool `yaml:"eager_eviction"`
}

// Default returns the configuration used for anything a file leaves unset
func Default() Config {
	return Config{
		Source: SourceHTTP,
		API:    APIConfig{TimeoutS: 30},
		Layout: LayoutConfig{
			TargetRowHeight: 150,
			HeadingHeight:   45,
			BufferRows:      5,
			Grouping:        GroupingMonth,
		},
		Queue:  QueueConfig{MaxInFlight: 5},
		Thumbs: ThumbsConfig{UsePages: true, PageSize: 100},
	}
}

// Load reads a YAML configuration file, applies the environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, os.LookupEnv)
}

// Parse decodes YAML over the defaults. lookupEnv supplies the environment,
// it may be nil.
func Parse(data []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if lookupEnv != nil {
		if err := cfg.ApplyEnv(lookupEnv); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides the api location, key and page size from the environment
func (cfg *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvBaseURL); ok && v != "" {
		cfg.API.BaseURL = v
	}
	if v, ok := lookupEnv(EnvAPIKey); ok && v != "" {
		cfg.API.APIKey = v
	}
	if v, ok := lookupEnv(EnvPageSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvPageSize, v, err)
		}
		cfg.Thumbs.PageSize = n
	}
	return nil
}

func (cfg *Config) Validate() error {
	switch cfg.Source {
	case SourceHTTP:
		if cfg.API.BaseURL == "" {
			return fmt.Errorf("%w: api.base_url is required for the http source", ErrInvalidConfig)
		}
	case SourceAzblob:
		if cfg.Blob.Container == "" {
			return fmt.Errorf("%w: blob.container is required for the azblob source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, cfg.Source)
	}

	if cfg.Layout.TargetRowHeight <= 0 {
		return fmt.Errorf("%w: layout.target_row_height must be positive", ErrInvalidConfig)
	}
	if cfg.Layout.HeadingHeight <= 0 {
		return fmt.Errorf("%w: layout.heading_height must be positive", ErrInvalidConfig)
	}
	if cfg.Layout.BufferRows < 0 {
		return fmt.Errorf("%w: layout.buffer_rows must not be negative", ErrInvalidConfig)
	}
	if cfg.Layout.Grouping != GroupingMonth && cfg.Layout.Grouping != GroupingSource {
		return fmt.Errorf("%w: unknown grouping %q", ErrInvalidConfig, cfg.Layout.Grouping)
	}
	if cfg.Queue.MaxInFlight <= 0 {
		return fmt.Errorf("%w: queue.max_in_flight must be positive", ErrInvalidConfig)
	}
	if cfg.Thumbs.PageSize <= 0 {
		return fmt.Errorf("%w: thumbs.page_size must be positive", ErrInvalidConfig)
	}
	if cfg.Thumbs.RetainPages < 0 {
		return fmt.Errorf("%w: thumbs.retain_pages must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Timeout returns the api request timeout
func (cfg *Config) Timeout() time.Duration {
	return time.Duration(cfg.API.TimeoutS) * time.Second
}
