package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vecflat"
	"github.com/hupe1980/vecflat/blobstore"
	miniostore "github.com/hupe1980/vecflat/blobstore/minio"
	s3store "github.com/hupe1980/vecflat/blobstore/s3"
	"github.com/hupe1980/vecflat/codec"
	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/persistence"
)

// Config is the YAML configuration of the CLI.
type Config struct {
	Dimension      int     `yaml:"dimension"`
	Metric         string  `yaml:"metric"`
	MetricArg      float32 `yaml:"metric_arg"`
	Encoder        string  `yaml:"encoder"`
	Parallelism    int     `yaml:"parallelism"`
	BLASThreshold  int     `yaml:"blas_threshold"`
	MemoryLimit    int64   `yaml:"memory_limit"`
	MaxScanWorkers int64   `yaml:"max_scan_workers"`

	Snapshot SnapshotConfig `yaml:"snapshot"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// SnapshotConfig configures snapshot encoding.
type SnapshotConfig struct {
	Compression string `yaml:"compression"`
	RateLimit   int64  `yaml:"rate_limit"`
}

// StoreConfig selects and configures the blob store holding snapshots.
type StoreConfig struct {
	Type      string `yaml:"type"` // local, s3 or minio
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		Dimension:     128,
		Metric:        "L2",
		Encoder:       "flat",
		BLASThreshold: 20,
		Snapshot:      SnapshotConfig{Compression: "zstd"},
		Store:         StoreConfig{Type: "local", Path: "./snapshots"},
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be checked by the index itself.
func (c Config) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if _, err := distance.ParseMetric(c.Metric); err != nil {
		return err
	}
	if _, ok := codec.EncoderByName(c.Encoder); !ok {
		return fmt.Errorf("unknown encoder %q", c.Encoder)
	}
	if _, err := persistence.ParseCompression(c.Snapshot.Compression); err != nil {
		return err
	}
	switch c.Store.Type {
	case "local":
	case "s3", "minio":
		if c.Store.Bucket == "" {
			return fmt.Errorf("store %s needs a bucket", c.Store.Type)
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	return nil
}

// IndexOptions translates the configuration into index options.
func (c Config) IndexOptions(logger *vecflat.Logger) ([]vecflat.Option, error) {
	metric, err := distance.ParseMetric(c.Metric)
	if err != nil {
		return nil, err
	}
	enc, ok := codec.EncoderByName(c.Encoder)
	if !ok {
		return nil, fmt.Errorf("unknown encoder %q", c.Encoder)
	}
	comp, err := persistence.ParseCompression(c.Snapshot.Compression)
	if err != nil {
		return nil, err
	}
	return []vecflat.Option{
		vecflat.WithMetric(metric),
		vecflat.WithMetricArg(c.MetricArg),
		vecflat.WithEncoder(enc),
		vecflat.WithParallelism(c.Parallelism),
		vecflat.WithBLASThreshold(c.BLASThreshold),
		vecflat.WithMemoryLimit(c.MemoryLimit),
		vecflat.WithMaxScanWorkers(c.MaxScanWorkers),
		vecflat.WithSnapshotCompression(comp),
		vecflat.WithSnapshotRateLimit(c.Snapshot.RateLimit),
		vecflat.WithLogger(logger),
	}, nil
}

// Logger builds the configured logger.
func (c Config) Logger() (*vecflat.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, err
	}
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return vecflat.NewJSONLogger(level), nil
	case "", "text":
		return vecflat.NewTextLogger(level), nil
	}
	return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
}

// OpenStore connects to the configured blob store.
func (c Config) OpenStore(ctx context.Context) (blobstore.BlobStore, error) {
	sc := c.Store
	switch sc.Type {
	case "local":
		if err := os.MkdirAll(sc.Path, 0o755); err != nil {
			return nil, err
		}
		return blobstore.NewLocalStore(sc.Path), nil
	case "s3":
		var optFns []func(*s3store.Options)
		if sc.Prefix != "" {
			optFns = append(optFns, s3store.WithPrefix(sc.Prefix))
		}
		if sc.Region != "" {
			optFns = append(optFns, s3store.WithRegion(sc.Region))
		}
		store, err := s3store.New(ctx, sc.Bucket, optFns...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "minio":
		client, err := minio.New(sc.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(sc.AccessKey, sc.SecretKey, ""),
			Secure: sc.UseSSL,
			Region: sc.Region,
		})
		if err != nil {
			return nil, err
		}
		store, err := miniostore.New(ctx, client, sc.Bucket, miniostore.WithPrefix(sc.Prefix))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store type %q", sc.Type)
}
