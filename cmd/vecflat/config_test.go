package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecflat"
	"github.com/hupe1980/vecflat/blobstore"
	"github.com/hupe1980/vecflat/testutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vecflat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
dimension: 16
metric: ip
encoder: float16
snapshot:
  compression: lz4
store:
  type: local
  path: /tmp/snaps
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Dimension)
	assert.Equal(t, "ip", cfg.Metric)
	assert.Equal(t, "float16", cfg.Encoder)
	assert.Equal(t, "lz4", cfg.Snapshot.Compression)
	// Unset keys keep their defaults.
	assert.Equal(t, 20, cfg.BLASThreshold)

	logger, err := cfg.Logger()
	require.NoError(t, err)
	opts, err := cfg.IndexOptions(logger)
	require.NoError(t, err)

	idx, err := vecflat.New(cfg.Dimension, opts...)
	require.NoError(t, err)
	assert.Equal(t, vecflat.MetricInnerProduct, idx.Metric())
	assert.Equal(t, "float16", idx.Stats().Encoder)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"dimension":   func(c *Config) { c.Dimension = 0 },
		"metric":      func(c *Config) { c.Metric = "cosine" },
		"encoder":     func(c *Config) { c.Encoder = "pq" },
		"compression": func(c *Config) { c.Snapshot.Compression = "gzip" },
		"store type":  func(c *Config) { c.Store.Type = "ftp" },
		"bucket":      func(c *Config) { c.Store.Type = "s3" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	_, err := LoadConfig(writeConfig(t, "dimension: [1"))
	assert.Error(t, err)
}

func TestOpenLocalStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "nested", "snaps")

	store, err := cfg.OpenStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)
}

func TestBench(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dimension = 8
	idx, err := newIndex(cfg)
	require.NoError(t, err)

	benchN, benchQueries, benchK, benchChurn = 500, 25, 5, 0.2
	report, err := bench(context.Background(), idx, testutil.NewRNG(1))
	require.NoError(t, err)

	assert.Equal(t, 100, report.Deleted)
	assert.True(t, report.BLAS)
	assert.Equal(t, int64(25*500), report.Distances)
	assert.Equal(t, 500, report.FinalStats.SlotCount)
	assert.Equal(t, 0, report.FinalStats.FreeCount)
}

func TestSnapshotCommands(t *testing.T) {
	dir := t.TempDir()
	configPath = writeConfig(t, "dimension: 4\nstore:\n  type: local\n  path: "+dir+"\n")
	t.Cleanup(func() { configPath = "" })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"snapshot", "create", "a.vfs", "--n", "20", "--config", configPath})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "saved 20 vectors")

	out.Reset()
	rootCmd.SetArgs([]string{"snapshot", "inspect", "a.vfs", "--config", configPath})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "live")
	assert.Contains(t, out.String(), "20")

	out.Reset()
	rootCmd.SetArgs([]string{"search", "a.vfs", "--query", "0,0,0,0", "--k", "3", "--config", configPath})
	require.NoError(t, rootCmd.Execute())
	assert.Len(t, bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n")), 3)

	out.Reset()
	rootCmd.SetArgs([]string{"snapshot", "list", "--config", configPath})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "a.vfs\n", out.String())
}

func TestParseVector(t *testing.T) {
	v, err := parseVector("1, 2.5,-3")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2.5, -3}, v)

	_, err = parseVector("1,x")
	assert.Error(t, err)
}
