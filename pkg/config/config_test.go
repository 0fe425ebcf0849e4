package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 6, cfg.Search.MaxSubtokens)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 512, cfg.Model.MaxLength)
	assert.Equal(t, "lexical", cfg.Resolve.Strategy)
}

func TestLoadConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `
[model]
backend = "mock"
vocab_format = "wordpiece"
mask_token = "<MASK>"

[resolve]
strategy = "structural"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMock, cfg.Model.Backend)
	assert.Equal(t, "<MASK>", cfg.Model.Specials().Mask)
	assert.Equal(t, "structural", cfg.Resolve.Strategy)
	assert.Equal(t, 512, cfg.Model.MaxLength)
	assert.Equal(t, 6, cfg.Search.MaxSubtokens)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := writeConfig(t, `
[search]
max_subtokens = "six"
top_k = 3
parallel = true

[model]
backend = "mock"
max_length = 128
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Search.MaxSubtokens, "ill-typed value falls back to the default")
	assert.Equal(t, 3, cfg.Search.TopK)
	assert.True(t, cfg.Search.Parallel)
	assert.Equal(t, BackendMock, cfg.Model.Backend)
	assert.Equal(t, 128, cfg.Model.MaxLength)
}

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := writeConfig(t, "[search]\ntop_k = 2\n")

	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 2, cfg.Search.TopK)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"max length", func(c *Config) { c.Model.MaxLength = 2 }, "max_length"},
		{"subtokens", func(c *Config) { c.Search.MaxSubtokens = 0 }, "max_subtokens"},
		{"top k", func(c *Config) { c.Search.TopK = 0 }, "top_k"},
		{"backend", func(c *Config) { c.Model.Backend = "onnx" }, "backend"},
		{"format", func(c *Config) { c.Model.VocabFormat = "unigram" }, "vocab_format"},
		{"strategy", func(c *Config) { c.Resolve.Strategy = "semantic" }, "strategy"},
		{"placeholder", func(c *Config) { c.Search.Placeholder = "" }, "placeholder"},
		{"code bytes", func(c *Config) { c.Server.MaxCodeBytes = 0 }, "max_code_bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestLoadConfigIgnoresUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[search]\ntopk = 3\ntop_k = 4\n\n[cache]\nsize = 10\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Search.TopK)
	assert.Equal(t, 6, cfg.Search.MaxSubtokens)
}

func TestSaveConfigReplacesExistingFile(t *testing.T) {
	path := writeConfig(t, "[search]\ntop_k = 2\n")

	cfg := DefaultConfig()
	cfg.Search.TopK = 7
	require.NoError(t, SaveConfig(cfg, path))

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, again.Search.TopK)
}
