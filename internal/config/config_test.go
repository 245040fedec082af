package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from a directory without a config file.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "intel-crawler.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Crawl.PageBudget)
	assert.Equal(t, 90, cfg.Crawl.TimeoutSecs)
	assert.Equal(t, 24, cfg.Crawl.CacheTTLHours)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, int64(4096), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "output.xlsx", cfg.Report.OutputPath)
	assert.Equal(t, "Results", cfg.Report.SheetName)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("INTEL_SERVER_PORT", "9999")
	t.Setenv("INTEL_CRAWL_PAGE_BUDGET", "7")
	t.Setenv("INTEL_ANTHROPIC_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Crawl.PageBudget)
	assert.Equal(t, "sk-test", cfg.Anthropic.Key)
}

func TestLoadConfigFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	yaml := "server:\n  port: 4242\ncrawl:\n  keywords:\n    - impressum\n    - unternehmen\n"
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4242, cfg.Server.Port)
	assert.Equal(t, []string{"impressum", "unternehmen"}, cfg.Crawl.Keywords)
	// Untouched keys keep defaults.
	assert.Equal(t, 3, cfg.Crawl.PageBudget)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
