package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, "config.json", `{"llm":[{"type":"openai","models":["gpt-4o"]}]}`)

	cfg, sysCfg, err := Load("config.json")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "Majen", cfg.DefaultMentorName)

	// No system.json on disk, so engine defaults apply.
	assert.Equal(t, 8, sysCfg.MaxTurns)
	assert.Equal(t, 20, sysCfg.HistoryWindow)
	assert.True(t, sysCfg.EnableGuardrails)
}

func TestLoadRejectsMissingLLM(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, "config.json", `{"server":{"port":9000}}`)

	_, _, err := Load("config.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm")
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := Load("config.json")
	require.Error(t, err)
}

func TestLoadSystemConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "system.json", `{"max_turns":3,"log_level":"debug"}`)

	sysCfg := LoadSystemConfig(path)

	assert.Equal(t, 3, sysCfg.MaxTurns)
	assert.Equal(t, "debug", sysCfg.LogLevel)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3, sysCfg.MaxRetries)
	assert.Equal(t, 90000, sysCfg.LLMTimeoutMs)
}

func TestLoadSystemConfigCorruptFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "system.json", `{not json`)

	sysCfg := LoadSystemConfig(path)
	assert.Equal(t, DefaultSystemConfig(), sysCfg)
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	t.Setenv("PORT", "8100")

	cfg := &Config{}
	sec, err := LoadSecrets(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://example.supabase.co", sec.SupabaseURL)
	assert.Equal(t, "service-key", sec.SupabaseKey)
	assert.Equal(t, 8100, cfg.Server.Port)
}

func TestLoadSecretsRequiresSupabase(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_SERVICE_KEY", "")

	_, err := LoadSecrets(&Config{})
	require.Error(t, err)
}

func TestLoadSecretsRejectsBadPort(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	t.Setenv("PORT", "not-a-number")

	_, err := LoadSecrets(&Config{})
	require.Error(t, err)
}
