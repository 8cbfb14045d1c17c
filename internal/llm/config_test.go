package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SAGE_LLM_PROVIDER", "SAGE_LLM_TIMEOUT",
		"SAGE_ANTHROPIC_API_KEY", "SAGE_ANTHROPIC_MODEL",
		"SAGE_OPENAI_API_KEY", "SAGE_OPENAI_MODEL", "SAGE_OPENAI_BASE_URL",
		"SAGE_GEMINI_API_KEY", "SAGE_GEMINI_MODEL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SAGE_LLM_PROVIDER", "openai")
	t.Setenv("SAGE_OPENAI_API_KEY", "sk-test")
	t.Setenv("SAGE_OPENAI_MODEL", "gpt-test")
	t.Setenv("SAGE_LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	require.Equal(t, "openai", cfg.Provider)
	require.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	require.Equal(t, "gpt-test", cfg.OpenAI.Model)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_DefaultsWhenUnset(t *testing.T) {
	clearProviderEnv(t)

	cfg := ConfigFromEnv()
	require.Equal(t, "gemini", cfg.Provider)
	require.Error(t, cfg.Validate(), "default provider without a key must not validate")
}

func TestDiscoverConfig_PriorityOrder(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-anthropic")

	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	require.Equal(t, "openai", cfg.Provider, "openai outranks anthropic in discovery")

	t.Setenv("GEMINI_API_KEY", "sk-gemini")
	cfg, ok = DiscoverConfig()
	require.True(t, ok)
	require.Equal(t, "gemini", cfg.Provider, "gemini outranks everything in discovery")
}

func TestDiscoverConfig_NothingFound(t *testing.T) {
	clearProviderEnv(t)
	_, ok := DiscoverConfig()
	require.False(t, ok)
}

func TestValidate_MockNeedsNoKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	require.NoError(t, cfg.Validate())

	cfg.Provider = "carrier-pigeon"
	require.Error(t, cfg.Validate())
}
