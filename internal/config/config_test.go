package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearServerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AZURE_OPENAI_ENDPOINT",
		"AZURE_OPENAI_DEPLOYMENT_NAME",
		"AZURE_AIPROJECT_ENDPOINT",
		"AZURE_OPENAI_API_VERSION",
		"AGUI_MODE",
		"AGUI_SERVER_URL",
		"LOG_LEVEL",
		"LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://x.example.com/openai/v1/", "https://x.example.com"},
		{"https://x.example.com/openai/v1", "https://x.example.com"},
		{"https://x.example.com/", "https://x.example.com"},
		{"https://x.example.com", "https://x.example.com"},
		{"https://x.example.com/openai", "https://x.example.com/openai"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEndpoint(tt.in), tt.in)
	}
	assert.Equal(t, "https://x.example.com/openai/v1/", BaseURL(NormalizeEndpoint("https://x.example.com/openai/v1/")))
}

func TestLoadServerMissingEndpoint(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o")

	cfg, err := LoadServerFrom("")
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrMissingEndpoint)
}

func TestLoadServerMissingDeployment(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://x.example.com")

	_, err := LoadServerFrom("")
	assert.ErrorIs(t, err, ErrMissingDeployment)
}

func TestLoadServer(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://x.example.com/openai/v1/")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o")
	t.Setenv("AZURE_AIPROJECT_ENDPOINT", "https://project.example.com")

	cfg, err := LoadServerFrom("")
	require.NoError(t, err)
	assert.Equal(t, "https://x.example.com", cfg.Endpoint)
	assert.Equal(t, "https://x.example.com/openai/v1/", cfg.ResponsesBaseURL())
	assert.Equal(t, "gpt-4o", cfg.DeploymentName)
	assert.Equal(t, "https://project.example.com", cfg.ProjectEndpoint)
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, "127.0.0.1:8888", cfg.ListenAddr())
	assert.False(t, cfg.IsMock())
}

func TestLoadServerEnvFile(t *testing.T) {
	clearServerEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "AZURE_OPENAI_ENDPOINT=https://file.example.com/\n" +
		"AZURE_OPENAI_DEPLOYMENT_NAME=from-file\n" +
		"AGUI_MODE=mock\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "from-env")

	cfg, err := LoadServerFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", cfg.Endpoint)
	assert.Equal(t, "from-env", cfg.DeploymentName)
	assert.True(t, cfg.IsMock())
}

func TestLoadServerMissingEnvFileIsIgnored(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://x.example.com")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o")

	_, err := LoadServerFrom(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadClientDefaultURL(t *testing.T) {
	clearServerEnv(t)

	cfg, err := LoadClientFrom("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8888/", cfg.ServerURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadClientOverride(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("AGUI_SERVER_URL", "http://agents.internal:9000/")

	cfg, err := LoadClientFrom("")
	require.NoError(t, err)
	assert.Equal(t, "http://agents.internal:9000/", cfg.ServerURL)
}

func TestLoadDojoDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AGUI_ENDPOINT", "")
	t.Setenv("DOJO_STATIC_DIR", "")

	cfg, err := LoadDojoFrom("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, DefaultServerURL, cfg.Endpoint)
	assert.Empty(t, cfg.StaticDir)
}

func TestLoadLogFrom(t *testing.T) {
	clearServerEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\n"), 0o600))

	level, format, err := LoadLogFrom(envFile)
	require.NoError(t, err)
	assert.Equal(t, "debug", level)
	assert.Equal(t, "console", format)

	t.Setenv("LOG_LEVEL", "error")
	level, _, err = LoadLogFrom(envFile)
	require.NoError(t, err)
	assert.Equal(t, "error", level)
}
