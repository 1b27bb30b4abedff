// Package config provides configuration for the AG-UI server, client and dojo relay.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvFile is the dotenv file read before the process environment.
const DefaultEnvFile = ".env"

// Server defaults.
const (
	ListenHost        = "127.0.0.1"
	ListenPort        = 8888
	DefaultAPIVersion = "2024-10-21"

	// ModeMock swaps the agent chat client for the mock client.
	ModeMock = "MOCK"
)

// DefaultServerURL is the AG-UI endpoint targeted when AGUI_SERVER_URL is unset.
const DefaultServerURL = "http://127.0.0.1:8888/"

const openAIV1Suffix = "/openai/v1"

var (
	// ErrMissingEndpoint is returned when AZURE_OPENAI_ENDPOINT is not set.
	ErrMissingEndpoint = errors.New("AZURE_OPENAI_ENDPOINT is not set.")
	// ErrMissingDeployment is returned when AZURE_OPENAI_DEPLOYMENT_NAME is not set.
	ErrMissingDeployment = errors.New("AZURE_OPENAI_DEPLOYMENT_NAME is not set.")
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	// Azure OpenAI
	Endpoint       string // normalized, without /openai/v1 and trailing slash
	DeploymentName string
	APIVersion     string

	// ProjectEndpoint is read from AZURE_AIPROJECT_ENDPOINT and kept for
	// reference only. Nothing consumes it.
	ProjectEndpoint string

	// Mode is "MOCK" to run the agent against the mock chat client.
	Mode string

	// Logging
	LogLevel  string
	LogFormat string
}

// ClientConfig holds the chat client configuration.
type ClientConfig struct {
	ServerURL string

	LogLevel  string
	LogFormat string
}

// DojoConfig holds the dojo relay configuration.
type DojoConfig struct {
	Port      int
	Endpoint  string
	StaticDir string

	LogLevel  string
	LogFormat string
}

// ListenAddr returns the fixed address the server binds.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", ListenHost, ListenPort)
}

// ResponsesBaseURL returns the base URL for raw OpenAI v1 API calls.
func (c *ServerConfig) ResponsesBaseURL() string {
	return BaseURL(c.Endpoint)
}

// IsMock reports whether the mock chat client was requested.
func (c *ServerConfig) IsMock() bool {
	return strings.EqualFold(c.Mode, ModeMock)
}

// NormalizeEndpoint strips a trailing slash and a trailing /openai/v1 from an
// Azure OpenAI endpoint.
func NormalizeEndpoint(endpoint string) string {
	normalized := strings.TrimRight(endpoint, "/")
	return strings.TrimSuffix(normalized, openAIV1Suffix)
}

// BaseURL returns the OpenAI v1 base URL for a normalized endpoint.
func BaseURL(normalized string) string {
	return normalized + openAIV1Suffix + "/"
}

// LoadServerFrom loads the server configuration from the given dotenv file and
// the environment. An empty path skips the file.
func LoadServerFrom(envFile string) (*ServerConfig, error) {
	v, err := newViper(envFile)
	if err != nil {
		return nil, err
	}
	v.SetDefault("azure_openai_api_version", DefaultAPIVersion)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	endpoint := getEnv(v, "AZURE_OPENAI_ENDPOINT")
	deployment := getEnv(v, "AZURE_OPENAI_DEPLOYMENT_NAME")
	project := getEnv(v, "AZURE_AIPROJECT_ENDPOINT")

	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if deployment == "" {
		return nil, ErrMissingDeployment
	}

	return &ServerConfig{
		Endpoint:        NormalizeEndpoint(endpoint),
		DeploymentName:  deployment,
		APIVersion:      getEnv(v, "AZURE_OPENAI_API_VERSION"),
		ProjectEndpoint: project,
		Mode:            getEnv(v, "AGUI_MODE"),
		LogLevel:        getEnv(v, "LOG_LEVEL"),
		LogFormat:       getEnv(v, "LOG_FORMAT"),
	}, nil
}

// LoadClientFrom loads the chat client configuration from the given dotenv
// file and the environment.
func LoadClientFrom(envFile string) (*ClientConfig, error) {
	v, err := newViper(envFile)
	if err != nil {
		return nil, err
	}
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")

	serverURL := getEnv(v, "AGUI_SERVER_URL")
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	return &ClientConfig{
		ServerURL: serverURL,
		LogLevel:  getEnv(v, "LOG_LEVEL"),
		LogFormat: getEnv(v, "LOG_FORMAT"),
	}, nil
}

// LoadDojoFrom loads the dojo relay configuration from the given dotenv file
// and the environment.
func LoadDojoFrom(envFile string) (*DojoConfig, error) {
	v, err := newViper(envFile)
	if err != nil {
		return nil, err
	}
	v.SetDefault("port", 3000)
	v.SetDefault("agui_endpoint", DefaultServerURL)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	return &DojoConfig{
		Port:      v.GetInt("port"),
		Endpoint:  getEnv(v, "AGUI_ENDPOINT"),
		StaticDir: getEnv(v, "DOJO_STATIC_DIR"),
		LogLevel:  getEnv(v, "LOG_LEVEL"),
		LogFormat: getEnv(v, "LOG_FORMAT"),
	}, nil
}

// LoadLogFrom reads only LOG_LEVEL and LOG_FORMAT, so a logger can exist
// before the rest of the configuration is validated.
func LoadLogFrom(envFile string) (level, format string, err error) {
	v, err := newViper(envFile)
	if err != nil {
		return "", "", err
	}
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	return getEnv(v, "LOG_LEVEL"), getEnv(v, "LOG_FORMAT"), nil
}

// newViper returns a viper instance reading the environment, layered over the
// dotenv file when it exists.
func newViper(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	if envFile == "" {
		return v, nil
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	return v, nil
}

func getEnv(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(strings.ToLower(key)))
}
