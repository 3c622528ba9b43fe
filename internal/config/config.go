// Package config loads gateway configuration from environment variables.
//
// The gateway takes no config file: every knob listed in the specification's
// external-interfaces section is an environment variable, so koanf is used
// purely as a typed, defaulted env-var reader rather than for its file-format
// support.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// Config holds every environment-derived setting the gateway needs at startup.
type Config struct {
	OpenAIAPIKey      string
	OpenAIModel       string
	Port              string
	LogEvents         bool
	LogDir            string
	MaxRequestBytes   int64
	RequestTimeout    time.Duration
	ConversationTTL   time.Duration
	ConversationSweep time.Duration
	PingInterval      time.Duration
}

const (
	defaultOpenAIModel       = "gpt-4.1"
	defaultPort              = "8082"
	defaultLogDir            = "./logs"
	defaultMaxRequestBytes   = 10 << 20
	defaultConversationTTL   = 30 * time.Minute
	defaultConversationSweep = 5 * time.Minute
	defaultPingInterval      = 15 * time.Second
)

// Load reads configuration from the process environment. OPENAI_API_KEY is
// mandatory; every other variable falls back to the default constants
// defined in this package.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"openai_model":        defaultOpenAIModel,
		"port":                defaultPort,
		"log_events":          "false",
		"log_dir":             defaultLogDir,
		"max_request_bytes":   strconv.Itoa(defaultMaxRequestBytes),
		"request_timeout_ms":  "0",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return normalizeEnvKey(key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	apiKey := k.String("openai_api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	timeoutMS, err := strconv.Atoi(k.String("request_timeout_ms"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_MS must be an integer: %w", err)
	}

	logEvents, err := strconv.ParseBool(k.String("log_events"))
	if err != nil {
		return nil, fmt.Errorf("LOG_EVENTS must be a boolean: %w", err)
	}

	maxRequestBytes, err := strconv.ParseInt(k.String("max_request_bytes"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_REQUEST_BYTES must be an integer: %w", err)
	}

	cfg := &Config{
		OpenAIAPIKey:      apiKey,
		OpenAIModel:       k.String("openai_model"),
		Port:              k.String("port"),
		LogEvents:         logEvents,
		LogDir:            k.String("log_dir"),
		MaxRequestBytes:   maxRequestBytes,
		RequestTimeout:    time.Duration(timeoutMS) * time.Millisecond,
		ConversationTTL:   defaultConversationTTL,
		ConversationSweep: defaultConversationSweep,
		PingInterval:      defaultPingInterval,
	}

	return cfg, nil
}

// normalizeEnvKey maps SCREAMING_SNAKE_CASE environment variable names onto
// the lower_snake_case keys used internally by the koanf store.
func normalizeEnvKey(key string) string {
	out := make([]byte, len(key))
	for i := range key {
		c := key[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
