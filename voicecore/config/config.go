// Package config provides pipeline configuration - NO provider credentials.
//
// This module contains ONLY configuration relevant to pipeline behavior:
//   - Authorization code parameters
//   - Retrieval limits
//   - Timeouts
//   - LLM backend ordering
//
// Provider credentials (mail API keys, calendar OAuth, LLM API keys) are
// read from the environment by the binary that wires providers in.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds pipeline configuration.
//
// It is provider-agnostic and applies regardless of which email, calendar,
// or LLM backends are wired in.
type Config struct {
	// Authorization
	CodeLength      int `json:"code_length" yaml:"code_length"`
	CodeTTLMinutes  int `json:"code_ttl_minutes" yaml:"code_ttl_minutes"`
	MaxCodeAttempts int `json:"max_code_attempts" yaml:"max_code_attempts"`

	// Retrieval Limits
	MaxThreadFetch   int `json:"max_thread_fetch" yaml:"max_thread_fetch"`
	MaxSenderHistory int `json:"max_sender_history" yaml:"max_sender_history"`
	CalendarDaysAhead int `json:"calendar_days_ahead" yaml:"calendar_days_ahead"`

	// Timeouts (seconds)
	LLMTimeout   int `json:"llm_timeout" yaml:"llm_timeout"`
	StageTimeout int `json:"stage_timeout" yaml:"stage_timeout"`

	// Sessions
	SessionTTLMinutes int `json:"session_ttl_minutes" yaml:"session_ttl_minutes"`

	// Audit
	MaxBufferedLogs int `json:"max_buffered_logs" yaml:"max_buffered_logs"`

	// LLM backend order for the reasoning cascade. Entries are
	// "kind:model" pairs, e.g. "openai:gpt-4o" or "ollama:llama3".
	LLMBackends []string `json:"llm_backends" yaml:"llm_backends"`

	// Behavior
	AgentName   string `json:"agent_name" yaml:"agent_name"`
	DefaultTone string `json:"default_tone" yaml:"default_tone"`

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		// Authorization
		CodeLength:      6,
		CodeTTLMinutes:  5,
		MaxCodeAttempts: 3,

		// Retrieval Limits
		MaxThreadFetch:    10,
		MaxSenderHistory:  5,
		CalendarDaysAhead: 7,

		// Timeouts (seconds)
		LLMTimeout:   120,
		StageTimeout: 60,

		// Sessions
		SessionTTLMinutes: 60,

		// Audit
		MaxBufferedLogs: 1000,

		LLMBackends: []string{"openai:gpt-4o", "anthropic:claude-sonnet-4-5", "ollama:llama3"},

		// Behavior
		AgentName:   "assistant",
		DefaultTone: "warm",

		// Logging
		LogLevel: "INFO",
		LogFile:  "",
	}
}

// FromMap creates a Config from a map.
// Unknown keys are ignored.
func FromMap(config map[string]any) *Config {
	c := Default()

	if v, ok := config["code_length"].(int); ok {
		c.CodeLength = v
	} else if v, ok := config["code_length"].(float64); ok {
		c.CodeLength = int(v)
	}
	if v, ok := config["code_ttl_minutes"].(int); ok {
		c.CodeTTLMinutes = v
	} else if v, ok := config["code_ttl_minutes"].(float64); ok {
		c.CodeTTLMinutes = int(v)
	}
	if v, ok := config["max_code_attempts"].(int); ok {
		c.MaxCodeAttempts = v
	} else if v, ok := config["max_code_attempts"].(float64); ok {
		c.MaxCodeAttempts = int(v)
	}
	if v, ok := config["max_thread_fetch"].(int); ok {
		c.MaxThreadFetch = v
	} else if v, ok := config["max_thread_fetch"].(float64); ok {
		c.MaxThreadFetch = int(v)
	}
	if v, ok := config["max_sender_history"].(int); ok {
		c.MaxSenderHistory = v
	} else if v, ok := config["max_sender_history"].(float64); ok {
		c.MaxSenderHistory = int(v)
	}
	if v, ok := config["calendar_days_ahead"].(int); ok {
		c.CalendarDaysAhead = v
	} else if v, ok := config["calendar_days_ahead"].(float64); ok {
		c.CalendarDaysAhead = int(v)
	}
	if v, ok := config["llm_timeout"].(int); ok {
		c.LLMTimeout = v
	} else if v, ok := config["llm_timeout"].(float64); ok {
		c.LLMTimeout = int(v)
	}
	if v, ok := config["stage_timeout"].(int); ok {
		c.StageTimeout = v
	} else if v, ok := config["stage_timeout"].(float64); ok {
		c.StageTimeout = int(v)
	}
	if v, ok := config["session_ttl_minutes"].(int); ok {
		c.SessionTTLMinutes = v
	} else if v, ok := config["session_ttl_minutes"].(float64); ok {
		c.SessionTTLMinutes = int(v)
	}
	if v, ok := config["max_buffered_logs"].(int); ok {
		c.MaxBufferedLogs = v
	} else if v, ok := config["max_buffered_logs"].(float64); ok {
		c.MaxBufferedLogs = int(v)
	}
	if v, ok := config["llm_backends"].([]string); ok {
		c.LLMBackends = v
	} else if v, ok := config["llm_backends"].([]any); ok {
		backends := make([]string, 0, len(v))
		for _, b := range v {
			if s, ok := b.(string); ok {
				backends = append(backends, s)
			}
		}
		c.LLMBackends = backends
	}
	if v, ok := config["agent_name"].(string); ok {
		c.AgentName = v
	}
	if v, ok := config["default_tone"].(string); ok {
		c.DefaultTone = v
	}
	if v, ok := config["log_level"].(string); ok {
		c.LogLevel = v
	}
	if v, ok := config["log_file"].(string); ok {
		c.LogFile = v
	}

	return c
}

// ToMap converts the config to a map.
func (c *Config) ToMap() map[string]any {
	return map[string]any{
		"code_length":         c.CodeLength,
		"code_ttl_minutes":    c.CodeTTLMinutes,
		"max_code_attempts":   c.MaxCodeAttempts,
		"max_thread_fetch":    c.MaxThreadFetch,
		"max_sender_history":  c.MaxSenderHistory,
		"calendar_days_ahead": c.CalendarDaysAhead,
		"llm_timeout":         c.LLMTimeout,
		"stage_timeout":       c.StageTimeout,
		"session_ttl_minutes": c.SessionTTLMinutes,
		"max_buffered_logs":   c.MaxBufferedLogs,
		"llm_backends":        c.LLMBackends,
		"agent_name":          c.AgentName,
		"default_tone":        c.DefaultTone,
		"log_level":           c.LogLevel,
		"log_file":            c.LogFile,
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	if c.CodeLength < 4 || c.CodeLength > 12 {
		return fmt.Errorf("code_length must be between 4 and 12, got %d", c.CodeLength)
	}
	if c.CodeTTLMinutes <= 0 {
		return fmt.Errorf("code_ttl_minutes must be positive, got %d", c.CodeTTLMinutes)
	}
	if c.MaxCodeAttempts <= 0 {
		return fmt.Errorf("max_code_attempts must be positive, got %d", c.MaxCodeAttempts)
	}
	if c.MaxBufferedLogs <= 0 {
		return fmt.Errorf("max_buffered_logs must be positive, got %d", c.MaxBufferedLogs)
	}
	if len(c.LLMBackends) == 0 {
		return fmt.Errorf("llm_backends must name at least one backend")
	}
	return nil
}

// LoadFile reads a YAML config file and overlays it on the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
