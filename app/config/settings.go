// Package config defines application settings independent of their source (yaml file, database or cli),
// with defaults, validation, persistence and encryption of sensitive fields.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/umputun/form-spam/lib/formspam"
)

// Settings represents application configuration
type Settings struct {
	InstanceID string `json:"instance_id" yaml:"instance_id"`

	Detection  formspam.Settings  `json:"detection" yaml:"detection"` // per-call scoring settings
	Remote     RemoteSettings     `json:"remote" yaml:"remote"`
	LuaPlugins LuaPluginsSettings `json:"lua_plugins" yaml:"lua_plugins"`
	Files      FilesSettings      `json:"files" yaml:"files"`
	Logger     LoggerSettings     `json:"logger" yaml:"logger"`
	Storage    StorageSettings    `json:"storage" yaml:"storage"`
	Server     ServerSettings     `json:"server" yaml:"server"`

	// transient fields that should never be stored
	Transient TransientSettings `json:"-" yaml:"-"`
}

// RemoteSettings contains remote model settings, credential and model are part of Detection
type RemoteSettings struct {
	Provider          formspam.Provider `json:"provider" yaml:"provider"`
	APIBase           string            `json:"api_base" yaml:"api_base"` // custom openai-compatible endpoint
	Timeout           time.Duration     `json:"timeout" yaml:"timeout"`
	MaxTokensResponse int               `json:"max_tokens_response" yaml:"max_tokens_response"`
	MaxTokensRequest  int               `json:"max_tokens_request" yaml:"max_tokens_request"`
	MaxSymbolsRequest int               `json:"max_symbols_request" yaml:"max_symbols_request"`
	RateLimitMax      int               `json:"rate_limit_max" yaml:"rate_limit_max"`
	RateLimitWindow   time.Duration     `json:"rate_limit_window" yaml:"rate_limit_window"`
	RedisURL          string            `json:"redis_url" yaml:"redis_url"` // shared rate limiter, in-memory if empty
}

// LuaPluginsSettings contains Lua plugins settings
type LuaPluginsSettings struct {
	Enabled        bool     `json:"enabled" yaml:"enabled"`
	PluginsDir     string   `json:"plugins_dir" yaml:"plugins_dir"`
	EnabledPlugins []string `json:"enabled_plugins" yaml:"enabled_plugins"`
	DynamicReload  bool     `json:"dynamic_reload" yaml:"dynamic_reload"`
}

// FilesSettings contains file location settings
type FilesSettings struct {
	PhrasesFile string `json:"phrases_file" yaml:"phrases_file"` // extra spam phrases, one per line, watched for changes
}

// LoggerSettings contains spam log settings
type LoggerSettings struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	FileName   string `json:"file_name" yaml:"file_name"`
	MaxSize    string `json:"max_size" yaml:"max_size"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
}

// StorageSettings contains submissions storage settings
type StorageSettings struct {
	Persist       bool `json:"persist" yaml:"persist"`               // store scored submissions
	RetentionDays int  `json:"retention_days" yaml:"retention_days"` // 0 keeps everything
	HistorySize   int  `json:"history_size" yaml:"history_size"`     // in-memory recent verdicts
}

// ServerSettings contains web server settings
type ServerSettings struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	AuthUser   string `json:"auth_user" yaml:"auth_user"`
	AuthHash   string `json:"auth_hash" yaml:"auth_hash"` // bcrypt hash of the password
	MaxBodyKB  int    `json:"max_body_kb" yaml:"max_body_kb"`
	RateLimit  int    `json:"rate_limit" yaml:"rate_limit"` // requests per second per client, 0 disables
}

// TransientSettings contains settings that should never be persisted
type TransientSettings struct {
	DataBaseURL        string `json:"-" yaml:"-"`
	ConfigDB           bool   `json:"-" yaml:"-"`
	ConfigDBEncryptKey string `json:"-" yaml:"-"`
	WebAuthPasswd      string `json:"-" yaml:"-"` // plain password, used only to make the hash
	Dbg                bool   `json:"-" yaml:"-"`
}

// New makes settings with default values
func New() *Settings {
	return &Settings{
		InstanceID: "form-spam",
		Detection:  formspam.DefaultSettings(),
		Remote: RemoteSettings{
			Provider:          formspam.ProviderOpenAI,
			Timeout:           45 * time.Second,
			MaxTokensResponse: 500,
			MaxTokensRequest:  2048,
			MaxSymbolsRequest: 8192,
			RateLimitMax:      formspam.DefaultRateLimitMax,
			RateLimitWindow:   formspam.DefaultRateLimitWindow,
		},
		Logger:  LoggerSettings{FileName: "logs/spam.log", MaxSize: "100M", MaxBackups: 10},
		Storage: StorageSettings{Persist: true, RetentionDays: 30, HistorySize: 100},
		Server:  ServerSettings{ListenAddr: ":8080", MaxBodyKB: 64, RateLimit: 10},
	}
}

// Load reads yaml settings from the file over the defaults
func Load(fname string) (*Settings, error) {
	fh, err := os.Open(fname) //nolint:gosec // file name from cli
	if err != nil {
		return nil, fmt.Errorf("failed to open settings file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Parse decodes yaml settings over the defaults and validates the result. Unknown keys are rejected.
func Parse(r io.Reader) (*Settings, error) {
	res := New()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(res); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return res, nil
}

// Validate checks all settings, returns all problems found
func (s *Settings) Validate() error {
	var errs *multierror.Error
	if err := s.Detection.Validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	switch s.Remote.Provider {
	case formspam.ProviderOpenAI, formspam.ProviderGemini:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unsupported remote provider %q", s.Remote.Provider))
	}
	if s.Remote.RateLimitMax <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("rate_limit_max must be positive, got %d", s.Remote.RateLimitMax))
	}
	if s.Remote.RateLimitWindow <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("rate_limit_window must be positive, got %v", s.Remote.RateLimitWindow))
	}
	if s.Remote.Timeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("remote timeout must be positive, got %v", s.Remote.Timeout))
	}
	if s.Storage.RetentionDays < 0 {
		errs = multierror.Append(errs, fmt.Errorf("retention_days can't be negative, got %d", s.Storage.RetentionDays))
	}
	if s.LuaPlugins.Enabled && s.LuaPlugins.PluginsDir == "" {
		errs = multierror.Append(errs, errors.New("lua plugins enabled without plugins_dir"))
	}
	return errs.ErrorOrNil()
}

// RemoteConfig makes remote detector config, credential and model come from Detection on every call
func (s *Settings) RemoteConfig() formspam.RemoteConfig {
	return formspam.RemoteConfig{
		Provider:          s.Remote.Provider,
		Timeout:           s.Remote.Timeout,
		MaxTokensResponse: s.Remote.MaxTokensResponse,
		MaxTokensRequest:  s.Remote.MaxTokensRequest,
		MaxSymbolsRequest: s.Remote.MaxSymbolsRequest,
	}
}

// Masked returns a copy with secrets replaced by a mask, for display
func (s *Settings) Masked() *Settings {
	res := *s
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "****"
	}
	res.Detection.OpenAIAPIKey = mask(res.Detection.OpenAIAPIKey)
	res.Server.AuthHash = mask(res.Server.AuthHash)
	res.Remote.RedisURL = mask(res.Remote.RedisURL)
	res.Transient = TransientSettings{}
	return &res
}
