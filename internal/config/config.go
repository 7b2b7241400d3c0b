// Package config provides file-based configuration for the relay server.
// XML is the default format; .yaml and .yml paths are read as YAML.
package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"SoFExtractor" yaml:"-"`

	Server    ServerConfig    `xml:"Server" yaml:"server"`
	Processor ProcessorConfig `xml:"Processor" yaml:"processor"`
	Advanced  AdvancedConfig  `xml:"Advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int    `xml:"Port" yaml:"port" validate:"min=1,max=65535"`
	BindAddress       string `xml:"BindAddress" yaml:"bindAddress"`
	EnableCORS        bool   `xml:"EnableCORS" yaml:"enableCORS"`
	AllowOrigins      string `xml:"AllowOrigins" yaml:"allowOrigins"` // comma separated; empty means local dev origins
	ReadTimeout       int    `xml:"ReadTimeoutSeconds" yaml:"readTimeoutSeconds" validate:"min=1"`
	WriteTimeout      int    `xml:"WriteTimeoutSeconds" yaml:"writeTimeoutSeconds" validate:"min=1"`
	IdleTimeout       int    `xml:"IdleTimeoutSeconds" yaml:"idleTimeoutSeconds" validate:"min=1"`
	BodyLimit         string `xml:"BodyLimit" yaml:"bodyLimit" validate:"bytesize"`
	EnableCompression bool   `xml:"EnableCompression" yaml:"enableCompression"`
	CompressionLevel  int    `xml:"CompressionLevel" yaml:"compressionLevel" validate:"min=-1,max=9"`
}

// ProcessorConfig describes the external extraction service
type ProcessorConfig struct {
	URL             string `xml:"URL" yaml:"url" validate:"required,url"`
	TimeoutSeconds  int    `xml:"TimeoutSeconds" yaml:"timeoutSeconds" validate:"min=1"`
	RetryMax        int    `xml:"RetryMax" yaml:"retryMax" validate:"min=0,max=10"`
	MaxResponseSize string `xml:"MaxResponseSize" yaml:"maxResponseSize" validate:"bytesize"`
}

// AdvancedConfig contains logging options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" yaml:"logLevel" validate:"oneof=trace debug info warn warning error"`
	LogFormat            string `xml:"LogFormat" yaml:"logFormat" validate:"oneof=text json"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging" yaml:"enableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:              8000,
			BindAddress:       "0.0.0.0",
			EnableCORS:        true,
			AllowOrigins:      "",
			ReadTimeout:       60,
			WriteTimeout:      120,
			IdleTimeout:       120,
			BodyLimit:         "64M",
			EnableCompression: true,
			CompressionLevel:  5,
		},
		Processor: ProcessorConfig{
			URL:             "http://127.0.0.1:8001/process",
			TimeoutSeconds:  60,
			RetryMax:        0,
			MaxResponseSize: "32M",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "text",
			EnableRequestLogging: true,
		},
	}
}

// LoadDotEnv loads environment files, skipping the ones that do not exist.
// With no arguments it loads ./.env.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from an XML or YAML file. A missing file is
// created with defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if isYAML(configPath) {
			err = yaml.Unmarshal(data, config)
		} else {
			err = xml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration in the format implied by the file extension.
func (c *AppConfig) Save(configPath string) error {
	var content []byte
	if isYAML(configPath) {
		output, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		content = append([]byte("# SoF Extractor configuration\n"), output...)
	} else {
		output, err := xml.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte(xml.Header + "\n<!-- SoF Extractor Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
		content = append(header, output...)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		c.Server.BindAddress = addr
	}
	if url := os.Getenv("PROCESSOR_URL"); url != "" {
		c.Processor.URL = url
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		c.Advanced.LogLevel = strings.ToLower(lvl)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Advanced.LogFormat = strings.ToLower(format)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("bytesize", func(fl validator.FieldLevel) bool {
		_, err := humanize.ParseBytes(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetAllowOrigins returns the configured CORS origins, or nil when the local
// development origins should be used.
func (c *AppConfig) GetAllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// ProcessorTimeout returns the per-attempt timeout for extraction calls.
func (c *AppConfig) ProcessorTimeout() time.Duration {
	return time.Duration(c.Processor.TimeoutSeconds) * time.Second
}

// MaxResponseBytes returns the parsed MaxResponseSize.
func (c *AppConfig) MaxResponseBytes() int64 {
	n, err := humanize.ParseBytes(c.Processor.MaxResponseSize)
	if err != nil {
		return 0
	}
	return int64(n)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
