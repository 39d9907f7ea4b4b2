// Package cliconfig resolves flowup configuration from FLOWUP_-prefixed
// environment variables, with an optional yaml file for the direct S3
// storage settings. Environment values win over the file.
package cliconfig

import (
	"fmt"
	"os"

	envParser "github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

var osExit = os.Exit

// Environment is a struct containing available env variables.
type Environment struct {
	BaseURL        string `env:"BASE_URL"`
	Token          string `env:"TOKEN"`
	APIKey         string `env:"API_KEY"`
	Concurrency    int    `env:"CONCURRENCY" envDefault:"4"`
	BandwidthLimit int64  `env:"BANDWIDTH_LIMIT" envDefault:"0"`
	Verbose        bool   `env:"VERBOSE" envDefault:"false"`

	S3ConfigPath string `env:"S3_CONFIG" envDefault:"flowup-s3.yml"`
	S3Bucket     string `env:"S3_BUCKET"`
	S3Region     string `env:"S3_REGION"`
	S3Endpoint   string `env:"S3_ENDPOINT"`
	S3PathStyle  bool   `env:"S3_PATH_STYLE" envDefault:"false"`
	S3KeyPrefix  string `env:"S3_KEY_PREFIX"`
	S3AccessKey  string `env:"S3_ACCESS_KEY"`
	S3SecretKey  string `env:"S3_SECRET_KEY"`
}

// Load parses the env variables.
func Load() Environment {
	result := Environment{}
	err := envParser.Parse(&result, envParser.Options{
		Prefix: "FLOWUP_",
	})
	if err != nil {
		fmt.Println("Error parsing env variables:", err)
		osExit(1)
		return Environment{}
	}
	return result
}

// S3Config contains the storage settings for direct mode. When AccessKey
// and SecretKey are empty the default AWS credential chain is used.
type S3Config struct {
	Bucket               string `yaml:"bucket"`
	Region               string `yaml:"region"`
	Endpoint             string `yaml:"endpoint"`
	PathStyle            bool   `yaml:"pathStyle"`
	KeyPrefix            string `yaml:"keyPrefix"`
	PartSizeMB           int64  `yaml:"partSizeMB"`
	PresignExpiryMinutes int    `yaml:"presignExpiryMinutes"`
	AccessKey            string `yaml:"accessKey"`
	SecretKey            string `yaml:"secretKey"`
}

// LoadS3 resolves direct-mode storage settings. The yaml file at
// env.S3ConfigPath provides the base values when it exists; S3_* env
// variables override individual fields.
func LoadS3(env Environment) (S3Config, error) {
	var cfg S3Config

	if fileExists(env.S3ConfigPath) {
		raw, err := os.ReadFile(env.S3ConfigPath)
		if err != nil {
			return S3Config{}, fmt.Errorf("reading %s: %w", env.S3ConfigPath, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return S3Config{}, fmt.Errorf("parsing %s: %w", env.S3ConfigPath, err)
		}
	}

	if env.S3Bucket != "" {
		cfg.Bucket = env.S3Bucket
	}
	if env.S3Region != "" {
		cfg.Region = env.S3Region
	}
	if env.S3Endpoint != "" {
		cfg.Endpoint = env.S3Endpoint
	}
	if env.S3PathStyle {
		cfg.PathStyle = true
	}
	if env.S3KeyPrefix != "" {
		cfg.KeyPrefix = env.S3KeyPrefix
	}
	if env.S3AccessKey != "" {
		cfg.AccessKey = env.S3AccessKey
	}
	if env.S3SecretKey != "" {
		cfg.SecretKey = env.S3SecretKey
	}

	if cfg.Bucket == "" {
		return S3Config{}, fmt.Errorf("no bucket configured: set FLOWUP_S3_BUCKET or add bucket to %s", env.S3ConfigPath)
	}

	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
