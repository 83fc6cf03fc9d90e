// Package config loads and validates the engine configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the engine configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`

	// EncryptionKeyEnv names the environment variable holding the
	// credential encryption key. The key itself never appears in the
	// config file.
	EncryptionKeyEnv string `yaml:"encryption_key_env"`

	Terraform TerraformConfig `yaml:"terraform"`
	Kubectl   KubectlConfig   `yaml:"kubectl"`
	GitOps    GitOpsConfig    `yaml:"gitops"`
	Log       LogConfig       `yaml:"log"`

	// ActivityCapacity bounds the in-memory activity feed.
	ActivityCapacity int `yaml:"activity_capacity"`
}

type TerraformConfig struct {
	Binary         string `yaml:"binary"`
	ModuleDir      string `yaml:"module_dir"`
	StateDir       string `yaml:"state_dir"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
}

type KubectlConfig struct {
	Binary         string `yaml:"binary"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type GitOpsConfig struct {
	AllowedOrg         string   `yaml:"allowed_org"`
	ReservedNamespaces []string `yaml:"reserved_namespaces"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a configuration with workable defaults for
// everything except the terraform module directory.
func Default() *Config {
	return &Config{
		ListenAddr:       ":8080",
		DataDir:          "/var/lib/masa-engine",
		EncryptionKeyEnv: "ENCRYPTION_KEY",
		Terraform: TerraformConfig{
			Binary:         "terraform",
			TimeoutMinutes: 60,
		},
		Kubectl: KubectlConfig{
			Binary:         "kubectl",
			TimeoutSeconds: 120,
		},
		GitOps: GitOpsConfig{
			AllowedOrg:         "CloudMasa-Tech",
			ReservedNamespaces: []string{"default", "kube-system", "argocd"},
		},
		Log:              LogConfig{Level: "info", JSON: true},
		ActivityCapacity: 256,
	}
}

// LoadFile reads and validates the configuration from a YAML file.
// Omitted fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.EncryptionKeyEnv == "" {
		return fmt.Errorf("encryption_key_env is required")
	}
	if c.Terraform.ModuleDir == "" {
		return fmt.Errorf("terraform.module_dir is required")
	}
	if c.Terraform.StateDir == "" {
		c.Terraform.StateDir = c.DataDir + "/terraform"
	}
	if c.Terraform.TimeoutMinutes <= 0 {
		return fmt.Errorf("terraform.timeout_minutes must be positive")
	}
	if c.Kubectl.TimeoutSeconds <= 0 {
		return fmt.Errorf("kubectl.timeout_seconds must be positive")
	}
	if c.GitOps.AllowedOrg == "" {
		return fmt.Errorf("gitops.allowed_org is required")
	}
	if c.ActivityCapacity <= 0 {
		return fmt.Errorf("activity_capacity must be positive")
	}
	return nil
}

// EncryptionKey reads the credential key from the configured
// environment variable.
func (c *Config) EncryptionKey() (string, error) {
	key := os.Getenv(c.EncryptionKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.EncryptionKeyEnv)
	}
	return key, nil
}

// TerraformTimeout returns the terraform budget as a duration.
func (c *Config) TerraformTimeout() time.Duration {
	return time.Duration(c.Terraform.TimeoutMinutes) * time.Minute
}

// KubectlTimeout returns the kubectl budget as a duration.
func (c *Config) KubectlTimeout() time.Duration {
	return time.Duration(c.Kubectl.TimeoutSeconds) * time.Second
}
