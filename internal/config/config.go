// Package config loads the optional YAML configuration file that sets the
// driver's step caps, mock identity, output format, and call-site cap as
// runtime policy rather than hardcoded constants.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fatalsec/dalivm/internal/mock"
)

// Config is the merged result of an optional YAML file and cobra flags.
// Flags always win: Load reads the YAML defaults, then the CLI layer
// overwrites whichever fields its flags were explicitly set for.
type Config struct {
	StepCap          int    `yaml:"stepCap"`
	ClinitStepCap    int    `yaml:"clinitStepCap"`
	CallSiteCap      int    `yaml:"callSiteCap"`
	MaxErrorsPerSite int    `yaml:"maxErrorsPerSite"`
	Format           string `yaml:"format"`
	HooksPath        string `yaml:"hooksPath"`

	Mock MockConfig `yaml:"mock"`
}

// MockConfig holds the mock.Config fields that YAML can set; ToMockConfig
// converts it once the file is loaded. Signature bytes are not among them:
// ToMockConfig always uses DE AD BE EF.
type MockConfig struct {
	PackageName string `yaml:"packageName"`
	SDKInt      int32  `yaml:"sdkInt"`
	VersionCode int32  `yaml:"versionCode"`
	VersionName string `yaml:"versionName"`
}

// Default returns the built-in defaults used when no file is supplied.
func Default() *Config {
	mc := mock.DefaultConfig()
	return &Config{
		StepCap:          5000,
		ClinitStepCap:    500,
		CallSiteCap:      0,
		MaxErrorsPerSite: 5,
		Format:           "text",
		Mock: MockConfig{
			PackageName: mc.PackageName,
			SDKInt:      mc.SDKInt,
			VersionCode: mc.VersionCode,
			VersionName: mc.VersionName,
		},
	}
}

// Load reads and parses a YAML config file, seeding unset fields from
// Default first so a partial file only overrides what it names.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ToMockConfig builds the mock.Config the loader's Config field expects.
func (c *Config) ToMockConfig() *mock.Config {
	return &mock.Config{
		PackageName:    c.Mock.PackageName,
		SignatureBytes: []byte{0xDE, 0xAD, 0xBE, 0xEF},
		SDKInt:         c.Mock.SDKInt,
		VersionCode:    c.Mock.VersionCode,
		VersionName:    c.Mock.VersionName,
	}
}
