// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3mcp.
//
// go-s3mcp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the process configuration once at startup into an
// immutable Settings value. Nothing reads ambient configuration after
// initialization.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-s3mcp/pkg/limits"
)

// bucketNamePattern matches RFC-style S3 bucket names: lowercase letters,
// digits and hyphens, starting and ending with a letter or digit.
var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]*[a-z0-9]$`)

// SecurityLimits is the immutable policy configuration consumed by the tool
// executor. It is loaded once at startup and never mutated.
type SecurityLimits struct {
	// MaxFileSizeBytes is the ceiling for decoded upload content.
	MaxFileSizeBytes int64

	// MaxListObjects is the ceiling for list results; caller-requested
	// max_keys values are clamped to it.
	MaxListObjects int

	// AllowedExtensions is the lower-cased extension allow-list, without
	// leading dots. Empty means every extension is permitted.
	AllowedExtensions []string
}

// Settings holds the full server configuration.
type Settings struct {
	// Storage backend settings
	Bucket         string
	Region         string
	Endpoint       string // custom endpoint for S3-compatible stores (MinIO etc.)
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool

	// Server settings
	Mode     string // "stdio" or "http"
	Address  string
	LogLevel string

	Limits SecurityLimits
}

// Load initializes the configuration using Viper.
// Configuration priority: env vars > config file > defaults. Environment
// variables use the S3MCP_ prefix (e.g. S3MCP_BUCKET, S3MCP_MAX_FILE_SIZE_MB).
func Load(cfgFile string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("region", "us-east-1")
	v.SetDefault("mode", "http")
	v.SetDefault("address", ":8081")
	v.SetDefault("log-level", "info")
	v.SetDefault("force-path-style", false)
	v.SetDefault("max-file-size-mb", limits.DefaultFileSizeMB)
	v.SetDefault("max-list-objects", limits.DefaultListObjects)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".s3mcp")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("S3MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from env.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	s := &Settings{
		Bucket:         v.GetString("bucket"),
		Region:         v.GetString("region"),
		Endpoint:       v.GetString("endpoint"),
		AccessKey:      v.GetString("access-key"),
		SecretKey:      v.GetString("secret-key"),
		ForcePathStyle: v.GetBool("force-path-style"),
		Mode:           v.GetString("mode"),
		Address:        v.GetString("address"),
		LogLevel:       v.GetString("log-level"),
		Limits: SecurityLimits{
			MaxFileSizeBytes:  int64(clampInt(v.GetInt("max-file-size-mb"), 1, limits.MaxFileSizeMB)) * 1024 * 1024,
			MaxListObjects:    clampInt(v.GetInt("max-list-objects"), 1, limits.MaxListObjects),
			AllowedExtensions: parseExtensions(v.GetString("allowed-extensions")),
		},
	}

	return s, nil
}

// Validate checks the settings required to reach the backend.
func (s *Settings) Validate() error {
	if s.Bucket == "" {
		return fmt.Errorf("bucket is required (set S3MCP_BUCKET)")
	}
	if err := ValidateBucketName(s.Bucket); err != nil {
		return err
	}
	if s.Region == "" {
		return fmt.Errorf("region is required")
	}
	if s.Mode != "stdio" && s.Mode != "http" {
		return fmt.Errorf("invalid mode %q (must be 'stdio' or 'http')", s.Mode)
	}
	return nil
}

// ValidateBucketName validates an S3 bucket name against the naming rules
// enforced by AWS and S3-compatible stores.
func ValidateBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("bucket name must be between 3 and 63 characters")
	}
	if !bucketNamePattern.MatchString(name) {
		return fmt.Errorf("bucket name may only contain lowercase letters, digits and hyphens, and must start and end with a letter or digit")
	}
	if strings.Contains(name, "--") {
		return fmt.Errorf("bucket name may not contain consecutive hyphens")
	}
	return nil
}

// parseExtensions splits a comma-separated allow-list into normalized
// entries: trimmed, lower-cased, leading dot stripped.
func parseExtensions(csv string) []string {
	if csv == "" {
		return nil
	}

	var exts []string
	for _, raw := range strings.Split(csv, ",") {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
