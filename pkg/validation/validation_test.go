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

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		// Valid keys
		{"simple key", "mykey", "mykey", false},
		{"key with dashes", "my-key", "my-key", false},
		{"key with underscores", "my_key", "my_key", false},
		{"key with dots", "my.key", "my.key", false},
		{"path key", "path/to/object", "path/to/object", false},
		{"nested path", "a/b/c/d/file.txt", "a/b/c/d/file.txt", false},
		{"mixed case", "MyKey123", "MyKey123", false},
		{"single char", "a", "a", false},
		{"dot file", ".hidden", ".hidden", false},
		{"dotdot as part of name", "file..txt", "file..txt", false},
		{"max length", strings.Repeat("a", 1024), strings.Repeat("a", 1024), false},

		// Normalization
		{"backslash separators", `docs\report.pdf`, "docs/report.pdf", false},
		{"repeated separators", "docs//report.pdf", "docs/report.pdf", false},
		{"current dir segment", "docs/./report.pdf", "docs/report.pdf", false},

		// Empty
		{"empty key", "", "", true},
		{"whitespace only", "   ", "", true},

		// Null bytes and control characters
		{"null byte", "key\x00data", "", true},
		{"newline", "key\ndata", "", true},
		{"carriage return", "key\rdata", "", true},
		{"tab", "key\tdata", "", true},

		// Path traversal
		{"bare dotdot", "..", "", true},
		{"leading traversal", "../file", "", true},
		{"embedded traversal", "path/../file", "", true},
		{"double traversal", "path/../../file", "", true},
		{"trailing traversal", "path/..", "", true},
		{"backslash traversal", `path\..\file`, "", true},

		// Absolute paths
		{"unix absolute", "/etc/passwd", "", true},
		{"backslash root", `\windows\system32`, "", true},
		{"windows drive", `C:\Windows\System32`, "", true},
		{"lowercase drive", "c:/temp/file", "", true},

		// Length
		{"too long", strings.Repeat("a", 1025), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil {
				var pathErr *PathError
				if !errors.As(err, &pathErr) {
					t.Errorf("ValidateKey(%q) error type = %T, want *PathError", tt.key, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ValidateKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		want    string
		wantErr bool
	}{
		{"empty prefix", "", "", false},
		{"simple prefix", "documents/", "documents/", false},
		{"partial segment", "documents/rep", "documents/rep", false},
		{"backslash normalized", `documents\reports\`, "documents/reports/", false},
		{"null byte", "docs\x00/", "", true},
		{"leading slash", "/documents/", "", true},
		{"drive letter", `C:\docs\`, "", true},
		{"traversal", "../secrets/", "", true},
		{"embedded traversal", "docs/../", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePrefix(tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePrefix(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ValidatePrefix(%q) = %q, want %q", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestValidateFileSize(t *testing.T) {
	const maxSize = 100 * 1024 * 1024

	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"one byte", 1, false},
		{"small file", 1024, false},
		{"exactly at limit", maxSize, false},
		{"one over limit", maxSize + 1, true},
		{"far over limit", maxSize * 10, true},
		{"zero size", 0, true},
		{"negative size", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileSize(tt.size, maxSize)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileSize(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
		})
	}
}

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		allowed []string
		wantErr bool
	}{
		{"empty allow-list admits anything", "malware.exe", nil, false},
		{"empty allow-list admits no extension", "README", nil, false},
		{"allowed extension", "report.pdf", []string{"pdf", "txt"}, false},
		{"allowed uppercase extension", "report.PDF", []string{"pdf"}, false},
		{"disallowed extension", "script.sh", []string{"pdf", "txt"}, true},
		{"no extension with allow-list", "README", []string{"pdf"}, true},
		{"extension of last segment", "archive.tar.gz", []string{"gz"}, false},
		{"middle extension not used", "archive.tar.gz", []string{"tar"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExtension(tt.key, tt.allowed)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExtension(%q, %v) error = %v, wantErr %v",
					tt.key, tt.allowed, err, tt.wantErr)
			}
			if err != nil {
				var policyErr *PolicyError
				if !errors.As(err, &policyErr) {
					t.Errorf("error type = %T, want *PolicyError", err)
				}
			}
		})
	}
}
