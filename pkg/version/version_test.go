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

package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	version := Get()
	if version == "" {
		t.Error("Expected non-empty version")
	}

	// Calling Get() again should return the same value
	version2 := Get()
	if version != version2 {
		t.Errorf("Expected consistent version, got %q then %q", version, version2)
	}
}

func TestGet_ReturnValue(t *testing.T) {
	v := Get()

	if len(v) == 0 {
		t.Error("Get() returned empty string")
	}

	if v != strings.TrimSpace(v) {
		t.Errorf("Get() returned untrimmed version: %q", v)
	}
}
