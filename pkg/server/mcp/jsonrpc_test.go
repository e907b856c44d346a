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

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeremyhahn/go-s3mcp/pkg/config"
	"github.com/sourcegraph/jsonrpc2"
)

func newTestServer(t *testing.T) (*Server, *MockStorage) {
	t.Helper()
	storage := NewMockStorage()
	server, err := NewServer(&ServerConfig{
		Mode:    ModeHTTP,
		Storage: storage,
		Limits: config.SecurityLimits{
			MaxFileSizeBytes: 1024 * 1024,
			MaxListObjects:   100,
		},
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server, storage
}

func rawParams(t *testing.T, v any) *json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	raw := json.RawMessage(data)
	return &raw
}

func TestNewServerRequiresStorage(t *testing.T) {
	_, err := NewServer(&ServerConfig{Mode: ModeHTTP})
	if !errors.Is(err, ErrStorageRequired) {
		t.Errorf("NewServer error = %v, want ErrStorageRequired", err)
	}
}

func TestHandleInitialize(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewRPCHandler(server)

	result, err := handler.Handle(context.Background(), nil, &jsonrpc2.Request{
		Method: "initialize",
		Params: rawParams(t, map[string]any{
			"protocolVersion": "2024-11-05",
			"clientInfo":      map[string]string{"name": "test-client", "version": "1.0"},
		}),
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	initResult := result.(map[string]any)
	if initResult["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion = %v, want 2024-11-05", initResult["protocolVersion"])
	}
	serverInfo := initResult["serverInfo"].(map[string]string)
	if serverInfo["name"] != "go-s3mcp" {
		t.Errorf("server name = %q, want go-s3mcp", serverInfo["name"])
	}
}

func TestHandleToolsList(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewRPCHandler(server)

	result, err := handler.Handle(context.Background(), nil, &jsonrpc2.Request{
		Method: "tools/list",
	})
	if err != nil {
		t.Fatalf("tools/list failed: %v", err)
	}

	listResult := result.(map[string]any)
	tools := listResult["tools"].([]Tool)
	if len(tools) != 5 {
		t.Errorf("tools/list returned %d tools, want 5", len(tools))
	}
}

func TestHandleToolsCall(t *testing.T) {
	server, storage := newTestServer(t)
	handler := NewRPCHandler(server)

	result, err := handler.Handle(context.Background(), nil, &jsonrpc2.Request{
		Method: "tools/call",
		Params: rawParams(t, map[string]any{
			"name": "upload_file",
			"arguments": map[string]any{
				"key":     "hello.txt",
				"content": "hi there",
			},
		}),
	})
	if err != nil {
		t.Fatalf("tools/call failed: %v", err)
	}

	callResult := result.(map[string]any)
	content := callResult["content"].([]map[string]any)
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content shape: %v", content)
	}
	if string(storage.objects["hello.txt"]) != "hi there" {
		t.Errorf("stored content = %q, want %q", storage.objects["hello.txt"], "hi there")
	}
}

func TestHandleToolsCallErrorCarriesCode(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewRPCHandler(server)

	_, err := handler.Handle(context.Background(), nil, &jsonrpc2.Request{
		Method: "tools/call",
		Params: rawParams(t, map[string]any{
			"name": "download_file",
			"arguments": map[string]any{
				"key": "../etc/passwd",
			},
		}),
	})
	if err == nil {
		t.Fatal("expected error for traversal key")
	}

	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error type = %T, want *jsonrpc2.Error", err)
	}
	if rpcErr.Data == nil {
		t.Fatal("error data is nil; expected typed code")
	}

	var data map[string]string
	if err := json.Unmarshal(*rpcErr.Data, &data); err != nil {
		t.Fatalf("error data not valid JSON: %v", err)
	}
	if data["code"] != CodeInvalidPath {
		t.Errorf("error data code = %q, want %q", data["code"], CodeInvalidPath)
	}
}

func TestHandleUnknownMethod(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewRPCHandler(server)

	_, err := handler.Handle(context.Background(), nil, &jsonrpc2.Request{
		Method: "resources/list",
	})
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error type = %T, want *jsonrpc2.Error", err)
	}
	if rpcErr.Code != ErrCodeMethodNotFound {
		t.Errorf("error code = %d, want %d", rpcErr.Code, ErrCodeMethodNotFound)
	}
}

func TestHandlePing(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewRPCHandler(server)

	result, err := handler.Handle(context.Background(), nil, &jsonrpc2.Request{Method: "ping"})
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	pingResult := result.(map[string]string)
	if pingResult["status"] != "ok" {
		t.Errorf("ping status = %q, want ok", pingResult["status"])
	}
}

func postJSONRPC(t *testing.T, handler http.Handler, body string) JSONRPCResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp JSONRPCResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response not valid JSON: %v", err)
	}
	return resp
}

func TestHTTPHandler(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewHTTPHandler(server)

	resp := postJSONRPC(t, handler, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.JSONRPC != "2.0" {
		t.Errorf("jsonrpc = %q, want 2.0", resp.JSONRPC)
	}
}

func TestHTTPHandlerRejectsGet(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewHTTPHandler(server)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHTTPHandlerInvalidJSON(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewHTTPHandler(server)

	resp := postJSONRPC(t, handler, `{not json`)
	if resp.Error == nil || resp.Error.Code != ErrCodeParseError {
		t.Errorf("error = %+v, want parse error %d", resp.Error, ErrCodeParseError)
	}
}

func TestHTTPHandlerWrongVersion(t *testing.T) {
	server, _ := newTestServer(t)
	handler := NewHTTPHandler(server)

	resp := postJSONRPC(t, handler, `{"jsonrpc":"1.0","id":1,"method":"ping"}`)
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidRequest {
		t.Errorf("error = %+v, want invalid request %d", resp.Error, ErrCodeInvalidRequest)
	}
}
