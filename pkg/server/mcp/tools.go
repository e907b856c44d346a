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
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"github.com/jeremyhahn/go-s3mcp/pkg/adapters"
	"github.com/jeremyhahn/go-s3mcp/pkg/common"
	"github.com/jeremyhahn/go-s3mcp/pkg/config"
	"github.com/jeremyhahn/go-s3mcp/pkg/server/middleware"
	"github.com/jeremyhahn/go-s3mcp/pkg/validation"
)

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolRegistry manages available tools.
type ToolRegistry struct {
	tools map[string]Tool
}

// NewToolRegistry creates a new tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

// RegisterDefaultTools registers the object-storage tools.
func (r *ToolRegistry) RegisterDefaultTools() {
	keyProperty := map[string]any{
		"type":        "string",
		"description": "Relative path of the object in the bucket (e.g. 'documents/report.pdf'). Must not contain '..' or start with '/'.",
	}

	r.tools["upload_file"] = Tool{
		Name:        "upload_file",
		Description: "Upload a file to the object store. Text content is uploaded as-is; binary content must be base64 encoded with is_base64=true. Existing objects are only replaced when overwrite=true.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": keyProperty,
				"content": map[string]any{
					"type":        "string",
					"description": "File content: plain text, or a base64 string when is_base64 is true",
				},
				"content_type": map[string]any{
					"type":        "string",
					"description": "MIME type of the content (e.g. 'text/plain', 'application/pdf')",
				},
				"is_base64": map[string]any{
					"type":        "boolean",
					"description": "Interpret content as base64-encoded binary data",
				},
				"overwrite": map[string]any{
					"type":        "boolean",
					"description": "Allow replacing an existing object (default false)",
				},
			},
			"required": []string{"key", "content"},
		},
	}

	r.tools["download_file"] = Tool{
		Name:        "download_file",
		Description: "Download a file from the object store. Returns UTF-8 text, or base64 when as_base64 is true. Binary content requires as_base64=true.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": keyProperty,
				"as_base64": map[string]any{
					"type":        "boolean",
					"description": "Return the content base64-encoded (required for binary files)",
				},
			},
			"required": []string{"key"},
		},
	}

	r.tools["list_files"] = Tool{
		Name:        "list_files",
		Description: "List files in the object store, optionally filtered by key prefix. The number of results is capped by server configuration.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prefix": map[string]any{
					"type":        "string",
					"description": "Key prefix to filter by (e.g. 'documents/'). Empty lists everything.",
				},
				"max_keys": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results (clamped to the server's configured ceiling)",
				},
			},
		},
	}

	r.tools["get_file_info"] = Tool{
		Name:        "get_file_info",
		Description: "Get metadata for a file without downloading its content: size, MIME type, last modified time, ETag, storage class.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": keyProperty,
			},
			"required": []string{"key"},
		},
	}

	r.tools["delete_file"] = Tool{
		Name:        "delete_file",
		Description: "Delete a file from the object store. The file must exist; deletion is irreversible.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": keyProperty,
			},
			"required": []string{"key"},
		},
	}
}

// ListTools returns all registered tools.
func (r *ToolRegistry) ListTools() []Tool {
	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// GetTool retrieves a tool by name.
func (r *ToolRegistry) GetTool(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// ToolExecutor executes tool calls. It is stateless: every invocation is an
// independent unit of work against the injected storage gateway, gated by the
// immutable security limits.
type ToolExecutor struct {
	storage common.Storage
	limits  config.SecurityLimits
	logger  adapters.Logger
}

// NewToolExecutor creates a new tool executor.
func NewToolExecutor(storage common.Storage, limits config.SecurityLimits, logger adapters.Logger) *ToolExecutor {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &ToolExecutor{
		storage: storage,
		limits:  limits,
		logger:  logger,
	}
}

// Execute executes a tool call.
func (e *ToolExecutor) Execute(ctx context.Context, toolName string, args map[string]any) (string, error) {
	switch toolName {
	case "upload_file":
		return e.executeUpload(ctx, args)
	case "download_file":
		return e.executeDownload(ctx, args)
	case "list_files":
		return e.executeList(ctx, args)
	case "get_file_info":
		return e.executeInfo(ctx, args)
	case "delete_file":
		return e.executeDelete(ctx, args)
	default:
		return "", newToolError(CodeUnknownTool, "unknown tool: %s", toolName)
	}
}

// executeUpload validates the key, decodes and checks the content, runs
// conflict detection, and writes the object. Every check runs before the
// write; a failed call performs no backend mutation.
func (e *ToolExecutor) executeUpload(ctx context.Context, args map[string]any) (string, error) {
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return "", newToolError(CodeMissingParameter, "missing required parameter: key")
	}

	content, ok := args["content"].(string)
	if !ok {
		return "", newToolError(CodeMissingParameter, "missing required parameter: content")
	}

	contentType, _ := args["content_type"].(string)
	if contentType == "" {
		contentType = common.DefaultContentType
	}
	isBase64, _ := args["is_base64"].(bool)
	overwrite, _ := args["overwrite"].(bool)

	safeKey, err := validation.ValidateKey(key)
	if err != nil {
		e.logger.Warn(ctx, "upload rejected by path policy", e.opFields(ctx, key)...)
		return "", wrapToolError(CodeInvalidPath, err)
	}

	// Decode before the size check so base64 expansion is accounted for.
	var data []byte
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(content)
		if err != nil {
			return "", newToolError(CodeEncoding, "invalid base64 content: %v", err)
		}
	} else {
		data = []byte(content)
	}

	if err := validation.ValidateFileSize(int64(len(data)), e.limits.MaxFileSizeBytes); err != nil {
		e.logger.Warn(ctx, "upload rejected by size policy", e.opFields(ctx, safeKey)...)
		return "", wrapToolError(CodeFileTooLarge, err)
	}

	if err := validation.ValidateExtension(safeKey, e.limits.AllowedExtensions); err != nil {
		e.logger.Warn(ctx, "upload rejected by extension policy", e.opFields(ctx, safeKey)...)
		return "", wrapToolError(CodeExtensionNotAllowed, err)
	}

	// Best-effort conflict detection: existence check then write, with no
	// compare-and-swap. Two concurrent uploads of the same key with
	// overwrite=false can race; closing that window requires backend-side
	// conditional writes.
	if !overwrite {
		_, err := e.storage.Head(ctx, safeKey)
		switch {
		case err == nil:
			return "", newToolError(CodeConflict,
				"object %q already exists; set overwrite=true to replace it", safeKey)
		case !errors.Is(err, common.ErrKeyNotFound):
			return "", wrapToolError(CodeBackend, err)
		}
	}

	md, err := e.storage.Put(ctx, safeKey, bytes.NewReader(data), &common.Metadata{
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		return "", wrapToolError(CodeBackend, err)
	}

	e.logger.Info(ctx, "object uploaded",
		append(e.opFields(ctx, safeKey), adapters.Field{Key: "size_bytes", Value: len(data)})...)

	return marshalResult(map[string]any{
		"key":          safeKey,
		"size_bytes":   len(data),
		"content_type": contentType,
		"etag":         md.ETag,
		"uploaded_at":  time.Now().UTC().Format(time.RFC3339),
	})
}

// executeDownload validates the key and returns the object content, base64
// encoded on request. A text response is only produced for valid UTF-8;
// binary bytes requested as text fail with an encoding error instead of
// corrupting the output.
func (e *ToolExecutor) executeDownload(ctx context.Context, args map[string]any) (string, error) {
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return "", newToolError(CodeMissingParameter, "missing required parameter: key")
	}
	asBase64, _ := args["as_base64"].(bool)

	safeKey, err := validation.ValidateKey(key)
	if err != nil {
		e.logger.Warn(ctx, "download rejected by path policy", e.opFields(ctx, key)...)
		return "", wrapToolError(CodeInvalidPath, err)
	}

	reader, md, err := e.storage.Get(ctx, safeKey)
	if err != nil {
		if errors.Is(err, common.ErrKeyNotFound) {
			return "", newToolError(CodeNotFound, "object %q not found", safeKey)
		}
		return "", wrapToolError(CodeBackend, err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", wrapToolError(CodeBackend, err)
	}

	var content, encoding string
	if asBase64 {
		content = base64.StdEncoding.EncodeToString(data)
		encoding = "base64"
	} else {
		if !utf8.Valid(data) {
			return "", newToolError(CodeEncoding,
				"object %q is not valid UTF-8 text; request it with as_base64=true", safeKey)
		}
		content = string(data)
		encoding = "utf-8"
	}

	contentType := md.ContentType
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	e.logger.Info(ctx, "object downloaded",
		append(e.opFields(ctx, safeKey), adapters.Field{Key: "size_bytes", Value: len(data)})...)

	return marshalResult(map[string]any{
		"key":           safeKey,
		"content":       content,
		"encoding":      encoding,
		"content_type":  contentType,
		"size_bytes":    len(data),
		"last_modified": formatTime(md.LastModified),
		"etag":          md.ETag,
	})
}

// executeList returns objects under a prefix. The requested max_keys is
// clamped to the configured ceiling; prefixes are not full keys and skip key
// validation, but root markers and traversal segments are still rejected.
func (e *ToolExecutor) executeList(ctx context.Context, args map[string]any) (string, error) {
	prefix, _ := args["prefix"].(string)

	safePrefix, err := validation.ValidatePrefix(prefix)
	if err != nil {
		e.logger.Warn(ctx, "list rejected by path policy", e.opFields(ctx, prefix)...)
		return "", wrapToolError(CodeInvalidPath, err)
	}

	maxKeys := e.limits.MaxListObjects
	if raw, ok := args["max_keys"]; ok {
		requested, ok := toInt(raw)
		if !ok {
			return "", newToolError(CodeInvalidParameter, "max_keys must be an integer")
		}
		if requested > 0 && requested < maxKeys {
			maxKeys = requested
		}
	}

	result, err := e.storage.List(ctx, &common.ListOptions{
		Prefix:  safePrefix,
		MaxKeys: maxKeys,
	})
	if err != nil {
		return "", wrapToolError(CodeBackend, err)
	}

	items := make([]map[string]any, 0, len(result.Objects))
	var totalSize int64
	for _, obj := range result.Objects {
		item := map[string]any{"key": obj.Key}
		if obj.Metadata != nil {
			item["size_bytes"] = obj.Metadata.Size
			item["last_modified"] = formatTime(obj.Metadata.LastModified)
			item["etag"] = obj.Metadata.ETag
			item["storage_class"] = obj.Metadata.StorageClass
			totalSize += obj.Metadata.Size
		}
		items = append(items, item)
	}

	e.logger.Info(ctx, "objects listed",
		append(e.opFields(ctx, safePrefix), adapters.Field{Key: "count", Value: len(items)})...)

	return marshalResult(map[string]any{
		"prefix":           safePrefix,
		"items":            items,
		"count":            len(items),
		"total_size_bytes": totalSize,
		"truncated":        result.Truncated,
	})
}

// executeInfo returns object metadata without transferring content.
func (e *ToolExecutor) executeInfo(ctx context.Context, args map[string]any) (string, error) {
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return "", newToolError(CodeMissingParameter, "missing required parameter: key")
	}

	safeKey, err := validation.ValidateKey(key)
	if err != nil {
		e.logger.Warn(ctx, "info rejected by path policy", e.opFields(ctx, key)...)
		return "", wrapToolError(CodeInvalidPath, err)
	}

	md, err := e.storage.Head(ctx, safeKey)
	if err != nil {
		if errors.Is(err, common.ErrKeyNotFound) {
			return "", newToolError(CodeNotFound, "object %q not found", safeKey)
		}
		return "", wrapToolError(CodeBackend, err)
	}

	contentType := md.ContentType
	if contentType == "" {
		contentType = common.DefaultContentType
	}
	storageClass := md.StorageClass
	if storageClass == "" {
		storageClass = "STANDARD"
	}

	result := map[string]any{
		"key":           safeKey,
		"size_bytes":    md.Size,
		"content_type":  contentType,
		"last_modified": formatTime(md.LastModified),
		"etag":          md.ETag,
		"storage_class": storageClass,
	}
	if len(md.Custom) > 0 {
		result["metadata"] = md.Custom
	}

	return marshalResult(result)
}

// executeDelete confirms existence, then removes the object. A second delete
// of the same key surfaces not_found, not success.
func (e *ToolExecutor) executeDelete(ctx context.Context, args map[string]any) (string, error) {
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return "", newToolError(CodeMissingParameter, "missing required parameter: key")
	}

	safeKey, err := validation.ValidateKey(key)
	if err != nil {
		e.logger.Warn(ctx, "delete rejected by path policy", e.opFields(ctx, key)...)
		return "", wrapToolError(CodeInvalidPath, err)
	}

	if _, err := e.storage.Head(ctx, safeKey); err != nil {
		if errors.Is(err, common.ErrKeyNotFound) {
			return "", newToolError(CodeNotFound, "object %q not found", safeKey)
		}
		return "", wrapToolError(CodeBackend, err)
	}

	if err := e.storage.Delete(ctx, safeKey); err != nil {
		return "", wrapToolError(CodeBackend, err)
	}

	e.logger.Info(ctx, "object deleted", e.opFields(ctx, safeKey)...)

	return marshalResult(map[string]any{
		"key":        safeKey,
		"deleted":    true,
		"deleted_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// opFields builds the common structured-log fields for an operation.
func (e *ToolExecutor) opFields(ctx context.Context, key string) []adapters.Field {
	fields := []adapters.Field{{Key: "key", Value: key}}
	if id := middleware.GetRequestID(ctx); id != "" {
		fields = append(fields, adapters.Field{Key: "request_id", Value: id})
	}
	return fields
}

func marshalResult(result map[string]any) (string, error) {
	jsonResult, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", wrapToolError(CodeBackend, err)
	}
	return string(jsonResult), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toInt accepts the numeric types JSON decoding can produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
