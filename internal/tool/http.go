package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPTool makes outbound HTTP requests on behalf of a step. Adapted
// from graph/tool.HTTPTool: the request-building and response-shaping
// logic is unchanged in spirit, but the entry point is
// Execute(ctx, operation, inputs) rather than Call(ctx, input), and
// operation ("get" or "post") takes precedence over an inputs["method"]
// value when both are given, so that "http.get"/"http.post" actions
// work without requiring a redundant method input.
type HTTPTool struct {
	client *http.Client
}

// NewHTTPTool returns an HTTPTool with a bounded default timeout,
// matching graph/tool.HTTPTool's default client configuration.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: &http.Client{Timeout: 30 * time.Second}}
}

// Execute implements engine.Tool.
func (h *HTTPTool) Execute(ctx context.Context, operation string, inputs map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	urlStr, ok := inputs["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("http: missing required input %q", "url")
	}

	method := strings.ToUpper(operation)
	if method == "" || method == "REQUEST" {
		method = "GET"
		if m, ok := inputs["method"].(string); ok && m != "" {
			method = strings.ToUpper(m)
		}
	}
	if method != "GET" && method != "POST" {
		return nil, fmt.Errorf("http: unsupported method %q (supported: GET, POST)", method)
	}

	var body io.Reader
	if bodyStr, ok := inputs["body"].(string); ok && bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	if headers, ok := inputs["headers"].(map[string]any); ok {
		for key, value := range headers {
			if valueStr, ok := value.(string); ok {
				req.Header.Set(key, valueStr)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: read response body: %w", err)
	}

	respHeaders := make(map[string]any, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) == 1 {
			respHeaders[key] = values[0]
		} else {
			respHeaders[key] = values
		}
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        string(respBody),
	}, nil
}
