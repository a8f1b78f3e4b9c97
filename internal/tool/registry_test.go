package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_HasToolAndGetTool(t *testing.T) {
	r := NewRegistry()
	r.Register("tool", &BuiltinTool{})

	require.True(t, r.HasTool("tool", "any-agent"))
	require.False(t, r.HasTool("missing", "any-agent"))

	got, ok := r.GetTool("tool", "any-agent")
	require.True(t, ok)
	require.NotNil(t, got)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.Register("tool", &BuiltinTool{})
	r.Unregister("tool")
	require.False(t, r.HasTool("tool", ""))
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	require.True(t, r.HasTool("tool", ""))
	require.True(t, r.HasTool("http", ""))
}

func TestBuiltinTool_Echo(t *testing.T) {
	bt := &BuiltinTool{}
	out, err := bt.Execute(context.Background(), "echo", map[string]any{"x": "hello"})
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestBuiltinTool_Upper(t *testing.T) {
	bt := &BuiltinTool{}
	out, err := bt.Execute(context.Background(), "upper", map[string]any{"s": "hello"})
	require.NoError(t, err)
	require.Equal(t, "HELLO", out)
}

func TestBuiltinTool_UnknownOperation(t *testing.T) {
	bt := &BuiltinTool{}
	_, err := bt.Execute(context.Background(), "frobnicate", nil)
	require.Error(t, err)
}

func TestBuiltinTool_EchoMissingInput(t *testing.T) {
	bt := &BuiltinTool{}
	_, err := bt.Execute(context.Background(), "echo", nil)
	require.Error(t, err)
}

func TestHTTPTool_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ht := NewHTTPTool()
	out, err := ht.Execute(context.Background(), "get", map[string]any{"url": srv.URL})
	require.NoError(t, err)

	result, ok := out.(map[string]any)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, result["status_code"])
	require.Equal(t, "ok", result["body"])
}

func TestHTTPTool_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body := make([]byte, 5)
		_, _ = r.Body.Read(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ht := NewHTTPTool()
	out, err := ht.Execute(context.Background(), "post", map[string]any{"url": srv.URL, "body": "hello"})
	require.NoError(t, err)

	result, ok := out.(map[string]any)
	require.True(t, ok)
	require.Equal(t, http.StatusCreated, result["status_code"])
}

func TestHTTPTool_MissingURL(t *testing.T) {
	ht := NewHTTPTool()
	_, err := ht.Execute(context.Background(), "get", map[string]any{})
	require.Error(t, err)
}

func TestHTTPTool_UnsupportedMethod(t *testing.T) {
	ht := NewHTTPTool()
	_, err := ht.Execute(context.Background(), "delete", map[string]any{"url": "http://example.com"})
	require.Error(t, err)
}

func TestMockTool_ResponseSequenceAndHistory(t *testing.T) {
	m := &MockTool{Responses: []any{"first", "second"}}

	out1, err := m.Execute(context.Background(), "op", map[string]any{"a": 1})
	require.NoError(t, err)
	require.Equal(t, "first", out1)

	out2, err := m.Execute(context.Background(), "op", map[string]any{"a": 2})
	require.NoError(t, err)
	require.Equal(t, "second", out2)

	out3, err := m.Execute(context.Background(), "op", nil)
	require.NoError(t, err)
	require.Equal(t, "second", out3)

	require.Equal(t, 3, m.CallCount())
	m.Reset()
	require.Equal(t, 0, m.CallCount())
}

func TestMockTool_ErrorInjection(t *testing.T) {
	m := &MockTool{Err: context.DeadlineExceeded}
	_, err := m.Execute(context.Background(), "op", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
