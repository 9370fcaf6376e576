package proxy

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gaia-relay/llamagate/pkg/proxy/types"
)

func newChatRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestParseChatRequest(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantMessages []types.Message
		wantCode     string
	}{
		{
			name:         "single message",
			body:         `{"messages":[{"role":"user","content":"hi"}]}`,
			wantMessages: []types.Message{{Role: "user", Content: "hi"}},
		},
		{
			name: "order preserved",
			body: `{"messages":[{"role":"system","content":"a"},{"role":"user","content":"b"},{"role":"assistant","content":"c"}]}`,
			wantMessages: []types.Message{
				{Role: "system", Content: "a"},
				{Role: "user", Content: "b"},
				{Role: "assistant", Content: "c"},
			},
		},
		{
			name:         "empty messages",
			body:         `{"messages":[]}`,
			wantMessages: []types.Message{},
		},
		{
			name:         "extra top-level keys ignored",
			body:         `{"model":"gpt-4","temperature":99,"max_tokens":5,"stream":true,"messages":[{"role":"user","content":"x"}]}`,
			wantMessages: []types.Message{{Role: "user", Content: "x"}},
		},
		{
			name:         "opaque role",
			body:         `{"messages":[{"role":"narrator","content":""}]}`,
			wantMessages: []types.Message{{Role: "narrator", Content: ""}},
		},
		{
			name:         "unicode content",
			body:         `{"messages":[{"role":"user","content":"héllo <b>&</b> 👋"}]}`,
			wantMessages: []types.Message{{Role: "user", Content: "héllo <b>&</b> 👋"}},
		},
		{name: "not json", body: "not json", wantCode: types.CodeInvalidJSON},
		{name: "empty body", body: "", wantCode: types.CodeInvalidJSON},
		{name: "top-level array", body: `[{"role":"user","content":"x"}]`, wantCode: types.CodeInvalidJSON},
		{name: "truncated", body: `{"messages":[`, wantCode: types.CodeInvalidJSON},
		{name: "empty object", body: `{}`, wantCode: types.CodeMissingField},
		{name: "null messages", body: `{"messages":null}`, wantCode: types.CodeMissingField},
		{name: "messages not array", body: `{"messages":"hi"}`, wantCode: types.CodeInvalidValue},
		{name: "element not object", body: `{"messages":["hi"]}`, wantCode: types.CodeInvalidMessage},
		{name: "null element", body: `{"messages":[null]}`, wantCode: types.CodeInvalidMessage},
		{name: "missing role", body: `{"messages":[{"content":"x"}]}`, wantCode: types.CodeInvalidMessage},
		{name: "missing content", body: `{"messages":[{"role":"user"}]}`, wantCode: types.CodeInvalidMessage},
		{name: "numeric content", body: `{"messages":[{"role":"user","content":1}]}`, wantCode: types.CodeInvalidMessage},
		{name: "null content", body: `{"messages":[{"role":"user","content":null}]}`, wantCode: types.CodeInvalidMessage},
		{name: "array content", body: `{"messages":[{"role":"user","content":[{"type":"text"}]}]}`, wantCode: types.CodeInvalidMessage},
		{name: "null role", body: `{"messages":[{"role":null,"content":"x"}]}`, wantCode: types.CodeInvalidMessage},
		{name: "invalid utf-8 in content", body: "{\"messages\":[{\"role\":\"user\",\"content\":\"a\xffb\"}]}", wantCode: types.CodeInvalidJSON},
		{name: "invalid utf-8 in ignored key", body: "{\"model\":\"\xfe\",\"messages\":[]}", wantCode: types.CodeInvalidJSON},
		{name: "duplicate messages", body: `{"messages":[{"role":"user","content":"x"}],"messages":[]}`, wantCode: types.CodeInvalidJSON},
		{name: "duplicate message field", body: `{"messages":[{"role":"user","content":"x","content":"y"}]}`, wantCode: types.CodeInvalidMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := ParseChatRequest(newChatRequest(tt.body), DefaultMaxRequestBytes)
			if n != len(tt.body) {
				t.Errorf("read %d bytes, want %d", n, len(tt.body))
			}

			if tt.wantCode != "" {
				var reqErr *RequestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("expected RequestError, got %v", err)
				}
				if reqErr.Code != tt.wantCode {
					t.Errorf("Code = %q, want %q", reqErr.Code, tt.wantCode)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseChatRequest() failed: %v", err)
			}
			if got.Messages == nil {
				t.Fatal("Messages must not be nil")
			}
			if len(got.Messages) != len(tt.wantMessages) {
				t.Fatalf("got %d messages, want %d", len(got.Messages), len(tt.wantMessages))
			}
			for i := range tt.wantMessages {
				if got.Messages[i] != tt.wantMessages[i] {
					t.Errorf("message %d = %+v, want %+v", i, got.Messages[i], tt.wantMessages[i])
				}
			}
		})
	}
}

func TestParseChatRequest_SizeLimit(t *testing.T) {
	body := `{"messages":[{"role":"user","content":"` + strings.Repeat("a", 100) + `"}]}`

	_, _, err := ParseChatRequest(newChatRequest(body), 64)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Code != types.CodeRequestTooLarge {
		t.Errorf("Code = %q, want %q", reqErr.Code, types.CodeRequestTooLarge)
	}
	if status := reqErr.ToErrorResponse().Error.HTTPStatusCode(); status != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", status)
	}

	if _, _, err := ParseChatRequest(newChatRequest(body), int64(len(body))); err != nil {
		t.Errorf("body at exactly the limit rejected: %v", err)
	}
}

func TestParseChatRequest_ReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", errReader{})
	_, _, err := ParseChatRequest(req, DefaultMaxRequestBytes)
	if err == nil {
		t.Fatal("expected error")
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		t.Error("read failure must not be a RequestError")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestExtractRequestMetadata(t *testing.T) {
	body := `{"messages":[{"role":"user","content":"x"},{"role":"user","content":"y"}]}`
	r := newChatRequest(body)
	r.Header.Set("User-Agent", "openai-python/1.0.0")
	parsed, n, err := ParseChatRequest(r, DefaultMaxRequestBytes)
	if err != nil {
		t.Fatalf("ParseChatRequest() failed: %v", err)
	}

	meta := ExtractRequestMetadata(r, "req-1", parsed, n, fixedTime)
	if meta.MessageCount != 2 || meta.RequestBytes != len(body) {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.UserAgent != "openai-python/1.0.0" || meta.Path != "/v1/chat/completions" {
		t.Errorf("unexpected metadata %+v", meta)
	}

	if meta := ExtractRequestMetadata(r, "req-2", nil, 0, fixedTime); meta.MessageCount != 0 {
		t.Errorf("expected zero messages for unparsed request, got %d", meta.MessageCount)
	}
}

func BenchmarkParseChatRequest(b *testing.B) {
	body := []byte(`{"messages":[{"role":"system","content":"You are helpful."},{"role":"user","content":"Hello there"}]}`)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
		if _, _, err := ParseChatRequest(req, DefaultMaxRequestBytes); err != nil {
			b.Fatal(err)
		}
	}
}
