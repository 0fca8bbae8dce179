package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"latinize/internal/services"
)

const testPrompt = "Latinize.\nTitle: {title}\nAlbum: {album}\n"

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-1",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	})
	return string(body)
}

type capturedRequest struct {
	auth        string
	contentType string
	body        chatRequest
}

func TestLatinizeSendsExpectedRequest(t *testing.T) {
	requests := make(chan capturedRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		got := capturedRequest{auth: r.Header.Get("Authorization"), contentType: r.Header.Get("Content-Type")}
		if err := json.NewDecoder(r.Body).Decode(&got.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests <- got
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatReply("title_latin: kokoro no koe\nalbum_latin: yume"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Model: "deepseek-chat", Prompt: testPrompt})
	result, err := client.Latinize(context.Background(), "心の声", "夢")
	if err != nil {
		t.Fatalf("Latinize returned error: %v", err)
	}
	if result.Title != "kokoro no koe" || result.Album != "yume" {
		t.Fatalf("unexpected result %+v", result)
	}
	captured := <-requests
	if captured.auth != "Bearer secret" || captured.contentType != "application/json" {
		t.Fatalf("unexpected headers %+v", captured)
	}
	body := captured.body
	if body.Model != "deepseek-chat" || body.Stream || body.Temperature != 0.2 {
		t.Fatalf("unexpected request %+v", body)
	}
	if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", body.Messages)
	}
	if body.Messages[0].Content != DefaultSystemPrompt {
		t.Fatalf("unexpected system prompt %q", body.Messages[0].Content)
	}
	if body.Messages[1].Content != "Latinize.\nTitle: 心の声\nAlbum: 夢\n" {
		t.Fatalf("unexpected user prompt %q", body.Messages[1].Content)
	}
}

func TestFetchOmitsAuthorizationWithoutKey(t *testing.T) {
	var sawAuth atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			sawAuth.Store(true)
		}
		_, _ = io.WriteString(w, "title_latin: a")
	}))
	defer server.Close()

	ex, err := NewClient(Config{BaseURL: server.URL, Prompt: testPrompt}).Fetch(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if sawAuth.Load() {
		t.Fatal("expected no Authorization header without a key")
	}
	if ex.ResponseBody != "title_latin: a" || !strings.HasPrefix(ex.StatusLine, "HTTP/1.1 200") {
		t.Fatalf("unexpected exchange %+v", ex)
	}
	dump := ex.Dump()
	for _, heading := range []string{"Request URL:", "Resolved Prompt:", "Request Body:", "Response Body:"} {
		if !strings.Contains(dump, heading) {
			t.Fatalf("dump missing %q:\n%s", heading, dump)
		}
	}
}

func TestFetchHTTPStatusError(t *testing.T) {
	var calls atomic.Int32
	body := strings.Repeat("x", 5000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, body)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL, Prompt: testPrompt}).Fetch(context.Background(), "a", "b")
	if !errors.Is(err, services.ErrHTTPStatus) {
		t.Fatalf("expected http status error, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *HTTPStatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable || statusErr.StatusLine != "HTTP/1.1 503 Service Unavailable" {
		t.Fatalf("unexpected status %+v", statusErr)
	}
	if statusErr.ContentType != "text/plain" || !statusErr.Truncated || len(statusErr.Snippet) != maxSnippetBytes {
		t.Fatalf("unexpected snippet fields: type=%q truncated=%v len=%d", statusErr.ContentType, statusErr.Truncated, len(statusErr.Snippet))
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", calls.Load())
	}
}

func TestFetchCancellationIsDistinct(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err := NewClient(Config{BaseURL: server.URL, Prompt: testPrompt}).Fetch(ctx, "a", "b")
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if errors.Is(err, services.ErrNetwork) {
		t.Fatalf("cancellation must not be reported as a network error: %v", err)
	}
}

func TestFetchPreCancelledSendsNothing(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(Config{BaseURL: server.URL, Prompt: testPrompt}).Fetch(ctx, "a", "b")
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no request, got %d", calls.Load())
	}
}

func TestFetchConfigurationAndNetworkErrors(t *testing.T) {
	_, err := NewClient(Config{Prompt: testPrompt}).Fetch(context.Background(), "a", "b")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()
	_, err = NewClient(Config{BaseURL: url, Prompt: testPrompt}).Fetch(context.Background(), "a", "b")
	if !errors.Is(err, services.ErrNetwork) || errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestFetchLimiterWaitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, "title_latin: a")
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Prompt: testPrompt}, WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))
	if _, err := client.Fetch(context.Background(), "a", "b"); err != nil {
		t.Fatalf("first Fetch returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Fetch(ctx, "a", "b"); !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected limiter wait to be cancelled, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one request, got %d", calls.Load())
	}
}

func TestLatinizeParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"finish_reason":"length"}]}`)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL, Prompt: testPrompt}).Latinize(context.Background(), "a", "b")
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestSnippetKeepsRuneBoundary(t *testing.T) {
	body := []byte(strings.Repeat("a", maxSnippetBytes-1) + "é")
	snippet, truncated := snippetOf(body)
	if !truncated || len(snippet) != maxSnippetBytes-1 {
		t.Fatalf("expected cut before the split rune, got len=%d truncated=%v", len(snippet), truncated)
	}
}
