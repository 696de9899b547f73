package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		RequestTimeout: 2 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translated_text":"hola","detected_language":"en"}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Translate(context.Background(), Request{
		Text:           "hello",
		TargetLanguage: "es",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.TranslatedText != "hola" || result.DetectedLanguage != "en" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTranslatePassthroughSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Translate(context.Background(), Request{
		Text:           "hello",
		SourceLanguage: "en",
		TargetLanguage: "en",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.TranslatedText != "hello" || result.DetectedLanguage != "en" {
		t.Fatalf("unexpected passthrough result %+v", result)
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no provider calls, got %d", got)
	}
}

func TestTranslateMissingTranslatedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detected_language":"en"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Translate(context.Background(), Request{
		Text:           "hello",
		TargetLanguage: "es",
	})
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestTranslateAuthError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Translate(context.Background(), Request{
		Text:           "hello",
		TargetLanguage: "es",
	})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestTranslateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translated_text":"hola"}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Translate(context.Background(), Request{
		Text:           "hello",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	// detected_language falls back to the request's source.
	if result.DetectedLanguage != "en" {
		t.Fatalf("expected fallback detected language, got %q", result.DetectedLanguage)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestValidateOrder(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{"missing text", Request{TargetLanguage: "es"}, "text is required"},
		{"blank text", Request{Text: "   ", TargetLanguage: "es"}, "text is required"},
		{"text too long", Request{Text: strings.Repeat("a", 1001), TargetLanguage: "es"}, "exceeds 1000"},
		{"missing target", Request{Text: "hi"}, "target_language is required"},
		{"unsupported target", Request{Text: "hi", TargetLanguage: "xx"}, "unsupported target_language"},
		{"unsupported source", Request{Text: "hi", TargetLanguage: "es", SourceLanguage: "xx"}, "unsupported source_language"},
	}

	for _, tc := range cases {
		err := Validate(tc.req)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", tc.name, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected message containing %q, got %q", tc.name, tc.want, err)
		}
	}

	if err := Validate(Request{Text: "hi", TargetLanguage: "es"}); err != nil {
		t.Fatalf("expected valid request to pass, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	if lang, ok := Lookup("ja"); !ok || lang.Name != "Japanese" {
		t.Fatalf("expected Japanese, got %+v ok=%v", lang, ok)
	}
	if _, ok := Lookup("xx"); ok {
		t.Fatal("expected unknown code to miss")
	}
}
