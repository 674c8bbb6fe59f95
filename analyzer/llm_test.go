package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestGeminiComplete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g, err := NewGeminiLLMFromConfig(&LLMSettings{APIKey: "k", Model: "gemini-test", BaseURL: srv.URL}, srv.Client())
	if err != nil {
		t.Fatalf("NewGeminiLLMFromConfig() error = %v", err)
	}
	out, err := g.Complete(context.Background(), Prompt{System: "sys", User: "hi"}, DefaultParams())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != `{"a":1}` {
		t.Errorf("Complete() = %q", out)
	}
	if got.GenerationConfig.TopK != 40 || got.GenerationConfig.MaxOutputTokens != 1024 {
		t.Errorf("generationConfig = %+v", got.GenerationConfig)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "sys" {
		t.Errorf("systemInstruction = %+v", got.SystemInstruction)
	}
}

func TestGeminiSendsZeroTemperature(t *testing.T) {
	var raw map[string]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	g, _ := NewGeminiLLMFromConfig(&LLMSettings{APIKey: "k", BaseURL: srv.URL}, srv.Client())
	if _, err := g.Complete(context.Background(), Prompt{User: "hi"}, GenerationParams{MaxOutputTokens: 10}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if v, ok := raw["generationConfig"]["temperature"]; !ok || v != float64(0) {
		t.Errorf("generationConfig.temperature = %v (present %v), want 0", v, ok)
	}
}

func TestOpenAIComplete(t *testing.T) {
	tests := []struct {
		name   string
		params GenerationParams
		want   map[string]any
	}{
		{
			name:   "defaults",
			params: DefaultParams(),
			want:   map[string]any{"max_tokens": float64(1024), "temperature": 0.3, "top_p": 0.8},
		},
		{
			name:   "zero temperature",
			params: GenerationParams{Temperature: 0},
			want:   map[string]any{"temperature": float64(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer k" {
					t.Errorf("authorization = %q", r.Header.Get("Authorization"))
				}
				json.NewDecoder(r.Body).Decode(&body)
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",` +
					`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"a\":1}"}}]}`))
			}))
			defer srv.Close()

			o, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "k", Model: "m", BaseURL: srv.URL + "/"})
			if err != nil {
				t.Fatalf("NewOpenAILLMFromConfig() error = %v", err)
			}
			out, err := o.Complete(context.Background(), Prompt{System: "sys", User: "hi"}, tt.params)
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if out != `{"a":1}` {
				t.Errorf("Complete() = %q", out)
			}
			for k, v := range tt.want {
				if body[k] != v {
					t.Errorf("request %s = %v, want %v", k, body[k], v)
				}
			}
			if _, ok := body["top_k"]; ok {
				t.Error("request carries top_k")
			}
			if msgs, _ := body["messages"].([]any); len(msgs) != 2 {
				t.Errorf("messages = %v, want system and user", body["messages"])
			}
		})
	}
}

func TestGeminiErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	g, _ := NewGeminiLLMFromConfig(&LLMSettings{APIKey: "k", BaseURL: srv.URL}, srv.Client())
	_, err := g.Complete(context.Background(), Prompt{User: "hi"}, GenerationParams{})
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Errorf("Complete() error = %v, want quota message", err)
	}
}

func TestGeminiRequiresKey(t *testing.T) {
	if _, err := NewGeminiLLMFromConfig(&LLMSettings{}, nil); err == nil {
		t.Error("NewGeminiLLMFromConfig() error = nil, want missing key")
	}
}

func TestOpenAIRequiresKeyAndModel(t *testing.T) {
	if _, err := NewOpenAILLMFromConfig(&LLMSettings{Model: "m"}); err == nil {
		t.Error("missing api key accepted")
	}
	if _, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "k"}); err == nil {
		t.Error("missing model accepted")
	}
}

func TestRateLimitedHonoursContext(t *testing.T) {
	inner := &fakeLLM{resp: "ok"}
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	llm := RateLimited(inner, limiter)

	if _, err := llm.Complete(context.Background(), Prompt{}, GenerationParams{}); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := llm.Complete(ctx, Prompt{}, GenerationParams{}); err == nil {
		t.Fatal("second call error = nil, want limiter wait error")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	if RateLimited(inner, nil) != LLMClient(inner) {
		t.Error("RateLimited(nil limiter) should return the client unchanged")
	}
}

func TestMockLLMRoundTrip(t *testing.T) {
	a, err := New(MockLLM{}, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	res, err := a.Analyze(context.Background(), "I love it, great build")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Sentiment != Positive {
		t.Errorf("Sentiment = %q, want positive", res.Sentiment)
	}
	sugg, err := a.Suggest(context.Background(), AspectBag{})
	if err != nil || len(sugg) != 3 {
		t.Errorf("Suggest() = %v, %v; want 3 suggestions", sugg, err)
	}
}
