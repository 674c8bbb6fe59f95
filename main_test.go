package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"review_analyzer/analyzer"
	"review_analyzer/config"
	"review_analyzer/logger"
)

func TestBuildLLM(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr bool
	}{
		{name: "mock", cfg: config.LLMConfig{Provider: "mock"}},
		{name: "gemini", cfg: config.LLMConfig{Provider: "gemini", APIKey: "k"}},
		{name: "gemini without key", cfg: config.LLMConfig{Provider: "gemini"}, wantErr: true},
		{name: "openai", cfg: config.LLMConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini"}},
		{name: "deepseek without base url", cfg: config.LLMConfig{Provider: "deepseek", APIKey: "k", Model: "deepseek-chat"}, wantErr: true},
		{name: "deepseek", cfg: config.LLMConfig{Provider: "deepseek", APIKey: "k", Model: "deepseek-chat", BaseURL: "https://api.deepseek.com"}},
		{name: "unknown", cfg: config.LLMConfig{Provider: "cohere"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := buildLLM(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildLLM() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && llm == nil {
				t.Error("buildLLM() returned nil client")
			}
		})
	}
}

func writeConfig(t *testing.T, level string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "suggestion_marker: \" +\"\nllm:\n  provider: mock\n  rpm: 600\nlog:\n  level: " + level + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := writeConfig(t, "error")
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"--config", path}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := runCLI(t, "analyze", "--text", "great phone, I love it")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	var res analyzer.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %q", out)
	}
	if res.Sentiment != analyzer.Positive {
		t.Errorf("Sentiment = %q, want positive", res.Sentiment)
	}

	if _, err := runCLI(t, "analyze"); err == nil {
		t.Error("analyze without text error = nil, want invalid input")
	}
}

// At info level the analyzer logs every stage; stdout must still hold only the JSON result.
func TestAnalyzeCommandStdoutIsJSON(t *testing.T) {
	dir := t.TempDir()
	stdout, err := os.Create(filepath.Join(dir, "stdout"))
	if err != nil {
		t.Fatal(err)
	}
	stderr, err := os.Create(filepath.Join(dir, "stderr"))
	if err != nil {
		t.Fatal(err)
	}
	origOut, origErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = stdout, stderr
	defer func() {
		os.Stdout, os.Stderr = origOut, origErr
		logger.Log = logrus.New()
	}()

	cmd := rootCmd()
	cmd.SetArgs([]string{"--config", writeConfig(t, "info"), "analyze", "--text", "great phone, I love it"})
	runErr := cmd.ExecuteContext(context.Background())
	stdout.Close()
	stderr.Close()
	if runErr != nil {
		t.Fatalf("analyze error = %v", runErr)
	}

	out, _ := os.ReadFile(filepath.Join(dir, "stdout"))
	var res analyzer.Result
	if err := json.Unmarshal(out, &res); err != nil {
		t.Fatalf("stdout is not JSON: %q", out)
	}
	logs, _ := os.ReadFile(filepath.Join(dir, "stderr"))
	if !strings.Contains(string(logs), "analysis normalized") {
		t.Errorf("stderr = %q, want info logs", logs)
	}
}

func TestSuggestCommand(t *testing.T) {
	out, err := runCLI(t, "suggest", "--positive", "screen", "--negative", "battery,price")
	if err != nil {
		t.Fatalf("suggest error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("suggest printed %d lines: %q", len(lines), out)
	}
	for _, l := range lines {
		if !strings.HasSuffix(l, " +") {
			t.Errorf("line %q lacks configured marker", l)
		}
	}
}
