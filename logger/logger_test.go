package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLineFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "no JSON object in response",
		Data:    logrus.Fields{"stage": "extraction", "op": "analyze"},
	}
	out, err := (&LineFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "[2024-05-01 10:30:00] [WARN] [] no JSON object in response op=analyze stage=extraction\n"
	if string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}

func TestNewWritesFileAndParsesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := New("debug", path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", l.GetLevel())
	}
	l.Info("hello file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("log file = %q, want message", data)
	}

	l, err = New("chatty", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if l.GetLevel() != logrus.InfoLevel {
		t.Errorf("unknown level = %v, want info", l.GetLevel())
	}
}
