package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:8000/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, expected 15s", cfg.RequestTimeout)
	}
	if cfg.AnalysisTimeout != 3*time.Minute {
		t.Errorf("AnalysisTimeout = %v, expected 3m", cfg.AnalysisTimeout)
	}
	if cfg.Language != "en" {
		t.Errorf("Language = %q, expected en", cfg.Language)
	}
	if cfg.NotificationCapacity != 100 {
		t.Errorf("NotificationCapacity = %d, expected 100", cfg.NotificationCapacity)
	}
}

func TestSetPersists(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := Set("api_url", "http://backend:9000/api/"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Set("nonsense", "1"); err == nil {
		t.Error("expected unknown key to be rejected")
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.APIURL != "http://backend:9000/api" {
		t.Errorf("APIURL = %q, expected trailing slash trimmed", cfg.APIURL)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CAREERFLOW_LANGUAGE", "vi")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Language != "vi" {
		t.Errorf("Language = %q, expected env override vi", cfg.Language)
	}
}

func TestSetValidatesValues(t *testing.T) {
	if _, err := Load(t.TempDir()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"request_timeout", "30s", false},
		{"request_timeout", "soon", true},
		{"analysis_timeout", "-1m", true},
		{"notification_capacity", "50", false},
		{"notification_capacity", "0", true},
		{"notification_capacity", "many", true},
		{"pretty_log", "false", false},
		{"pretty_log", "nope", true},
		{"log_level", "DEBUG", false},
		{"log_level", "verbose", true},
		{"api_url", "https://cv.example.com/api", false},
		{"api_url", "cv.example.com", true},
		{"language", "vi", false},
		{"language", " ", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestAllIncludesEveryKey(t *testing.T) {
	if _, err := Load(t.TempDir()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	all := All()
	for _, k := range Keys() {
		if _, ok := all[k]; !ok {
			t.Errorf("All() is missing %q", k)
		}
	}
	if all["language"] != "en" {
		t.Errorf("language = %v, expected en", all["language"])
	}
}
