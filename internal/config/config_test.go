package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
port: "8080"
databaseURL: "postgres://localhost/shelfsync"
minioEndpoint: "localhost:9000"
minioAccessKey: "minio"
minioSecretKey: "minio123"
minioBucket: "books"
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.MinioBucket != "books" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://override/db")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://override/db" {
		t.Fatalf("env override not applied: %q", cfg.DatabaseURL)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Fatalf("upload bytes override not applied: %d", cfg.MaxUploadBytes)
	}
}

func TestLoadRejectsMissingFields(t *testing.T) {
	_, err := Load(writeConfig(t, "port: \"8080\"\n"))
	if err == nil || !strings.Contains(err.Error(), "databaseURL") {
		t.Fatalf("expected databaseURL error, got: %v", err)
	}
}

func TestLoadValidatesSessionBackend(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"sessionBackend: \"redis\"\n"))
	if err == nil || !strings.Contains(err.Error(), "redisAddr") {
		t.Fatalf("expected redisAddr error, got: %v", err)
	}
	_, err = Load(writeConfig(t, validConfig+"sessionBackend: \"carrier-pigeon\"\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown session backend") {
		t.Fatalf("expected unknown backend error, got: %v", err)
	}
}

func TestParseSessionTTL(t *testing.T) {
	ttl, err := ParseSessionTTL("")
	if err != nil || ttl != 24*time.Hour {
		t.Fatalf("default ttl: %v %v", ttl, err)
	}
	ttl, err = ParseSessionTTL("90m")
	if err != nil || ttl != 90*time.Minute {
		t.Fatalf("parse ttl: %v %v", ttl, err)
	}
	if _, err := ParseSessionTTL("-1h"); err == nil {
		t.Fatalf("negative ttl must be rejected")
	}
	if _, err := ParseSessionTTL("soon"); err == nil {
		t.Fatalf("garbage ttl must be rejected")
	}
}
