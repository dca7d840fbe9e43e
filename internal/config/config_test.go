package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://school@localhost/school")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.Env != "dev" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.DBTimeout != 5*time.Second || !cfg.AutoMigrate || cfg.SeedDemo {
		t.Fatalf("unexpected db defaults %+v", cfg)
	}
	if cfg.NotifyEnabled() {
		t.Fatal("notifications need a token and a chat")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://school@localhost/school")
	t.Setenv("DB_TIMEOUT", "750ms")
	t.Setenv("SEED_DEMO", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBTimeout != 750*time.Millisecond || !cfg.SeedDemo {
		t.Fatalf("overrides not applied %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if !cfg.NotifyEnabled() || cfg.TelegramChatID != -100200 {
		t.Fatalf("telegram not configured %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected missing DATABASE_URL to fail")
	}

	t.Setenv("DATABASE_URL", "postgres://school@localhost/school")
	t.Setenv("DB_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected bad duration to fail")
	}

	t.Setenv("DB_TIMEOUT", "")
	for _, v := range []string{"0s", "-1m"} {
		t.Setenv("STATS_INTERVAL", v)
		if _, err := Load(); err == nil {
			t.Fatalf("expected STATS_INTERVAL=%s to fail", v)
		}
	}
}
