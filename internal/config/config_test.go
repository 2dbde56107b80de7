package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("ADMIN_EMAILS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode by default")
	}
	if len(cfg.AdminEmails) != 0 {
		t.Fatalf("expected no admin emails, got %v", cfg.AdminEmails)
	}
}

func TestAdminEmailsParsing(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("ADMIN_EMAILS", " Admin@Example.com , staff@example.com ,")

	cfg := Load()
	if len(cfg.AdminEmails) != 2 {
		t.Fatalf("expected 2 admin emails, got %v", cfg.AdminEmails)
	}
	if !cfg.IsAdminEmail("admin@example.com") {
		t.Fatal("expected case-insensitive admin match")
	}
	if !cfg.IsAdminEmail("STAFF@example.com") {
		t.Fatal("expected admin match for second entry")
	}
	if cfg.IsAdminEmail("guest@example.com") {
		t.Fatal("unlisted email must not be admin")
	}
}

func TestProductionRequiresBackends(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing DATABASE_URL in production")
		}
	}()
	Load()
}
