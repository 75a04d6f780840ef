package config

import (
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("driver = %q, want postgres", cfg.DBDriver)
	}
	if cfg.DefaultWorkloadHours != 8 {
		t.Fatalf("workload = %v, want 8", cfg.DefaultWorkloadHours)
	}
	if cfg.JWTTTL != 12*time.Hour {
		t.Fatalf("ttl = %v, want 12h", cfg.JWTTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestParse_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Parse(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestParse_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := Parse(); err == nil {
		t.Fatal("expected error for mysql driver")
	}
}

func TestParse_RejectsBadTimezone(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := Parse(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := cfg.DatabaseDSN(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
	cfg.DBDSN = "postgres://x"
	if got := cfg.DatabaseDSN(); got != "postgres://x" {
		t.Fatalf("explicit dsn not used: %q", got)
	}
}
