package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_URL", "https://erp.example.com/api/index.php")
	t.Setenv("API_TOKEN", "pass:dolibarr/api-token")
	t.Setenv("POLL_INTERVAL", "60")
	t.Setenv("WATCH_CUSTOMERS", "3,8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://erp.example.com/api/index.php" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PollInterval != time.Minute {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout default = %v", cfg.HTTPTimeout)
	}
	if cfg.RequestDelay != 200*time.Millisecond {
		t.Fatalf("RequestDelay default = %v", cfg.RequestDelay)
	}
	if !reflect.DeepEqual(cfg.WatchCustomers, []int64{3, 8}) {
		t.Fatalf("WatchCustomers = %v", cfg.WatchCustomers)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doli.yaml")
	raw := `
db_username: dolibarr
db_pass_file: pass:dolibarr/db
api_url: https://erp.example.com/api/index.php/
api_token: env:DOLI_TOKEN
storage_type: none
watch_customers: [5, 6]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBUsername != "dolibarr" || cfg.DBPassFile != "pass:dolibarr/db" {
		t.Fatalf("db settings = %q %q", cfg.DBUsername, cfg.DBPassFile)
	}
	if cfg.APIToken != "env:DOLI_TOKEN" || cfg.StorageType != "none" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.WatchCustomers, []int64{5, 6}) {
		t.Fatalf("WatchCustomers = %v", cfg.WatchCustomers)
	}
}

func TestLoadRequiresAPIURLAndToken(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("API_TOKEN", "pass:x")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing api_url")
	}

	t.Setenv("API_URL", "https://erp.example.com")
	t.Setenv("API_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing api_token")
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("API_URL", "https://erp.example.com")
	t.Setenv("API_TOKEN", "pass:x")
	t.Setenv("POLL_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for poll_interval=0")
	}
}
