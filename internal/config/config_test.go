package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestLegacyEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("BLOB_READ_WRITE_TOKEN", "vercel_blob_rw_secret")
	t.Setenv("VERCEL_BLOB_API_URL", "https://blob.example.com")

	cfg := loadLegacyEnv()
	if cfg.Port != "8081" || cfg.BlobToken != "vercel_blob_rw_secret" || cfg.BlobApiUrl != "https://blob.example.com" {
		t.Errorf("loadLegacyEnv() = %+v", cfg)
	}
}

func TestCacheDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("BLOB_READ_WRITE_TOKEN", "")

	cmd := &cobra.Command{}
	cfg := &Cache{}
	if err := cfg.Init(cmd); err != nil {
		t.Fatal(err)
	}

	viper.Set("cache.local-dir", "/var/lib/streamgate")
	cfg.Set()

	if cfg.Retention != 24*time.Hour || cfg.SweepInterval != 360*time.Hour {
		t.Errorf("retention = %v, sweep interval = %v", cfg.Retention, cfg.SweepInterval)
	}
	if cfg.LookupTTL != time.Minute || cfg.StoreTimeout != 10*time.Second || cfg.SweepDeleteRate != 10 {
		t.Errorf("cache config = %+v", cfg)
	}
	if cfg.UseBlob() {
		t.Error("UseBlob() = true without token")
	}
	if cfg.LocalDir != "/var/lib/streamgate" {
		t.Errorf("LocalDir = %q", cfg.LocalDir)
	}
}

func TestCacheLegacyToken(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("BLOB_READ_WRITE_TOKEN", "vercel_blob_rw_secret")

	cfg := &Cache{}
	if err := cfg.Init(&cobra.Command{}); err != nil {
		t.Fatal(err)
	}
	SetLegacyDefaults()
	cfg.Set()

	if !cfg.UseBlob() || cfg.BlobToken != "vercel_blob_rw_secret" {
		t.Errorf("BlobToken = %q, want legacy token", cfg.BlobToken)
	}
}

func TestServerLegacyPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("PORT", "8081")

	cfg := &Server{}
	if err := cfg.Init(&cobra.Command{}); err != nil {
		t.Fatal(err)
	}
	SetLegacyDefaults()
	cfg.Set()

	if cfg.Bind != "0.0.0.0:8081" {
		t.Errorf("Bind = %q, want legacy port", cfg.Bind)
	}
	if !cfg.Cors || !cfg.Compress {
		t.Errorf("server config = %+v", cfg)
	}
}

func TestServerBindOverridesLegacyPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("PORT", "8081")

	cfg := &Server{}
	if err := cfg.Init(&cobra.Command{}); err != nil {
		t.Fatal(err)
	}
	SetLegacyDefaults()
	viper.Set("bind", "127.0.0.1:3000")
	cfg.Set()

	if cfg.Bind != "127.0.0.1:3000" {
		t.Errorf("Bind = %q, want explicit bind", cfg.Bind)
	}
}

func TestLocalDirExpand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true

	if got := localDir("~/playlists"); got != filepath.Join(home, "playlists") {
		t.Errorf("localDir() = %q", got)
	}
}
