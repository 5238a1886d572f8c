package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/custodia-labs/devrag-core/internal/crawler"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

func TestLoadCrawlPolicy_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadCrawlPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadCrawlPolicy: %v", err)
	}

	def := crawler.DefaultConfig()
	if cfg.MaxDepth != def.MaxDepth || cfg.MaxPages != def.MaxPages {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if !cfg.SameDomainOnly {
		t.Error("expected same-domain restriction on by default")
	}
}

func TestLoadCrawlPolicy_OverridesDefaults(t *testing.T) {
	path := writePolicy(t, `
max_depth: 4
max_pages: 50
timeout_secs: 20
same_domain_only: false
unwanted_keywords:
  - careers
social_media_domains:
  - tiktok
`)

	cfg, err := LoadCrawlPolicy(path)
	if err != nil {
		t.Fatalf("LoadCrawlPolicy: %v", err)
	}

	if cfg.MaxDepth != 4 || cfg.MaxPages != 50 {
		t.Errorf("limits not applied: %+v", cfg)
	}
	if cfg.Timeout != 20*time.Second {
		t.Errorf("expected 20s timeout, got %v", cfg.Timeout)
	}
	if cfg.SameDomainOnly {
		t.Error("expected same-domain restriction disabled")
	}

	foundCareers := false
	foundLogin := false
	for _, kw := range cfg.UnwantedKeywords {
		if kw == "careers" {
			foundCareers = true
		}
		if kw == "login" {
			foundLogin = true
		}
	}
	if !foundCareers {
		t.Error("custom keyword not appended")
	}
	if !foundLogin {
		t.Error("built-in keywords must survive the merge")
	}

	if len(cfg.SocialMediaDomains) != 1 || cfg.SocialMediaDomains[0] != "tiktok" {
		t.Errorf("social domains should be replaced, got %v", cfg.SocialMediaDomains)
	}
}

func TestLoadCrawlPolicy_OmittedKeysKeepDefaults(t *testing.T) {
	path := writePolicy(t, "max_depth: 3\n")

	cfg, err := LoadCrawlPolicy(path)
	if err != nil {
		t.Fatalf("LoadCrawlPolicy: %v", err)
	}

	def := crawler.DefaultConfig()
	if cfg.MaxDepth != 3 {
		t.Errorf("expected depth 3, got %d", cfg.MaxDepth)
	}
	if cfg.MaxPages != def.MaxPages {
		t.Errorf("omitted max_pages should keep default %d, got %d", def.MaxPages, cfg.MaxPages)
	}
	if !cfg.SameDomainOnly {
		t.Error("omitted same_domain_only should keep default")
	}
}

func TestLoadCrawlPolicy_Malformed(t *testing.T) {
	path := writePolicy(t, "max_depth: [not an int\n")

	if _, err := LoadCrawlPolicy(path); err == nil {
		t.Fatal("expected parse error")
	}
}
