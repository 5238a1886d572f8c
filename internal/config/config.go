// Package config loads the optional crawl policy file. Connection
// settings stay in environment variables; the crawl policy lives in
// YAML because operators tune its keyword lists per deployment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/devrag-core/internal/crawler"
)

// CrawlPolicy mirrors crawler.Config in file form.
type CrawlPolicy struct {
	MaxDepth       int `yaml:"max_depth"`
	MaxConcurrency int `yaml:"max_concurrency"`
	MaxPages       int `yaml:"max_pages"`
	TimeoutSecs    int `yaml:"timeout_secs"`

	// SameDomainOnly is a pointer so an omitted key keeps the default
	SameDomainOnly *bool `yaml:"same_domain_only"`

	UserAgent string `yaml:"user_agent"`

	// UnwantedKeywords extends the built-in list when set
	UnwantedKeywords []string `yaml:"unwanted_keywords"`

	// SocialMediaDomains replaces the built-in list when set
	SocialMediaDomains []string `yaml:"social_media_domains"`
}

// LoadCrawlPolicy reads a crawl policy from path and merges it over the
// crawler defaults. A missing file returns the defaults.
func LoadCrawlPolicy(path string) (crawler.Config, error) {
	cfg := crawler.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read crawl policy %s: %w", path, err)
	}

	var policy CrawlPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return cfg, fmt.Errorf("parse crawl policy %s: %w", path, err)
	}

	if policy.MaxDepth > 0 {
		cfg.MaxDepth = policy.MaxDepth
	}
	if policy.MaxConcurrency > 0 {
		cfg.MaxConcurrency = policy.MaxConcurrency
	}
	if policy.MaxPages > 0 {
		cfg.MaxPages = policy.MaxPages
	}
	if policy.TimeoutSecs > 0 {
		cfg.Timeout = time.Duration(policy.TimeoutSecs) * time.Second
	}
	if policy.UserAgent != "" {
		cfg.UserAgent = policy.UserAgent
	}
	if policy.SameDomainOnly != nil {
		cfg.SameDomainOnly = *policy.SameDomainOnly
	}
	if len(policy.UnwantedKeywords) > 0 {
		cfg.UnwantedKeywords = append(cfg.UnwantedKeywords, policy.UnwantedKeywords...)
	}
	if len(policy.SocialMediaDomains) > 0 {
		cfg.SocialMediaDomains = policy.SocialMediaDomains
	}
	return cfg, nil
}
