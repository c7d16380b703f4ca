package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8090" {
		t.Fatalf("unexpected address %q", cfg.HTTPAddress)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected api base url %q", cfg.APIBaseURL)
	}
	if cfg.ImagesBaseURL != cfg.APIBaseURL {
		t.Fatalf("expected images base url to follow api base url, got %q", cfg.ImagesBaseURL)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.APITimeout)
	}
	if cfg.PageSize != 10 {
		t.Fatalf("unexpected page size %d", cfg.PageSize)
	}
	if len(cfg.PageSizeOptions) != 3 || cfg.PageSizeOptions[0] != 5 || cfg.PageSizeOptions[2] != 25 {
		t.Fatalf("unexpected page size options %v", cfg.PageSizeOptions)
	}
	if cfg.NotificationLimit != 20 || cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected ambient defaults %+v", cfg)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COLLECTIBLES_API_BASE_URL", "https://collection.example.com/")
	t.Setenv("COLLECTIBLES_IMAGES_BASE_URL", "https://cdn.example.com")
	t.Setenv("COLLECTIBLES_API_TIMEOUT", "3s")
	t.Setenv("COLLECTIBLES_PAGE_SIZE", "12")
	t.Setenv("COLLECTIBLES_PAGE_SIZE_OPTIONS", "6, 12,24")
	t.Setenv("COLLECTIBLES_LOG_LEVEL", "DEBUG")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://collection.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.ImagesBaseURL != "https://cdn.example.com" {
		t.Fatalf("unexpected images base url %q", cfg.ImagesBaseURL)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.APITimeout)
	}
	if cfg.PageSize != 12 {
		t.Fatalf("unexpected page size %d", cfg.PageSize)
	}
	expectedOptions := []int{6, 12, 24}
	if len(cfg.PageSizeOptions) != len(expectedOptions) {
		t.Fatalf("unexpected options %v", cfg.PageSizeOptions)
	}
	for index, option := range expectedOptions {
		if cfg.PageSizeOptions[index] != option {
			t.Fatalf("unexpected options %v", cfg.PageSizeOptions)
		}
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected normalised log level, got %q", cfg.LogLevel)
	}
}

func TestLoadAcceptsLegacyAPIURLVariable(t *testing.T) {
	t.Setenv("COLLECTIBLES_API_URL", "http://legacy.example.com:3000")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://legacy.example.com:3000" {
		t.Fatalf("unexpected api base url %q", cfg.APIBaseURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		value    any
		contains string
	}{
		{name: "api url", key: "api.base_url", value: "not a url", contains: "api.base_url"},
		{name: "timeout", key: "api.timeout", value: "0s", contains: "api.timeout"},
		{name: "page size not offered", key: "page.size", value: 7, contains: "page.size 7"},
		{name: "non-positive option", key: "page.size_options", value: "0,10", contains: "page.size_options"},
		{name: "unparsable option", key: "page.size_options", value: "five", contains: "page.size_options"},
		{name: "log level", key: "log.level", value: "verbose", contains: "log.level"},
		{name: "log format", key: "log.format", value: "xml", contains: "log.format"},
		{name: "notification limit", key: "notifications.limit", value: 0, contains: "notifications.limit"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			configViper.Set(testCase.key, testCase.value)

			_, err := Load(configViper)
			if err == nil {
				t.Fatalf("expected error for %s=%v", testCase.key, testCase.value)
			}
			if !strings.Contains(err.Error(), testCase.contains) {
				t.Fatalf("expected error to mention %q, got %v", testCase.contains, err)
			}
		})
	}
}
