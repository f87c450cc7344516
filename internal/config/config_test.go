package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	c := Config{}
	c.HTTP.Port = 8080
	c.Database.Addrs = []string{"localhost:6379"}
	c.Blob.Bucket = "docshelf-uploads"
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := Config{}
	c.ApplyDefaults()

	if c.HTTP.ReadTimeoutSec != 30 || c.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("unexpected http timeouts: %+v", c.HTTP)
	}
	if c.Database.KeyPrefix != "docshelf:doc:" {
		t.Errorf("unexpected key prefix %q", c.Database.KeyPrefix)
	}
	if c.Upload.MaxFileSizeBytes != 20<<20 {
		t.Errorf("unexpected max file size %d", c.Upload.MaxFileSizeBytes)
	}
	if len(c.Upload.AllowedExtensions) != 3 || c.Upload.AllowedExtensions[0] != "pdf" {
		t.Errorf("unexpected extensions %v", c.Upload.AllowedExtensions)
	}
	if c.Search.MaxResults != 100 || c.Search.SafetyMarginMillis != 500 || c.Search.RequestTimeoutSec != 10 {
		t.Errorf("unexpected search defaults: %+v", c.Search)
	}
	if c.Download.URLTTLSec != 300 {
		t.Errorf("unexpected url ttl %d", c.Download.URLTTLSec)
	}
	if c.CORS.AllowedOrigin != "*" {
		t.Errorf("unexpected origin %q", c.CORS.AllowedOrigin)
	}
	if c.Blob.MaxAttempts != 3 {
		t.Errorf("unexpected blob max attempts %d", c.Blob.MaxAttempts)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	c := Config{}
	c.Upload.MaxFileSizeBytes = 1024
	c.Search.MaxResults = 5
	c.ApplyDefaults()

	if c.Upload.MaxFileSizeBytes != 1024 {
		t.Errorf("explicit file size overwritten: %d", c.Upload.MaxFileSizeBytes)
	}
	if c.Search.MaxResults != 5 {
		t.Errorf("explicit max results overwritten: %d", c.Search.MaxResults)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"no db addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"no bucket", func(c *Config) { c.Blob.Bucket = "" }, "blob.bucket"},
		{"margin swallows budget", func(c *Config) {
			c.Search.RequestTimeoutSec = 1
			c.Search.SafetyMarginMillis = 1000
		}, "safety_margin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCSHELF_TEST_BUCKET", "from-env")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "bucket: ${DOCSHELF_TEST_BUCKET}", "bucket: from-env"},
		{"unset variable", "bucket: ${DOCSHELF_TEST_UNSET}", "bucket: "},
		{"default used", "region: ${DOCSHELF_TEST_UNSET:-us-east-1}", "region: us-east-1"},
		{"default ignored when set", "bucket: ${DOCSHELF_TEST_BUCKET:-other}", "bucket: from-env"},
		{"no variables", "port: 8080", "port: 8080"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(expandEnvVars([]byte(tc.in))); got != tc.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
