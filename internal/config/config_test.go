package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// env returns a lookup over a fixed set of variables.
func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Second},
		Upload:   UploadConfig{MaxFileSize: 1, MaxFiles: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Rate:     RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1},
		Pipeline: PipelineConfig{PreviewRows: 5, ChartSeries: 2, SessionTTL: time.Minute, JanitorInterval: time.Minute},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxFileSize != 52428800 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 52428800)
	}
	if cfg.Upload.MaxFiles != 20 {
		t.Errorf("Upload.MaxFiles = %d, want %d", cfg.Upload.MaxFiles, 20)
	}
	if cfg.Pipeline.PreviewRows != 5 || cfg.Pipeline.ChartSeries != 2 {
		t.Errorf("Pipeline = %+v, want 5 preview rows and 2 series", cfg.Pipeline)
	}
	if cfg.Pipeline.SessionTTL != 30*time.Minute {
		t.Errorf("Pipeline.SessionTTL = %v, want 30m", cfg.Pipeline.SessionTTL)
	}
	if !cfg.Rate.Enabled || cfg.Rate.RequestsPerMinute != 120 {
		t.Errorf("Rate = %+v", cfg.Rate)
	}
	if cfg.Security.TrustedProxies != nil {
		t.Errorf("Security.TrustedProxies = %q, want nil", cfg.Security.TrustedProxies)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_PORT":           "9090",
		"UPLOAD_MAX_CONCURRENT": "10",
		"LOG_LEVEL":             "debug",
		"RATE_LIMIT_ENABLED":    "false",
		"PIPELINE_CHART_SERIES": "1",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Rate.Enabled {
		t.Error("Rate.Enabled = true, want false")
	}
	if cfg.Pipeline.ChartSeries != 1 {
		t.Errorf("Pipeline.ChartSeries = %d, want 1", cfg.Pipeline.ChartSeries)
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{"PORT": "3000"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000 from PORT", cfg.Server.Port)
	}

	cfg, err = LoadFrom(env(map[string]string{"PORT": "3000", "SERVER_PORT": "4000"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want SERVER_PORT to win", cfg.Server.Port)
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_READ_TIMEOUT":  "45s",
		"UPLOAD_MAX_WAIT_TIME": "1m30s",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"TRUSTED_PROXIES": "10.0.0.0/8, 172.16.0.0/12 , ,192.168.0.0/16",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	want := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if !reflect.DeepEqual(cfg.Security.TrustedProxies, want) {
		t.Errorf("TrustedProxies = %q, want %q", cfg.Security.TrustedProxies, want)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad integer", map[string]string{"SERVER_PORT": "eighty"}, "SERVER_PORT"},
		{"bad duration", map[string]string{"SESSION_TTL": "forever"}, "SESSION_TTL"},
		{"bad boolean", map[string]string{"METRICS_ENABLED": "maybe"}, "METRICS_ENABLED"},
		{"api key required without keys", map[string]string{"REQUIRE_API_KEY": "true"}, "API_KEYS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env(tt.vars))
			if err == nil {
				t.Fatal("LoadFrom() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %s: %v", tt.want, err)
			}
		})
	}
}

func TestLoadStruct_Required(t *testing.T) {
	var s struct {
		Token string `env:"TOKEN" required:"true"`
	}

	err := loadStruct(reflect.ValueOf(&s).Elem(), env(nil))
	if err == nil || !strings.Contains(err.Error(), "TOKEN") {
		t.Errorf("loadStruct() error = %v, want missing TOKEN", err)
	}

	if err := loadStruct(reflect.ValueOf(&s).Elem(), env(map[string]string{"TOKEN": "x"})); err != nil {
		t.Fatalf("loadStruct() error = %v", err)
	}
	if s.Token != "x" {
		t.Errorf("Token = %q, want x", s.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{"valid", func(*Config) {}, nil},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, []string{"SERVER_PORT"}},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, []string{"LOG_LEVEL"}},
		{"too many chart series", func(c *Config) { c.Pipeline.ChartSeries = 3 }, []string{"PIPELINE_CHART_SERIES"}},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, []string{"METRICS_PATH"}},
		{"rate disabled skips rate checks", func(c *Config) {
			c.Rate = RateLimitConfig{Enabled: false}
		}, nil},
		{"reports every failure", func(c *Config) {
			c.Upload.MaxFiles = 0
			c.Pipeline.PreviewRows = 0
			c.Logging.Format = "xml"
		}, []string{"UPLOAD_MAX_FILES", "PIPELINE_PREVIEW_ROWS", "LOG_FORMAT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.want) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error should mention %s: %v", w, err)
				}
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"::1", 443, "[::1]:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security = SecurityConfig{RequireAPIKey: true, APIKeys: []string{"s3cret-key"}}

	str := cfg.String()
	if strings.Contains(str, "s3cret") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
