package cfg

import (
	"os"
	"path/filepath"
	"testing"
)

func validTestConfig() *Configuration {
	return &Configuration{
		HTTP: HTTPConfiguration{
			BindAddress: "127.0.0.1",
			Port:        8080,
			MaxUploadMB: 64,
		},
		Database: DatabaseConfiguration{
			Path:          "./test.db",
			BusyTimeoutMS: 5000,
		},
		Logging: LoggingConfiguration{
			Format: "console",
		},
		Cache: CacheConfiguration{
			ChartEntries: 16,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validTestConfig()

	if err := Validate(); err != nil {
		t.Errorf("Expected no error for valid config, got: %v", err)
	}
}

func TestValidate_InvalidHTTPPort(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	tests := []int{-1, 0, 70000}

	for _, port := range tests {
		Config = validTestConfig()
		Config.HTTP.Port = port

		if err := Validate(); err == nil {
			t.Errorf("Expected error for HTTP port %d, got nil", port)
		}
	}
}

func TestValidate_EmptyDatabasePath(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validTestConfig()
	Config.Database.Path = ""

	if err := Validate(); err == nil {
		t.Error("Expected error for empty database path, got nil")
	}
}

func TestValidate_InvalidLoggingFormat(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validTestConfig()
	Config.Logging.Format = "xml"

	if err := Validate(); err == nil {
		t.Error("Expected error for invalid logging format, got nil")
	}
}

func TestLoad_FromFile(t *testing.T) {
	original := Config
	defer func() { Config = original }()
	Config = validTestConfig()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	content := `
[http]
port = 9999
max_upload_mb = 8

[database]
path = "` + filepath.ToSlash(filepath.Join(tmpDir, "data", "reelstats.db")) + `"

[logging]
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if err := Load(configPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if Config.HTTP.Port != 9999 {
		t.Errorf("HTTP port = %d, want 9999", Config.HTTP.Port)
	}
	if Config.HTTP.MaxUploadMB != 8 {
		t.Errorf("MaxUploadMB = %d, want 8", Config.HTTP.MaxUploadMB)
	}
	if Config.Logging.Format != "json" {
		t.Errorf("Logging format = %s, want json", Config.Logging.Format)
	}

	// Load must create the database directory
	if _, err := os.Stat(filepath.Join(tmpDir, "data")); err != nil {
		t.Errorf("Expected database directory to be created: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	original := Config
	defer func() { Config = original }()
	Config = validTestConfig()

	if err := Load(filepath.Join(t.TempDir(), "nope.toml")); err != nil {
		t.Fatalf("Load with missing file should not error, got: %v", err)
	}

	if Config.HTTP.Port != 8080 {
		t.Errorf("HTTP port = %d, want default 8080", Config.HTTP.Port)
	}
}
