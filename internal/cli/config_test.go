package cli

import (
	"os"
	"path/filepath"
	"testing"
)

// useTempHome points the config path at a throwaway home directory.
func useTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// clearEnv blanks the credential variables; ResolveCredentials treats an
// empty value the same as an unset one.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LDPROBE_PROJECT", "")
	t.Setenv("LDPROBE_SDK_KEY", "")
}

func TestResolveCredentials_FlagsWin(t *testing.T) {
	useTempHome(t)
	t.Setenv("LDPROBE_PROJECT", "env-proj")
	t.Setenv("LDPROBE_SDK_KEY", "env-key")

	project, sdkKey, err := ResolveCredentials("flag-proj", "flag-key")
	if err != nil {
		t.Fatalf("ResolveCredentials failed: %v", err)
	}
	if project != "flag-proj" {
		t.Errorf("Expected project 'flag-proj', got '%s'", project)
	}
	if sdkKey != "flag-key" {
		t.Errorf("Expected sdk key 'flag-key', got '%s'", sdkKey)
	}
}

func TestResolveCredentials_EnvironmentFallback(t *testing.T) {
	useTempHome(t)
	t.Setenv("LDPROBE_PROJECT", "env-proj")
	t.Setenv("LDPROBE_SDK_KEY", "env-key")

	project, sdkKey, err := ResolveCredentials("", "")
	if err != nil {
		t.Fatalf("ResolveCredentials failed: %v", err)
	}
	if project != "env-proj" {
		t.Errorf("Expected project 'env-proj', got '%s'", project)
	}
	if sdkKey != "env-key" {
		t.Errorf("Expected sdk key 'env-key', got '%s'", sdkKey)
	}
}

func TestResolveCredentials_ConfigFileFallback(t *testing.T) {
	useTempHome(t)
	clearEnv(t)

	cfg := &Config{
		DefaultProject: "file-proj",
		Projects: map[string]ProjectConfig{
			"file-proj": {SDKKey: "file-key"},
		},
	}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	project, sdkKey, err := ResolveCredentials("", "")
	if err != nil {
		t.Fatalf("ResolveCredentials failed: %v", err)
	}
	if project != "file-proj" {
		t.Errorf("Expected project 'file-proj', got '%s'", project)
	}
	if sdkKey != "file-key" {
		t.Errorf("Expected sdk key 'file-key', got '%s'", sdkKey)
	}
}

func TestResolveCredentials_UnknownProject(t *testing.T) {
	useTempHome(t)
	clearEnv(t)

	cfg := &Config{
		DefaultProject: "known",
		Projects: map[string]ProjectConfig{
			"known": {SDKKey: "key"},
		},
	}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, _, err := ResolveCredentials("missing", ""); err == nil {
		t.Error("Expected error for unknown project, got nil")
	}
}

func TestResolveCredentials_NothingConfigured(t *testing.T) {
	useTempHome(t)
	clearEnv(t)

	if _, _, err := ResolveCredentials("", ""); err == nil {
		t.Error("Expected error when nothing is configured, got nil")
	}
}

func TestSaveAndLoadConfig_RoundTrip(t *testing.T) {
	home := useTempHome(t)

	cfg := &Config{
		DefaultProject: "demo",
		Projects: map[string]ProjectConfig{
			"demo":  {SDKKey: "sdk-demo"},
			"other": {SDKKey: "sdk-other"},
		},
	}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	// File lands under the temp home with restrictive permissions
	path := filepath.Join(home, ".ldprobe", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected file mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.DefaultProject != "demo" {
		t.Errorf("Expected default project 'demo', got '%s'", loaded.DefaultProject)
	}
	if loaded.Projects["other"].SDKKey != "sdk-other" {
		t.Errorf("Expected sdk key 'sdk-other', got '%s'", loaded.Projects["other"].SDKKey)
	}
}

func TestLoadConfig_MissingFileReturnsEmpty(t *testing.T) {
	useTempHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed for missing file: %v", err)
	}
	if len(cfg.Projects) != 0 {
		t.Errorf("Expected empty projects, got %v", cfg.Projects)
	}
}

func TestMaskSDKKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "***"},
		{"short", "***"},
		{"sdk-12345678-rest-of-key", "sdk-1234***"},
	}

	for _, tt := range tests {
		if got := MaskSDKKey(tt.in); got != tt.want {
			t.Errorf("MaskSDKKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
