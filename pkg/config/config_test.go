package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	s := sample{Port: 1}
	if err := Parse([]byte("name: ${SAMPLE_NAME}\ntimeout: 3s\n"), &s); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "from-env" || s.Timeout != 3*time.Second || s.Port != 1 {
		t.Errorf("got %+v", s)
	}
}

func TestParse_UnknownKey(t *testing.T) {
	s := sample{Port: 1}
	if err := Parse([]byte("nmae: typo\n"), &s); err == nil {
		t.Fatal("unknown key should be rejected")
	}
}

func TestParse_EmptyDocumentKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 2}
	if err := Parse(nil, &s); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("name = %q", s.Name)
	}
}

func TestParse_RunsValidator(t *testing.T) {
	var s sample
	err := Parse([]byte("name: x\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := sample{Port: 1}
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	s := sample{Port: 5}
	if err := LoadOptional(filepath.Join(dir, "nope.yaml"), &s); err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadOptional(path, &s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Port != 9 {
		t.Errorf("port = %d, want 9", s.Port)
	}
}
