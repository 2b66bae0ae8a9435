package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "berkana")
	p := writeFile(t, "name: ${SAMPLE_NAME}\nport: 9000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "berkana" || s.Port != 9000 {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	p := writeFile(t, "name: x\nprot: 9000\n")

	var s sample
	if err := Load(p, &s); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLoad_Validates(t *testing.T) {
	p := writeFile(t, "name: x\nport: 0\n")

	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "default" || s.Port != 8080 {
		t.Errorf("defaults changed: %+v", s)
	}
}

func TestDecode_EmptyKeepsDefaults(t *testing.T) {
	s := sample{Port: 1}
	if err := Decode([]byte(""), &s); err != nil {
		t.Fatal(err)
	}
	if s.Port != 1 {
		t.Errorf("port = %d", s.Port)
	}
}
