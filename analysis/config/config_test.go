package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/absval"
)

func write(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name, content string
	}{
		{"params.yaml", "domain: zones\ninter: true\nmax-calling-contexts: 3\ncheck: assert\n"},
		{"params.toml", "domain = \"zones\"\ninter = true\nmax-calling-contexts = 3\ncheck = \"assert\"\n"},
	}
	for _, test := range tests {
		p, err := Load(write(t, test.name, test.content))
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		if tag, _ := p.DomainTag(); tag != absval.TagZones || !p.Inter || p.MaxCallingContexts != 3 || !p.RunChecks() {
			t.Errorf("%s: unexpected parameters %+v", test.name, p)
		}
		if p.WideningDelay != 1 || !p.StoreInvariants {
			t.Errorf("%s: defaults should be kept, got %+v", test.name, p)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(write(t, "params.json", "{}")); !errors.Is(err, errUnknownFormat) {
		t.Errorf("Expected errUnknownFormat, got %v", err)
	}
	if _, err := Load(write(t, "params.yaml", "domain: boxes\n")); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams, got %v", err)
	}
	if _, err := Load(write(t, "params.yaml", "unknown-knob: 1\n")); err == nil {
		t.Errorf("Unknown fields should be rejected")
	}
}

func TestValidate(t *testing.T) {
	tests := []func(p *Params){
		func(p *Params) { p.WideningDelay = -1 },
		func(p *Params) { p.Jobs = 0 },
		func(p *Params) { p.Check = "bounds" },
		func(p *Params) { p.LogLevel = 9 },
	}
	for i, mutate := range tests {
		p := Default()
		mutate(p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Case %d: expected ErrInvalidParams, got %v", i, err)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("The defaults should be valid: %v", err)
	}
}

func TestLogGroup(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogGroup(&Params{LogLevel: int(InfoLevel)})
	l.SetAllOutput(&buf)

	l.Debugf("hidden")
	if buf.Len() != 0 {
		t.Errorf("Debug messages should be filtered, got %q", buf.String())
	}
	l.Infof("shown %d", 1)
	if !bytes.Contains(buf.Bytes(), []byte("shown 1")) {
		t.Errorf("Info messages should be printed, got %q", buf.String())
	}
	if !l.LogsLevel(WarnLevel) || l.LogsLevel(TraceLevel) {
		t.Errorf("Unexpected level filtering")
	}
}
