package utils

import (
	"testing"

	"github.com/fatih/color"
)

func TestColorizer(t *testing.T) {
	SetColorize(false)
	defer SetColorize(true)

	red := Colorizer(color.FgRed)
	if s := red("safe", 1); s != "safe1" {
		t.Errorf("Expected plain output, got %q", s)
	}
}
