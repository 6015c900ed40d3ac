package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

var noColorize bool

// SetColorize toggles colorized output globally.
func SetColorize(enabled bool) {
	noColorize = !enabled
	color.NoColor = !enabled
}

// CanColorize returns col, or a plain formatter if colors are disabled.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%v", len(is)), is...)
		}
	}
	return col
}

// Colorizer builds a colorizing formatter with the given attributes.
func Colorizer(attrs ...color.Attribute) func(...interface{}) string {
	sprint := color.New(attrs...).SprintFunc()
	return func(is ...interface{}) string {
		return CanColorize(sprint)(is...)
	}
}

// TimeTrack reports the time elapsed since start.
func TimeTrack(start time.Time, name string, printf func(string, ...interface{})) {
	printf("%s took %s", name, time.Since(start))
}
