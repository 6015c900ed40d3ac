package config

import (
	"io"
	"log"
	"os"

	"github.com/cs-au-dk/invariant/utils"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type LogLevel int

const (
	// ErrLevel is the minimum level of logging.
	ErrLevel LogLevel = iota + 1
	WarnLevel
	// InfoLevel reports precision losses, such as domain downgrades and
	// merged calling contexts.
	InfoLevel
	DebugLevel
	// TraceLevel follows every fixpoint iteration. Only useful on small
	// programs.
	TraceLevel
)

type LogGroup struct {
	level LogLevel
	trace *log.Logger
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
}

// NewLogGroup returns a log group writing to stderr at the level of p.
func NewLogGroup(p *Params) *LogGroup {
	l := &LogGroup{
		level: LogLevel(p.LogLevel),
		trace: log.New(os.Stderr, utils.Colorizer(color.FgHiBlack)("[TRACE] "), 0),
		debug: log.New(os.Stderr, utils.Colorizer(color.FgCyan)("[DEBUG] "), 0),
		info:  log.New(os.Stderr, utils.Colorizer(color.FgGreen)("[INFO] "), 0),
		warn:  log.New(os.Stderr, utils.Colorizer(color.FgYellow)("[WARN] "), 0),
		err:   log.New(os.Stderr, utils.Colorizer(color.FgRed)("[ERROR] "), 0),
	}
	return l
}

// Discard returns a log group that drops every message.
func Discard() *LogGroup {
	l := NewLogGroup(&Params{LogLevel: int(ErrLevel)})
	l.SetAllOutput(io.Discard)
	return l
}

// ColorEnabled decides whether output should be colorized: only on
// terminals, and only if colors were not disabled explicitly.
func ColorEnabled(p *Params, out *os.File) bool {
	return !p.NoColor && term.IsTerminal(int(out.Fd()))
}

// SetAllOutput sets all the output writers to the writer provided
func (l *LogGroup) SetAllOutput(w io.Writer) {
	l.trace.SetOutput(w)
	l.debug.SetOutput(w)
	l.info.SetOutput(w)
	l.warn.SetOutput(w)
	l.err.SetOutput(w)
}

// SetAllFlags sets the flag of all loggers in the log group to the argument provided
func (l *LogGroup) SetAllFlags(x int) {
	l.trace.SetFlags(x)
	l.debug.SetFlags(x)
	l.info.SetFlags(x)
	l.warn.SetFlags(x)
	l.err.SetFlags(x)
}

// LogsLevel checks whether messages of the given level are printed.
func (l *LogGroup) LogsLevel(level LogLevel) bool { return l.level >= level }

func (l *LogGroup) Tracef(format string, v ...any) {
	if l.level >= TraceLevel {
		l.trace.Printf(format, v...)
	}
}

func (l *LogGroup) Debugf(format string, v ...any) {
	if l.level >= DebugLevel {
		l.debug.Printf(format, v...)
	}
}

func (l *LogGroup) Infof(format string, v ...any) {
	if l.level >= InfoLevel {
		l.info.Printf(format, v...)
	}
}

func (l *LogGroup) Warnf(format string, v ...any) {
	if l.level >= WarnLevel {
		l.warn.Printf(format, v...)
	}
}

func (l *LogGroup) Errorf(format string, v ...any) {
	if l.level >= ErrLevel {
		l.err.Printf(format, v...)
	}
}
