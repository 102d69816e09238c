// Package vlog is voidbox's leveled diagnostic logger. It mirrors the
// structure of a small package-level logger: a level threshold read from
// the environment, ANSI coloring on a tty, and a handful of Xf functions
// that format and write to stderr.
package vlog

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Level int

const (
	FatalLevel Level = iota - 2
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (l Level) String() string {
	switch l {
	case FatalLevel:
		return "FATAL"
	case ErrorLevel:
		return "ERROR"
	case WarnLevel:
		return "WARNING"
	case InfoLevel:
		return "INFO"
	case DebugLevel:
		return "DEBUG"
	default:
		return "LOG"
	}
}

var levelColors = map[Level]color.Attribute{
	FatalLevel: color.FgRed,
	ErrorLevel: color.FgRed,
	WarnLevel:  color.FgYellow,
	InfoLevel:  color.FgBlue,
}

var (
	loggerLevel = InfoLevel
	logWriter   = io.Writer(os.Stderr)
	useColor    = isatty.IsTerminal(os.Stderr.Fd())
)

const EnvVar = "VOIDBOX_MESSAGELEVEL"

func init() {
	if l, err := strconv.Atoi(os.Getenv(EnvVar)); err == nil {
		loggerLevel = Level(l)
	}
}

// SetLevel explicitly sets the logger's threshold level.
func SetLevel(l Level) {
	loggerLevel = l
}

// GetLevel returns the current threshold level.
func GetLevel() Level {
	return loggerLevel
}

// EnvAssignment returns a VOIDBOX_MESSAGELEVEL=N string suitable for a
// child process's environment, so verbosity carries across a re-exec.
func EnvAssignment() string {
	return fmt.Sprintf("%s=%d", EnvVar, loggerLevel)
}

// SetWriter redirects log output, returning the previous writer so tests
// can restore it.
func SetWriter(w io.Writer) io.Writer {
	old := logWriter
	if w != nil {
		logWriter = w
	}
	return old
}

func writef(level Level, format string, a ...interface{}) {
	if loggerLevel < level {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, a...), "\n")
	label := fmt.Sprintf("%-7s", level.String()+":")
	if useColor {
		if attr, ok := levelColors[level]; ok {
			label = color.New(attr).Sprint(label)
		}
	}
	fmt.Fprintf(logWriter, "%s %s\n", label, msg)
}

func Fatalf(format string, a ...interface{}) {
	writef(FatalLevel, format, a...)
	os.Exit(1)
}

func Errorf(format string, a ...interface{}) { writef(ErrorLevel, format, a...) }
func Warningf(format string, a ...interface{}) { writef(WarnLevel, format, a...) }
func Infof(format string, a ...interface{})  { writef(InfoLevel, format, a...) }
func Debugf(format string, a ...interface{}) { writef(DebugLevel, format, a...) }
