// Package logs provides the leveled, task-aware logger gotask uses in place
// of the original Rust ct_info!/ct_warn!/ct_fatal! macros
// (see original_source/src/cargo_task_util.rs), plus the session-log
// bookkeeping carried over from the teacher repo's internal/logs package.
package logs

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Level is a log severity, mirroring CTLogLevel from cargo_task_util.rs.
type Level int

const (
	Info Level = iota
	Warn
	Fatal
)

func (l Level) label() string {
	switch l {
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Fatal:
		return "FATAL"
	default:
		return "LOG"
	}
}

func (l Level) color() *color.Color {
	switch l {
	case Info:
		return color.New(color.FgCyan)
	case Warn:
		return color.New(color.FgYellow)
	case Fatal:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New()
	}
}

// curTask is the name of the task currently running, if any. The executor
// sets this immediately before spawning a task and clears it after.
var curTask string

// SetCurrentTask records the name of the task about to run, so subsequent
// log lines are tagged with it. Pass "" to clear.
func SetCurrentTask(name string) {
	curTask = name
}

func init() {
	applyColorEnv()
}

// settingsColor holds the ambient settings.yaml color override ("always",
// "never", or "" for auto), applied beneath the environment variables below.
var settingsColor string

// ApplyColorSetting records the ambient settings.yaml "color" value. Env
// vars (GOTASK_NO_COLOR/GOTASK_COLOR) still take precedence, per spec.md
// §7's environment-wins rule — see applyColorEnv.
func ApplyColorSetting(value string) {
	settingsColor = value
	applyColorEnv()
}

// applyColorEnv mirrors spec.md §7's color decision: on by default when
// stdout is a terminal, forced off/on by the ambient settings.yaml "color"
// key, and finally overridden by GOTASK_NO_COLOR/GOTASK_COLOR.
func applyColorEnv() {
	switch settingsColor {
	case "never":
		color.NoColor = true
	case "always":
		color.NoColor = false
	}
	if _, ok := os.LookupEnv("GOTASK_NO_COLOR"); ok {
		color.NoColor = true
		return
	}
	if _, ok := os.LookupEnv("GOTASK_COLOR"); ok {
		color.NoColor = false
	}
}

func log(level Level, format string, args ...interface{}) {
	applyColorEnv()
	msg := fmt.Sprintf(format, args...)
	prefix := "[" + level.label() + "]"
	if curTask != "" {
		prefix = "[" + level.label() + " " + curTask + "]"
	}
	c := level.color()
	out := os.Stdout
	if level != Info {
		out = os.Stderr
	}
	fmt.Fprintln(out, c.Sprint(prefix)+" "+msg)
}

// Infof logs an informational message.
func Infof(format string, args ...interface{}) { log(Info, format, args...) }

// Warnf logs a non-fatal warning. Callers continue after a Warnf, per
// spec.md §7's "best-effort operation" policy.
func Warnf(format string, args ...interface{}) { log(Warn, format, args...) }

// Fatalf logs a fatal error and terminates the process with exit code 1,
// mirroring ct_fatal!. It is the only function in this package that calls
// os.Exit.
func Fatalf(format string, args ...interface{}) {
	log(Fatal, format, args...)
	os.Exit(1)
}
