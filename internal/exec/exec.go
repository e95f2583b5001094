// Package exec is gotask's executor: it builds each planned task on demand,
// spawns it, and applies whatever post-execution directive the task leaves
// behind. It is the Go translation of run_task/task_build in exec.rs, with
// the reserved system tasks and the bootstrap-reload step from SPEC_FULL.md
// layered on top.
package exec

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	osexec "os/exec"

	"gotask.dev/internal/atat"
	"gotask.dev/internal/dirs"
	"gotask.dev/internal/logs"
	"gotask.dev/internal/plan"
	"gotask.dev/internal/settings"
	"gotask.dev/internal/system"
	"gotask.dev/internal/taskenv"
	"gotask.dev/internal/workspace"
)

// Run loads the task environment, runs the bootstrap phase (reloading the
// environment after each bootstrap task, per spec.md §4.5.1), then runs the
// main phase. version is the running gotask binary's own version, checked
// against any task's gotask-min-version.
func Run(requestedTasks, residualArgs []string, version string) error {
	snap, mat, err := loadAll(requestedTasks, residualArgs)
	if err != nil {
		return err
	}
	mat.Reset()

	logs.Infof("gotask running...")

	bootstrapPlan, err := plan.Expand(snap, plan.BootstrapRoots(snap))
	if err != nil {
		return err
	}
	for _, name := range bootstrapPlan {
		if err := runOne(snap, mat, name, version); err != nil {
			return err
		}
		snap, mat, err = loadAll(requestedTasks, residualArgs)
		if err != nil {
			return err
		}
	}

	mainPlan, err := plan.Expand(snap, plan.MainRoots(snap))
	if err != nil {
		return err
	}
	logs.Infof("task order: %v", mainPlan)

	for _, name := range mainPlan {
		if err := runOne(snap, mat, name, version); err != nil {
			return err
		}
	}

	mat.Reset()
	logs.Infof("gotask complete : )")
	return nil
}

func loadAll(requestedTasks, residualArgs []string) (*taskenv.EnvSnapshot, *workspace.Materializer, error) {
	snap, err := taskenv.Load(requestedTasks, residualArgs)
	if err != nil {
		return nil, nil, err
	}
	s, _, err := settings.Load(snap.TaskDir)
	if err != nil {
		return nil, nil, err
	}
	logs.ApplyColorSetting(s.Color)
	return snap, workspace.New(snap, s), nil
}

func runOne(snap *taskenv.EnvSnapshot, mat *workspace.Materializer, name, version string) error {
	if system.IsBuiltin(name) {
		return system.RunBuiltin(name, snap, mat)
	}

	meta, ok := snap.Tasks[name]
	if !ok {
		return fmt.Errorf("invalid task name %q", name)
	}

	if meta.MinVersion != "" {
		if cmp, err := compareVersions(version, meta.MinVersion); err != nil {
			return fmt.Errorf("task %q: %w", name, err)
		} else if cmp < 0 {
			return fmt.Errorf("task %q requires gotask >= %s, running %s", name, meta.MinVersion, version)
		}
	}

	artifact, err := mat.EnsureBuilt(name)
	if err != nil {
		return err
	}

	logs.Infof("run task: %q", name)

	session, sessErr := logs.StartSession(snap.TargetDir, name)
	if sessErr != nil {
		logs.Warnf("could not start log session for %q: %v", name, sessErr)
	}

	os.Setenv("GOTASK_CUR_TASK", name)
	logs.SetCurrentTask(name)
	defer func() {
		os.Unsetenv("GOTASK_CUR_TASK")
		logs.SetCurrentTask("")
	}()

	cmd := osexec.Command(artifact, snap.ResidualArgs...)
	cmd.Dir = snap.WorkDir
	cmd.Env = os.Environ()

	var stdout, stderr io.Writer = os.Stdout, os.Stderr
	if session != nil {
		stdout = io.MultiWriter(os.Stdout, session.Writer())
		stderr = io.MultiWriter(os.Stderr, session.Writer())
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("task %q: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("task %q: %w", name, err)
	}
	stdin.Close()

	runErr := cmd.Wait()

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*osexec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	if session != nil {
		if err := session.Finish(exitCode); err != nil {
			logs.Warnf("could not finalize log session for %q: %v", name, err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("task %q exited non-zero: %w", name, runErr)
	}

	return applyDirective(snap, cmd.Process.Pid)
}

// applyDirective reads <target>/task-directive-<pid>.atat if present — only
// ever called after a successful run (SPEC_FULL.md Open Questions #3) — and
// applies every gotask-set-env directive to this process's environment, so
// it is visible to every task run after this one.
func applyDirective(snap *taskenv.EnvSnapshot, pid int) error {
	path := snap.TargetDir + "/" + dirs.DirectiveFilePrefix + strconv.Itoa(pid) + dirs.DirectiveFileSuffix
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open directive file: %w", err)
	}
	defer func() {
		f.Close()
		if err := os.Remove(path); err != nil {
			logs.Warnf("could not remove directive file %s: %v", path, err)
		}
	}()

	items, err := atat.ParseKeyValues(f)
	if err != nil {
		return fmt.Errorf("parse directive file: %w", err)
	}

	for _, it := range items {
		switch it.Key {
		case "gotask-set-env":
			name, value, ok := strings.Cut(it.Value, "=")
			if !ok {
				return fmt.Errorf("malformed gotask-set-env directive %q: missing '='", it.Value)
			}
			os.Setenv(name, value)
		default:
			return fmt.Errorf("unknown task directive key %q", it.Key)
		}
	}
	return nil
}

// compareVersions compares two MAJOR.MINOR.PATCH version strings, returning
// -1/0/1. Hand-rolled rather than imported: spec.md's min-version format is
// a bare "MAJOR.MINOR.PATCH" tuple incompatible with golang.org/x/mod/semver
// (which requires a leading "v"), and no third-party semver comparator
// appears anywhere in the example pack (see DESIGN.md).
func compareVersions(a, b string) (int, error) {
	av, err := parseVersion(a)
	if err != nil {
		return 0, fmt.Errorf("invalid runner version %q: %w", a, err)
	}
	bv, err := parseVersion(b)
	if err != nil {
		return 0, fmt.Errorf("invalid gotask-min-version %q: %w", b, err)
	}
	for i := 0; i < 3; i++ {
		if av[i] != bv[i] {
			if av[i] < bv[i] {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, nil
}

func parseVersion(v string) ([3]int, error) {
	var out [3]int
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return out, fmt.Errorf("expected MAJOR.MINOR.PATCH, got %q", v)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, fmt.Errorf("expected MAJOR.MINOR.PATCH, got %q", v)
		}
		out[i] = n
	}
	return out, nil
}
