// Package taskenv discovers the reserved .gotask directory, enumerates the
// tasks defined inside it, and publishes the result both as a Go value
// (EnvSnapshot) and as GOTASK_* environment variables, mirroring
// env_loader.rs's load() in the original cargo-task source.
package taskenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gotask.dev/internal/atat"
	"gotask.dev/internal/dirs"
)

// TaskKind distinguishes a single-file script task from a directory task.
type TaskKind int

const (
	KindScript TaskKind = iota
	KindDirectory
)

// TaskMeta describes one discovered task, built from AtAt directives found
// in its entrypoint source file.
type TaskMeta struct {
	Name       string
	Path       string // absolute path: the .task.go file, or the directory
	Kind       TaskKind
	Default    bool
	Bootstrap  bool
	MinVersion string
	Help       string
	CargoDeps  string
	TaskDeps   []string
}

// EnvSnapshot is the published view of the current task environment, the Go
// equivalent of CTEnv in cargo_task_util.rs.
type EnvSnapshot struct {
	GoDriver       string
	WorkDir        string
	TaskDir        string
	TargetDir      string
	RequestedTasks []string
	ResidualArgs   []string
	Tasks          map[string]TaskMeta
}

// SortedTaskNames returns every discovered task name in sorted order.
func (e *EnvSnapshot) SortedTaskNames() []string {
	names := make([]string, 0, len(e.Tasks))
	for n := range e.Tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// errNoTaskDir is returned by Load when no .gotask directory can be found by
// walking up from the working directory.
var errNoTaskDir = fmt.Errorf("could not find %q directory", dirs.TaskDir)

// ErrNoTaskDir reports whether err is the "no .gotask found" sentinel.
func ErrNoTaskDir(err error) bool {
	return err == errNoTaskDir
}

// clearEnv removes every GOTASK_* variable from the process environment,
// unconditionally, including GOTASK_CUR_TASK — see SPEC_FULL.md's Open
// Questions decision #1.
func clearEnv() {
	for _, kv := range os.Environ() {
		name := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			name = kv[:i]
		}
		if strings.HasPrefix(name, "GOTASK_") {
			os.Unsetenv(name)
		}
	}
}

// Load discovers the .gotask directory, enumerates its tasks, publishes
// GOTASK_* environment variables for the rest of the process tree, and
// returns the resulting snapshot. requestedTasks/residualArgs are the CLI
// arguments already split on "--".
func Load(requestedTasks, residualArgs []string) (*EnvSnapshot, error) {
	targetOverride := os.Getenv("GOTASK_TARGET")
	clearEnv()

	goDriver := os.Getenv("GOTASK_GO_DRIVER")
	if goDriver == "" {
		goDriver = "go"
	}
	os.Setenv("GOTASK_GO", goDriver)

	workDir, err := findWorkDir()
	if err != nil {
		return nil, err
	}
	os.Setenv("GOTASK_WORK_DIR", workDir)

	taskDir := filepath.Join(workDir, dirs.TaskDir)
	os.Setenv("GOTASK_PATH", taskDir)

	targetDir := filepath.Join(taskDir, dirs.TargetDirName)
	if targetOverride != "" {
		targetDir = targetOverride
	}
	os.Setenv("GOTASK_TARGET", targetDir)

	os.Setenv("GOTASK_TASKS", strings.Join(requestedTasks, " "))
	os.Setenv("GOTASK_ARGS", strings.Join(residualArgs, " "))

	tasks, err := enumerateTasks(taskDir)
	if err != nil {
		return nil, err
	}

	for name, t := range tasks {
		publishTaskEnv(name, t)
	}

	return &EnvSnapshot{
		GoDriver:       goDriver,
		WorkDir:        workDir,
		TaskDir:        taskDir,
		TargetDir:      targetDir,
		RequestedTasks: requestedTasks,
		ResidualArgs:   residualArgs,
		Tasks:          tasks,
	}, nil
}

func publishTaskEnv(name string, t TaskMeta) {
	upper := envSafeName(name)
	os.Setenv(fmt.Sprintf("GOTASK_TASK_%s_PATH", upper), t.Path)
	if t.Kind == KindScript {
		os.Setenv(fmt.Sprintf("GOTASK_TASK_%s_IS_SCRIPT", upper), "1")
	}
	if t.Default {
		os.Setenv(fmt.Sprintf("GOTASK_TASK_%s_DEFAULT", upper), "1")
	}
	if t.Bootstrap {
		os.Setenv(fmt.Sprintf("GOTASK_TASK_%s_BOOTSTRAP", upper), "1")
	}
	if t.MinVersion != "" {
		os.Setenv(fmt.Sprintf("GOTASK_TASK_%s_MIN_VER", upper), t.MinVersion)
	}
	if t.Help != "" {
		os.Setenv(fmt.Sprintf("GOTASK_TASK_%s_HELP", upper), t.Help)
	}
	if t.CargoDeps != "" {
		os.Setenv(fmt.Sprintf("GOTASK_TASK_%s_CARGO_DEPS", upper), t.CargoDeps)
	}
	if len(t.TaskDeps) > 0 {
		os.Setenv(fmt.Sprintf("GOTASK_TASK_%s_TASK_DEPS", upper), strings.Join(t.TaskDeps, " "))
	}
}

// envSafeName upper-cases a task name and replaces '-' with '_' for
// embedding in a GOTASK_TASK_<NAME>_* variable; other characters are passed
// through unchanged.
func envSafeName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// findWorkDir walks up from the current directory looking for a child named
// dirs.TaskDir, exactly as find_cargo_task_work_dir does in env_loader.rs.
func findWorkDir() (string, error) {
	cur, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	cur, err = filepath.EvalSymlinks(cur)
	if err != nil {
		return "", err
	}

	for {
		entries, err := os.ReadDir(cur)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if e.IsDir() && e.Name() == dirs.TaskDir {
				return cur, nil
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", errNoTaskDir
		}
		cur = parent
	}
}

// reservedDirNames are subdirectories of .gotask that are never task
// directories.
var reservedDirNames = map[string]bool{
	dirs.TargetDirName:    true,
	dirs.WorkspaceDirName: true,
}

func enumerateTasks(taskDir string) (map[string]TaskMeta, error) {
	entries, err := os.ReadDir(taskDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", taskDir, err)
	}

	out := make(map[string]TaskMeta)
	addTask := func(t TaskMeta) error {
		if existing, dup := out[t.Name]; dup {
			return fmt.Errorf("duplicate task name %q (%s and %s)", t.Name, existing.Path, t.Path)
		}
		out[t.Name] = t
		return nil
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if e.IsDir() {
			if reservedDirNames[name] {
				continue
			}
			path := filepath.Join(taskDir, name)
			meta, err := parseDirectoryTask(path, name)
			if err != nil {
				return nil, err
			}
			if err := addTask(meta); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasSuffix(name, dirs.ScriptSuffix) {
			taskName := strings.TrimSuffix(name, dirs.ScriptSuffix)
			path := filepath.Join(taskDir, name)
			meta, err := parseScriptTask(path, taskName)
			if err != nil {
				return nil, err
			}
			if err := addTask(meta); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func parseDirectoryTask(dirPath, name string) (TaskMeta, error) {
	entryPath := filepath.Join(dirPath, "main.go")
	meta, err := parseEntrypoint(entryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return TaskMeta{}, fmt.Errorf("directory task %q has no main.go", name)
		}
		return TaskMeta{}, err
	}
	if meta.CargoDeps != "" {
		return TaskMeta{}, fmt.Errorf(
			"task %q: gotask-cargo-deps not allowed in directory tasks - add dependencies to its own go.mod instead", name)
	}
	meta.Name = name
	meta.Path = dirPath
	meta.Kind = KindDirectory
	return meta, nil
}

func parseScriptTask(filePath, name string) (TaskMeta, error) {
	meta, err := parseEntrypoint(filePath)
	if err != nil {
		return TaskMeta{}, err
	}
	meta.Name = name
	meta.Path = filePath
	meta.Kind = KindScript
	return meta, nil
}

func parseEntrypoint(path string) (TaskMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return TaskMeta{}, err
	}
	defer f.Close()

	items, err := atat.ParseKeyValues(f)
	if err != nil {
		return TaskMeta{}, fmt.Errorf("parse %s: %w", path, err)
	}

	var meta TaskMeta
	for _, it := range items {
		switch it.Key {
		case "gotask-default":
			if it.Value == "true" {
				meta.Default = true
			}
		case "gotask-bootstrap":
			if it.Value == "true" {
				meta.Bootstrap = true
			}
		case "gotask-min-version":
			meta.MinVersion = it.Value
		case "gotask-help":
			meta.Help = it.Value
		case "gotask-task-deps":
			meta.TaskDeps = append(meta.TaskDeps, strings.Fields(it.Value)...)
		case "gotask-cargo-deps":
			meta.CargoDeps = it.Value
		default:
			// unknown AtAt keys are silently ignored, per spec.md §4.2/§9
		}
	}
	return meta, nil
}
