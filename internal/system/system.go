// Package system implements gotask's built-in system tasks and pre-env CLI
// surface: the few task names and flags that are handled by the runner
// itself rather than compiled and spawned as ordinary tasks. Grounded on
// original_source/src/task.rs, task/ct_init.rs, task/ct_meta.rs,
// task/ct_clean.rs, and task/help.rs.
package system

import (
	"fmt"
	"os"

	"gotask.dev/internal/dirs"
	"gotask.dev/internal/logs"
	"gotask.dev/internal/taskenv"
	"gotask.dev/internal/workspace"
)

// MetaTaskName and CleanTaskName are reserved: a user task of the same name
// never shadows the built-in (spec.md §4.4).
const (
	MetaTaskName  = "gotask-meta"
	CleanTaskName = "gotask-clean"
	InitTaskName  = "gotask-init"
)

// IsBuiltin reports whether name is a reserved system task name.
func IsBuiltin(name string) bool {
	return name == MetaTaskName || name == CleanTaskName
}

// RunBuiltin executes a built-in system task. Callers must have already
// checked IsBuiltin.
func RunBuiltin(name string, snap *taskenv.EnvSnapshot, m *workspace.Materializer) error {
	switch name {
	case MetaTaskName:
		printMeta(snap)
		return nil
	case CleanTaskName:
		return m.Clean()
	default:
		return fmt.Errorf("not a builtin task: %q", name)
	}
}

func printMeta(snap *taskenv.EnvSnapshot) {
	for _, name := range snap.SortedTaskNames() {
		t := snap.Tasks[name]
		marker := " "
		switch {
		case t.Bootstrap:
			marker = "^"
		case t.Default:
			marker = "*"
		}
		kind := "dir"
		if t.Kind == taskenv.KindScript {
			kind = "script"
		}
		fmt.Printf("%22s%s [%s] - %s\n", t.Name, marker, kind, t.Help)
		if len(t.TaskDeps) > 0 {
			fmt.Printf("%24sdeps: %v\n", "", t.TaskDeps)
		}
	}
}

// Init creates .gotask/ and writes its .gitignore. It is fatal if the
// directory already exists, matching ct_init.rs.
func Init() error {
	logs.Infof("initializing current directory for gotask...")
	if fi, err := os.Stat(dirs.TaskDir); err == nil && fi.IsDir() {
		return fmt.Errorf("%q already exists, aborting", dirs.TaskDir)
	}
	if err := os.Mkdir(dirs.TaskDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dirs.TaskDir, err)
	}
	gitignore := "/target/\n/got-workspace/\n"
	return os.WriteFile(
		dirs.TaskDir+string(os.PathSeparator)+dirs.GitIgnoreFile,
		[]byte(gitignore), 0o644)
}

// HelpText is the static usage banner printed by `gotask --help`, the Go
// analogue of task::help's hard-coded preamble.
const HelpText = `
# gotask usage #

            gotask --help - this help info
                   gotask - execute all configured default tasks
     gotask [task-list] - - execute a specific list of tasks

# system tasks #

            gotask-init - generate a '.gotask' directory + .gitignore
            gotask-meta - print meta info about discovered tasks
           gotask-clean - delete the gotask target directory, removed even
                          if it matches your project's own build cache path
`

// PrintHelp prints HelpText, then — if a .gotask directory can be found —
// the locally-defined task listing, exactly as help() does in help.rs.
func PrintHelp() {
	fmt.Print(HelpText)
	snap, err := taskenv.Load(nil, nil)
	if err != nil {
		return
	}
	fmt.Println("# locally-defined tasks (* - default, ^ - bootstrap) #")
	fmt.Println()
	printMeta(snap)
	fmt.Println()
}
