package taskenv

import (
	"os"
	"path/filepath"
	"testing"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	return resolved
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_DiscoversScriptAndDirectoryTasks(t *testing.T) {
	root := chdirTemp(t)

	writeFile(t, filepath.Join(root, ".gotask", "lint.task.go"),
		"/*\n@gotask-default@ true @@\n@gotask-help@ runs the linter @@\n*/\n\npackage main\n\nfunc main() {}\n")

	writeFile(t, filepath.Join(root, ".gotask", "build", "main.go"),
		"/*\n@gotask-bootstrap@ true @@\n@gotask-task-deps@ lint @@\n*/\n\npackage main\n\nfunc main() {}\n")

	snap, err := Load(nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if snap.WorkDir != root {
		t.Fatalf("work dir = %q, want %q", snap.WorkDir, root)
	}
	if len(snap.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %v", len(snap.Tasks), snap.SortedTaskNames())
	}

	lint, ok := snap.Tasks["lint"]
	if !ok || lint.Kind != KindScript || !lint.Default || lint.Help != "runs the linter" {
		t.Fatalf("lint task wrong: %+v ok=%v", lint, ok)
	}

	build, ok := snap.Tasks["build"]
	if !ok || build.Kind != KindDirectory || !build.Bootstrap || len(build.TaskDeps) != 1 || build.TaskDeps[0] != "lint" {
		t.Fatalf("build task wrong: %+v ok=%v", build, ok)
	}

	if os.Getenv("GOTASK_TASK_LINT_DEFAULT") != "1" {
		t.Fatalf("expected GOTASK_TASK_LINT_DEFAULT=1, got %q", os.Getenv("GOTASK_TASK_LINT_DEFAULT"))
	}
	if os.Getenv("GOTASK_TASK_BUILD_BOOTSTRAP") != "1" {
		t.Fatalf("expected GOTASK_TASK_BUILD_BOOTSTRAP=1, got %q", os.Getenv("GOTASK_TASK_BUILD_BOOTSTRAP"))
	}
}

func TestLoad_DirectoryTaskWithCargoDepsIsFatal(t *testing.T) {
	chdirTemp(t)
	writeFile(t, ".gotask/build/main.go",
		"/*\n@gotask-cargo-deps@ require foo v1.0.0 @@\n*/\n\npackage main\n\nfunc main() {}\n")

	if _, err := Load(nil, nil); err == nil {
		t.Fatal("expected error for cargo-deps in directory task")
	}
}

func TestLoad_DuplicateTaskNameIsFatal(t *testing.T) {
	chdirTemp(t)
	writeFile(t, ".gotask/build.task.go", "package main\nfunc main() {}\n")
	writeFile(t, ".gotask/build/main.go", "package main\nfunc main() {}\n")

	if _, err := Load(nil, nil); err == nil {
		t.Fatal("expected duplicate task name error")
	}
}

func TestLoad_NoTaskDirReturnsError(t *testing.T) {
	chdirTemp(t)
	if _, err := Load(nil, nil); !ErrNoTaskDir(err) {
		t.Fatalf("expected ErrNoTaskDir, got %v", err)
	}
}

func TestLoad_ClearsStaleEnv(t *testing.T) {
	chdirTemp(t)
	writeFile(t, ".gotask/a.task.go", "package main\nfunc main() {}\n")

	os.Setenv("GOTASK_CUR_TASK", "stale")
	os.Setenv("GOTASK_TASK_GHOST_PATH", "stale")

	if _, err := Load(nil, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if os.Getenv("GOTASK_CUR_TASK") != "" {
		t.Fatal("expected GOTASK_CUR_TASK to be cleared")
	}
	if os.Getenv("GOTASK_TASK_GHOST_PATH") != "" {
		t.Fatal("expected stale task var to be cleared")
	}
}
