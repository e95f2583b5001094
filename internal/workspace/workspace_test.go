package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotask.dev/internal/settings"
	"gotask.dev/internal/taskenv"
)

func tempSnapshot(t *testing.T) (*taskenv.EnvSnapshot, string) {
	t.Helper()
	root := t.TempDir()
	taskDir := filepath.Join(root, ".gotask")
	targetDir := filepath.Join(taskDir, "target")
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		t.Fatal(err)
	}

	scriptPath := filepath.Join(taskDir, "lint.task.go")
	if err := os.WriteFile(scriptPath, []byte("package main\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap := &taskenv.EnvSnapshot{
		GoDriver:  "go",
		WorkDir:   root,
		TaskDir:   taskDir,
		TargetDir: targetDir,
		Tasks: map[string]taskenv.TaskMeta{
			"lint": {
				Name: "lint",
				Path: scriptPath,
				Kind: taskenv.KindScript,
			},
		},
	}
	return snap, root
}

func TestMaterialize_ScriptTask(t *testing.T) {
	snap, _ := tempSnapshot(t)
	m := New(snap, settings.Default())

	if err := m.materialize("lint", snap.Tasks["lint"]); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	wsDir := filepath.Join(m.workspaceDir(), "lint")

	mainSrc, err := os.ReadFile(filepath.Join(wsDir, "main.go"))
	if err != nil {
		t.Fatalf("main.go missing: %v", err)
	}
	if !strings.Contains(string(mainSrc), "package main") {
		t.Fatalf("main.go content wrong: %s", mainSrc)
	}

	goMod, err := os.ReadFile(filepath.Join(wsDir, "go.mod"))
	if err != nil {
		t.Fatalf("go.mod missing: %v", err)
	}
	if !strings.Contains(string(goMod), "module lint") {
		t.Fatalf("go.mod content wrong: %s", goMod)
	}
	if !strings.Contains(string(goMod), "go "+settings.DefaultGoVersion) {
		t.Fatalf("go.mod missing go version: %s", goMod)
	}

	util, err := os.ReadFile(filepath.Join(wsDir, "gotaskutil.go"))
	if err != nil {
		t.Fatalf("gotaskutil.go missing: %v", err)
	}
	if !strings.Contains(string(util), "package main") {
		t.Fatalf("gotaskutil.go should be package main: %s", util)
	}

	goWork, err := os.ReadFile(filepath.Join(m.workspaceDir(), "go.work"))
	if err != nil {
		t.Fatalf("go.work missing: %v", err)
	}
	if !strings.Contains(string(goWork), "./lint") {
		t.Fatalf("go.work missing lint entry: %s", goWork)
	}
}

func TestMaterialize_ScriptTaskWithCargoDeps(t *testing.T) {
	snap, _ := tempSnapshot(t)
	meta := snap.Tasks["lint"]
	meta.CargoDeps = "require github.com/example/foo v1.2.3"
	snap.Tasks["lint"] = meta

	m := New(snap, settings.Default())
	if err := m.materialize("lint", meta); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	goMod, err := os.ReadFile(filepath.Join(m.workspaceDir(), "lint", "go.mod"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(goMod), "github.com/example/foo") {
		t.Fatalf("go.mod missing cargo-deps fragment: %s", goMod)
	}
}

func TestModulePrefix(t *testing.T) {
	snap, _ := tempSnapshot(t)
	s := settings.Default()
	s.ModulePrefix = "gotask-internal/"
	m := New(snap, s)

	if err := m.materialize("lint", snap.Tasks["lint"]); err != nil {
		t.Fatal(err)
	}
	goMod, err := os.ReadFile(filepath.Join(m.workspaceDir(), "lint", "go.mod"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(goMod), "module gotask-internal/lint") {
		t.Fatalf("go.mod missing module prefix: %s", goMod)
	}
}

func TestNewestMtime(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}
	newest, err := newestMtime(dir)
	if err != nil {
		t.Fatal(err)
	}
	if newest.IsZero() {
		t.Fatal("expected non-zero newest mtime")
	}
}
