// Package workspace synthesizes the multi-module Go build workspace gotask
// compiles tasks in, and performs incremental rebuilds. It is the Go
// translation of task_build/get_newest_time in exec.rs: Cargo's
// `[workspace] members = [...]` becomes a `go.work` file with one `use`
// directive per task.
package workspace

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"gotask.dev/internal/dirs"
	"gotask.dev/internal/logs"
	"gotask.dev/internal/settings"
	"gotask.dev/internal/taskenv"
)

//go:embed assets/gotaskutil.go.tmpl
var gotaskUtilSrc []byte

// Materializer synthesizes got-workspace/ and builds tasks into bin/.
type Materializer struct {
	snap     *taskenv.EnvSnapshot
	settings settings.Settings
}

// New returns a Materializer for the given snapshot and ambient settings.
func New(snap *taskenv.EnvSnapshot, s settings.Settings) *Materializer {
	return &Materializer{snap: snap, settings: s}
}

func (m *Materializer) workspaceDir() string {
	return filepath.Join(m.snap.TargetDir, dirs.WorkspaceDirName)
}

func (m *Materializer) binDir() string {
	return filepath.Join(m.snap.TargetDir, dirs.BinDirName)
}

// ArtifactPath returns where a task's compiled binary lives (or would live).
func (m *Materializer) ArtifactPath(taskName string) string {
	return filepath.Join(m.binDir(), taskName)
}

// EnsureBuilt builds taskName if its artifact is missing or stale, comparing
// the artifact's mtime against the newest mtime under the task's original
// source tree — identical semantics to exec.rs's task_build, translated to
// Go modules instead of a shared Cargo workspace member.
func (m *Materializer) EnsureBuilt(taskName string) (string, error) {
	meta, ok := m.snap.Tasks[taskName]
	if !ok {
		return "", fmt.Errorf("no such task %q", taskName)
	}

	artifact := m.ArtifactPath(taskName)
	if fi, err := os.Stat(artifact); err == nil {
		newest, err := newestMtime(meta.Path)
		if err == nil && !fi.ModTime().Before(newest) {
			return artifact, nil
		}
	}

	logs.Infof("build task %q", taskName)
	if err := m.materialize(taskName, meta); err != nil {
		return "", err
	}
	if err := m.build(taskName, meta); err != nil {
		return "", err
	}
	return artifact, nil
}

// materialize (re)writes got-workspace/<name>/ for one task plus the go.work
// file listing every task materialized so far as a workspace member. Unlike
// the Cargo original,
// which rewrites a single shared workspace manifest per build, a Go
// workspace's `use` list is cheap to regenerate wholesale on every build;
// doing so means a later task's build always sees an up-to-date set of
// siblings.
func (m *Materializer) materialize(taskName string, meta taskenv.TaskMeta) error {
	taskWSDir := filepath.Join(m.workspaceDir(), taskName)
	if err := os.RemoveAll(taskWSDir); err != nil {
		return fmt.Errorf("clear workspace dir for %s: %w", taskName, err)
	}
	if err := os.MkdirAll(taskWSDir, 0o755); err != nil {
		return err
	}

	switch meta.Kind {
	case taskenv.KindDirectory:
		if err := copyTree(meta.Path, taskWSDir); err != nil {
			return fmt.Errorf("copy task %s: %w", taskName, err)
		}
	case taskenv.KindScript:
		src, err := os.ReadFile(meta.Path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(taskWSDir, "main.go"), src, 0o644); err != nil {
			return err
		}
		modPath := m.settings.ModulePrefix + taskName
		goMod := fmt.Sprintf("module %s\n\ngo %s\n", modPath, m.settings.GoVersion)
		if meta.CargoDeps != "" {
			goMod += "\n" + meta.CargoDeps + "\n"
		}
		if err := os.WriteFile(filepath.Join(taskWSDir, "go.mod"), []byte(goMod), 0o644); err != nil {
			return err
		}
	}

	if err := os.WriteFile(filepath.Join(taskWSDir, dirs.UtilFileName), gotaskUtilSrc, 0o644); err != nil {
		return fmt.Errorf("write %s for %s: %w", dirs.UtilFileName, taskName, err)
	}

	return m.writeGoWork()
}

// writeGoWork regenerates got-workspace/go.work listing every materialized
// task directory under it as a `use` entry.
func (m *Materializer) writeGoWork() error {
	entries, err := os.ReadDir(m.workspaceDir())
	if err != nil {
		return err
	}

	content := fmt.Sprintf("go %s\n\nuse (\n", m.settings.GoVersion)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		content += fmt.Sprintf("\t./%s\n", e.Name())
	}
	content += ")\n"

	return os.WriteFile(filepath.Join(m.workspaceDir(), "go.work"), []byte(content), 0o644)
}

func (m *Materializer) build(taskName string, meta taskenv.TaskMeta) error {
	if err := os.MkdirAll(m.binDir(), 0o755); err != nil {
		return err
	}

	artifact := m.ArtifactPath(taskName)
	taskWSDir := filepath.Join(m.workspaceDir(), taskName)

	cmd := exec.Command(m.snap.GoDriver, "build", "-o", artifact, ".")
	cmd.Dir = taskWSDir
	cmd.Env = append(os.Environ(), "GOWORK="+filepath.Join(m.workspaceDir(), "go.work"))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build task %q: %w", taskName, err)
	}
	return nil
}

// Clean removes the entire build directory, even when it coincides with the
// host project's own Go build cache path, exactly as ct_clean.rs does.
func (m *Materializer) Clean() error {
	logs.Infof("deleting %s", m.snap.TargetDir)
	return os.RemoveAll(m.snap.TargetDir)
}

// Reset deletes the synthesized got-workspace/ tree, best-effort. Called on
// entry to a run and again on normal exit, per spec.md §3's "the workspace
// is ... deleted on entry and on normal exit (best effort)". A failure here
// is logged, not fatal.
func (m *Materializer) Reset() {
	if err := os.RemoveAll(m.workspaceDir()); err != nil {
		logs.Warnf("could not remove %s: %v", m.workspaceDir(), err)
	}
}

func newestMtime(path string) (time.Time, error) {
	var newest time.Time
	err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return newest, err
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
