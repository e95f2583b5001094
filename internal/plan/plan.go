// Package plan computes the dependency-ordered sequence of task names to
// run, translating fill_task_deps from exec.rs: a depth-first post-order
// expansion over each task's TaskDeps, with a per-descent (not shared)
// visited set so diamond dependencies don't falsely trip cycle detection.
package plan

import (
	"fmt"
	"strings"

	"gotask.dev/internal/taskenv"
)

// Expand returns the post-order task execution sequence for the given root
// task names, resolved against snap.Tasks. Unknown names become pseudo-tasks
// that pass straight through without dependency expansion, matching
// exec.rs's "this may be a pseudo task" branch.
func Expand(snap *taskenv.EnvSnapshot, roots []string) ([]string, error) {
	var order []string
	seen := map[string]bool{}

	for _, root := range roots {
		if err := fillTaskDeps(snap, &order, seen, root, map[string]bool{}); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func fillTaskDeps(snap *taskenv.EnvSnapshot, order *[]string, seen map[string]bool, name string, path map[string]bool) error {
	if path[name] {
		names := make([]string, 0, len(path))
		for n := range path {
			names = append(names, n)
		}
		return fmt.Errorf("circular task dependency within [%s]", strings.Join(names, " "))
	}

	next := make(map[string]bool, len(path)+1)
	for k := range path {
		next[k] = true
	}
	next[name] = true

	meta, ok := snap.Tasks[name]
	if !ok {
		if !seen[name] {
			seen[name] = true
			*order = append(*order, name)
		}
		return nil
	}

	for _, dep := range meta.TaskDeps {
		if err := fillTaskDeps(snap, order, seen, dep, next); err != nil {
			return err
		}
	}

	if !seen[name] {
		seen[name] = true
		*order = append(*order, name)
	}
	return nil
}

// BootstrapRoots returns every Bootstrap-flagged task name, sorted, forming
// the roots of the bootstrap-phase plan (spec.md §4.4/§4.5.1).
func BootstrapRoots(snap *taskenv.EnvSnapshot) []string {
	var roots []string
	for _, name := range snap.SortedTaskNames() {
		if snap.Tasks[name].Bootstrap {
			roots = append(roots, name)
		}
	}
	return roots
}

// MainRoots returns the main-phase plan roots: the requested task list if
// non-empty, otherwise every Default-flagged task, sorted.
func MainRoots(snap *taskenv.EnvSnapshot) []string {
	if len(snap.RequestedTasks) > 0 {
		return snap.RequestedTasks
	}
	var roots []string
	for _, name := range snap.SortedTaskNames() {
		if snap.Tasks[name].Default {
			roots = append(roots, name)
		}
	}
	return roots
}
