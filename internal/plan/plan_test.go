package plan

import (
	"reflect"
	"testing"

	"gotask.dev/internal/taskenv"
)

func snapshot(tasks map[string][]string) *taskenv.EnvSnapshot {
	m := make(map[string]taskenv.TaskMeta, len(tasks))
	for name, deps := range tasks {
		m[name] = taskenv.TaskMeta{Name: name, TaskDeps: deps}
	}
	return &taskenv.EnvSnapshot{Tasks: m}
}

func TestExpand_PostOrder(t *testing.T) {
	snap := snapshot(map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"c": nil,
	})
	got, err := Expand(snap, []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpand_DiamondDoesNotFalselyCycle(t *testing.T) {
	snap := snapshot(map[string][]string{
		"top":   {"left", "right"},
		"left":  {"shared"},
		"right": {"shared"},
		"shared": nil,
	})
	got, err := Expand(snap, []string{"top"})
	if err != nil {
		t.Fatalf("unexpected cycle error: %v", err)
	}
	want := []string{"shared", "left", "right", "top"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpand_CycleIsFatal(t *testing.T) {
	snap := snapshot(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	if _, err := Expand(snap, []string{"a"}); err == nil {
		t.Fatal("expected circular dependency error")
	}
}

func TestExpand_PseudoTaskPassesThrough(t *testing.T) {
	snap := snapshot(map[string][]string{})
	got, err := Expand(snap, []string{"ghost"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"ghost"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpand_Dedup(t *testing.T) {
	snap := snapshot(map[string][]string{
		"a": {"c"},
		"b": {"c"},
		"c": nil,
	})
	got, err := Expand(snap, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBootstrapAndMainRoots(t *testing.T) {
	snap := &taskenv.EnvSnapshot{Tasks: map[string]taskenv.TaskMeta{
		"setup":   {Name: "setup", Bootstrap: true},
		"build":   {Name: "build", Default: true},
		"deploy":  {Name: "deploy"},
	}}
	if got := BootstrapRoots(snap); !reflect.DeepEqual(got, []string{"setup"}) {
		t.Fatalf("BootstrapRoots = %v", got)
	}
	if got := MainRoots(snap); !reflect.DeepEqual(got, []string{"build"}) {
		t.Fatalf("MainRoots (no request) = %v", got)
	}
	snap.RequestedTasks = []string{"deploy"}
	if got := MainRoots(snap); !reflect.DeepEqual(got, []string{"deploy"}) {
		t.Fatalf("MainRoots (requested) = %v", got)
	}
}
