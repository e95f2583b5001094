package cli

import "testing"

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		in        []string
		wantTasks []string
		wantArgs  []string
	}{
		{nil, nil, nil},
		{[]string{"build", "test"}, []string{"build", "test"}, nil},
		{[]string{"build", "--", "-v", "foo"}, []string{"build"}, []string{"-v", "foo"}},
		{[]string{"--"}, nil, nil},
		{[]string{"--", "x"}, nil, []string{"x"}},
	}
	for _, c := range cases {
		tasks, args := splitArgs(c.in)
		if !equal(tasks, c.wantTasks) || !equal(args, c.wantArgs) {
			t.Fatalf("splitArgs(%v) = (%v, %v), want (%v, %v)", c.in, tasks, args, c.wantTasks, c.wantArgs)
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
