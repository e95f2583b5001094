/*
@gotask-help@ runs "go test ./..." @@
*/

package main

func main() {
	env := Env()
	cmd := Command(env.GoDriver, "test", "./...")
	cmd.Dir = env.WorkDir
	RunInherited(cmd)
}
