/*
@gotask-help@ runs "go vet ./..." @@
*/

package main

func main() {
	env := Env()
	cmd := Command(env.GoDriver, "vet", "./...")
	cmd.Dir = env.WorkDir
	RunInherited(cmd)
}
