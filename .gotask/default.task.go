/*
@gotask-default@ true @@
@gotask-help@ runs the full local check suite @@
@gotask-task-deps@
fmt-check
vet
test
@@
*/

package main

func main() {
	Info("default task is a no-op")
}
