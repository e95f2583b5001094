/*
@gotask-help@ runs "gofmt -l" to enforce formatting @@
*/

package main

import (
	"os"
	"os/exec"
	"strings"
)

func main() {
	out, err := exec.Command("gofmt", "-l", Env().WorkDir).CombinedOutput()
	if err != nil {
		Fatal("gofmt failed: %v\n%s", err, out)
	}
	if strings.TrimSpace(string(out)) != "" {
		Fatal("unformatted files:\n%s", out)
	}
	os.Exit(0)
}
