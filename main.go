package main

import (
	"os"

	"github.com/zinc-sig/grader/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
