package main

import (
	"os"

	"github.com/kbukum/getfnative/cmd/getfnative/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
