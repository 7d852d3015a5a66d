package main

import (
	"os"

	"github.com/cppla/htmlfilter/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
