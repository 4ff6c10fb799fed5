package main

import (
	"os"

	"github.com/prismatic-systems/raywalk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
