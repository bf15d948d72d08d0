package main

import (
	"os"

	"github.com/linchen/gokao/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
