package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/voluzi/pmon/cmd/pmon/cmd"
)

func main() {
	cmd.Execute()
}
