package main

import (
	"github.com/foomo/cockpitsource/cmd"
)

func main() {
	cmd.Execute()
}
