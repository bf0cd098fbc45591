package main

import (
	"github.com/grantscout/grantscout/cmd"
)

func main() {
	cmd.Execute()
}
