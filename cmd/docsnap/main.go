package main

import (
	"os"

	"docsnap/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
