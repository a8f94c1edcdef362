package main

import (
	"os"

	"github.com/fitoori/squirt/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
