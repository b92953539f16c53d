package main

import (
	"os"

	"github.com/fjglira/mdcr/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
